package executor

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// errUndefined marks a reference to a variable that does not exist.
var errUndefined = errors.New("undefined variable")

// refPattern matches a {{ expression }} reference.
var refPattern = regexp.MustCompile(`\{\{\s*(.+?)\s*\}\}`)

// Scope holds the variables a play's templates and conditions can see.
type Scope struct {
	Vars       map[string]any // play vars, extra vars, env, facts, loop items
	Registered map[string]any // task results stored with register
}

// Lookup resolves a variable name or dotted path such as
// "online.data.accounts.0.username". Registered results shadow play vars.
// Map keys and list indexes may be mixed freely along the path.
func (sc *Scope) Lookup(path string) (any, bool) {
	if v, ok := sc.Registered[path]; ok {
		return v, true
	}
	if v, ok := sc.Vars[path]; ok {
		return v, true
	}

	head, rest, dotted := strings.Cut(path, ".")
	if !dotted {
		return nil, false
	}

	cur, ok := sc.Registered[head]
	if !ok {
		if cur, ok = sc.Vars[head]; !ok {
			return nil, false
		}
	}

	for _, part := range strings.Split(rest, ".") {
		switch c := cur.(type) {
		case map[string]any:
			cur, ok = c[part]
		case map[string]string:
			cur, ok = c[part]
		case []any:
			i, err := strconv.Atoi(part)
			ok = err == nil && i >= 0 && i < len(c)
			if ok {
				cur = c[i]
			}
		default:
			ok = false
		}
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// renderParams renders every {{ }} reference in task parameters.
func renderParams(params map[string]any, sc *Scope) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for k, v := range params {
		r, err := render(v, sc)
		if err != nil {
			return nil, fmt.Errorf("parameter '%s': %w", k, err)
		}
		out[k] = r
	}
	return out, nil
}

// render walks strings, lists and maps. Other values pass through.
func render(v any, sc *Scope) (any, error) {
	switch val := v.(type) {
	case string:
		return renderString(val, sc)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			r, err := render(item, sc)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			r, err := render(item, sc)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

// renderString renders references in s. A string that is exactly one
// reference keeps the referenced value's type, so "{{ online.data.accounts }}"
// yields a list; anything else is rendered to text. An undefined variable
// is an error: a half-rendered console command must never be sent.
func renderString(s string, sc *Scope) (any, error) {
	trimmed := strings.TrimSpace(s)
	if m := refPattern.FindStringSubmatchIndex(trimmed); m != nil && m[0] == 0 && m[1] == len(trimmed) {
		return evalExpr(trimmed[m[2]:m[3]], sc)
	}

	var firstErr error
	out := refPattern.ReplaceAllStringFunc(s, func(ref string) string {
		expr := refPattern.FindStringSubmatch(ref)[1]
		v, err := evalExpr(expr, sc)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return ref
		}
		return text(v)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// evalExpr evaluates "name | filter | filter('arg')".
func evalExpr(expr string, sc *Scope) (any, error) {
	stages := splitPipeline(expr)
	name := strings.TrimSpace(stages[0])

	val, defined := sc.Lookup(name)
	if lit, ok := literal(name); ok {
		val, defined = lit, true
	}

	for _, stage := range stages[1:] {
		fname, arg := parseFilter(stage)
		if fname == "default" {
			if !defined || val == nil || val == "" {
				val, defined = arg, true
			}
			continue
		}
		if !defined {
			return nil, fmt.Errorf("%w '%s'", errUndefined, name)
		}
		f, ok := filters[fname]
		if !ok {
			return nil, fmt.Errorf("unknown filter: %s", fname)
		}
		var err error
		if val, err = f(val, arg); err != nil {
			return nil, fmt.Errorf("filter %s: %w", fname, err)
		}
	}

	if !defined {
		return nil, fmt.Errorf("%w '%s'", errUndefined, name)
	}
	return val, nil
}

// literal recognises quoted strings and numbers used in expressions.
func literal(s string) (any, bool) {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], true
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	return nil, false
}

// splitPipeline splits on '|' outside quotes.
func splitPipeline(expr string) []string {
	var parts []string
	var quote rune
	start := 0
	for i, r := range expr {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '|':
			parts = append(parts, expr[start:i])
			start = i + 1
		}
	}
	return append(parts, expr[start:])
}

// parseFilter splits "join(', ')" into its name and unquoted argument.
func parseFilter(stage string) (name, arg string) {
	stage = strings.TrimSpace(stage)
	open := strings.Index(stage, "(")
	if open < 0 || !strings.HasSuffix(stage, ")") {
		return stage, ""
	}
	name = strings.TrimSpace(stage[:open])
	arg = strings.TrimSpace(stage[open+1 : len(stage)-1])
	if v, ok := literal(arg); ok {
		arg = text(v)
	}
	return name, arg
}

type filterFunc func(v any, arg string) (any, error)

var filters = map[string]filterFunc{
	"lower":  func(v any, _ string) (any, error) { return strings.ToLower(text(v)), nil },
	"upper":  func(v any, _ string) (any, error) { return strings.ToUpper(text(v)), nil },
	"trim":   func(v any, _ string) (any, error) { return strings.TrimSpace(text(v)), nil },
	"string": func(v any, _ string) (any, error) { return text(v), nil },
	"int":    func(v any, _ string) (any, error) { return cast.ToIntE(v) },
	"bool":   func(v any, _ string) (any, error) { return isTruthy(v), nil },
	"mask":   mask,
	"quote":  quote,
	"first":  first,
	"last":   last,
	"length": length,
	"count":  length,
	"join":   join,
}

// mask hides secrets such as passwords in messages and logs.
func mask(v any, _ string) (any, error) {
	if v == nil || v == "" {
		return "", nil
	}
	return "***", nil
}

// quote wraps a value in double quotes for multi-word console arguments
// (mail subjects, ban reasons). The console has no escape for an embedded
// quote, so those are dropped.
func quote(v any, _ string) (any, error) {
	return `"` + strings.ReplaceAll(text(v), `"`, "") + `"`, nil
}

func first(v any, _ string) (any, error) {
	if l, ok := v.([]any); ok && len(l) > 0 {
		return l[0], nil
	}
	return nil, nil
}

func last(v any, _ string) (any, error) {
	if l, ok := v.([]any); ok && len(l) > 0 {
		return l[len(l)-1], nil
	}
	return nil, nil
}

func join(v any, sep string) (any, error) {
	l, ok := v.([]any)
	if !ok {
		return v, nil
	}
	if sep == "" {
		sep = ","
	}
	parts := make([]string, len(l))
	for i, item := range l {
		parts[i] = text(item)
	}
	return strings.Join(parts, sep), nil
}

func length(v any, _ string) (any, error) {
	switch c := v.(type) {
	case string:
		return len(c), nil
	case []any:
		return len(c), nil
	case map[string]any:
		return len(c), nil
	}
	return 0, nil
}

// text renders a value for a console command line.
func text(v any) string {
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}
