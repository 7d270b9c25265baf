package executor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// comparators in match order: two-character operators before their
// one-character prefixes.
var comparators = []string{"==", "!=", "<=", ">=", "<", ">", " in "}

// evalCondition evaluates a 'when' expression. Supported forms:
//
//	name                  truthiness (registered results, vars, facts)
//	not expr
//	a and b, a or b       ("or" binds loosest)
//	a == b, a != b        numeric when both sides are numbers, else text
//	a < b, a <= b, ...    numeric only
//	a in b                list membership or substring
//
// Operands are quoted literals, numbers, true/false, or variable paths with
// optional filters ("accounts | length > 0"). An undefined path is nil; a
// bare undefined word is its own text, so "realm == Kalimdor" works.
func evalCondition(cond string, sc *Scope) (bool, error) {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return false, fmt.Errorf("empty condition")
	}

	if parts := splitOutsideQuotes(cond, " or "); len(parts) > 1 {
		for _, p := range parts {
			ok, err := evalCondition(p, sc)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}
	if parts := splitOutsideQuotes(cond, " and "); len(parts) > 1 {
		for _, p := range parts {
			ok, err := evalCondition(p, sc)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}

	if rest, ok := strings.CutPrefix(cond, "not "); ok {
		v, err := evalCondition(rest, sc)
		return !v, err
	}

	for _, op := range comparators {
		parts := splitOutsideQuotes(cond, op)
		if len(parts) != 2 {
			continue
		}
		left, err := operand(parts[0], sc)
		if err != nil {
			return false, err
		}
		right, err := operand(parts[1], sc)
		if err != nil {
			return false, err
		}
		return compare(op, left, right)
	}

	v, err := operand(cond, sc)
	if err != nil {
		return false, err
	}
	return isTruthy(v), nil
}

// operand resolves one side of a condition.
func operand(s string, sc *Scope) (any, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "|") {
		v, err := evalExpr(s, sc)
		if errors.Is(err, errUndefined) {
			return nil, nil
		}
		return v, err
	}

	switch s {
	case "true", "True":
		return true, nil
	case "false", "False":
		return false, nil
	}
	if v, ok := literal(s); ok {
		return v, nil
	}
	if v, ok := sc.Lookup(s); ok {
		return v, nil
	}
	if strings.Contains(s, ".") {
		return nil, nil
	}
	return s, nil
}

func compare(op string, left, right any) (bool, error) {
	if op == " in " {
		return contains(right, left), nil
	}

	lf, lerr := number(left)
	rf, rerr := number(right)
	numeric := lerr == nil && rerr == nil

	switch op {
	case "==":
		if numeric {
			return lf == rf, nil
		}
		return text(left) == text(right), nil
	case "!=":
		if numeric {
			return lf != rf, nil
		}
		return text(left) != text(right), nil
	}

	if !numeric {
		return false, fmt.Errorf("cannot compare %v %s %v: both sides must be numbers", left, op, right)
	}
	switch op {
	case "<":
		return lf < rf, nil
	case "<=":
		return lf <= rf, nil
	case ">":
		return lf > rf, nil
	default:
		return lf >= rf, nil
	}
}

// number converts ints, floats and numeric strings. Booleans and nil are
// not numbers here.
func number(v any) (float64, error) {
	switch v.(type) {
	case nil, bool:
		return 0, fmt.Errorf("not a number")
	}
	return cast.ToFloat64E(v)
}

func contains(haystack, needle any) bool {
	switch h := haystack.(type) {
	case string:
		return strings.Contains(h, text(needle))
	case []any:
		for _, item := range h {
			if text(item) == text(needle) {
				return true
			}
		}
	case map[string]any:
		_, ok := h[text(needle)]
		return ok
	}
	return false
}

// splitOutsideQuotes splits s on sep, ignoring separators inside quotes.
func splitOutsideQuotes(s, sep string) []string {
	var parts []string
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case strings.HasPrefix(s[i:], sep):
			parts = append(parts, s[start:i])
			start = i + len(sep)
			i += len(sep) - 1
		}
	}
	return append(parts, s[start:])
}

// isTruthy reports whether a value counts as true in a condition.
func isTruthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "", "false", "no":
			return false
		}
		return true
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	}
	if f, err := cast.ToFloat64E(v); err == nil {
		return f != 0
	}
	return true
}
