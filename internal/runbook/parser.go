package runbook

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// playDoc is a play as written in YAML. Tasks stay raw maps because the
// module is whichever key is not a directive.
type playDoc struct {
	Name        string           `yaml:"name"`
	Console     string           `yaml:"console"`
	GatherFacts bool             `yaml:"gather_facts"`
	Vars        map[string]any   `yaml:"vars"`
	Tasks       []map[string]any `yaml:"tasks"`
	Handlers    []map[string]any `yaml:"handlers"`
}

// directives are the task keys that control execution. Scalars are
// decoded weakly so `retries: "2"` works.
type directives struct {
	Name         string `mapstructure:"name"`
	When         any    `mapstructure:"when"`
	Register     string `mapstructure:"register"`
	Notify       any    `mapstructure:"notify"`
	Loop         any    `mapstructure:"loop"`
	WithItems    any    `mapstructure:"with_items"`
	LoopVar      string `mapstructure:"loop_var"`
	IgnoreErrors bool   `mapstructure:"ignore_errors"`
	Retries      int    `mapstructure:"retries"`
	Delay        int    `mapstructure:"delay"`
}

// shorthandParam is the parameter a bare string argument fills, e.g.
// `console: "server info"` or `announce: "Restart soon"`.
var shorthandParam = map[string]string{
	"console":  "cmd",
	"announce": "message",
	"server":   "action",
	"account":  "action",
}

// ParseFile reads and parses a runbook file.
func ParseFile(path string) (*Runbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read runbook: %w", err)
	}
	return Parse(data, path)
}

// Parse parses and validates a runbook. The document is either one play
// or a list of plays.
func Parse(data []byte, path string) (*Runbook, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid runbook format: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("runbook is empty")
	}

	var docs []playDoc
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&docs); err != nil {
			return nil, fmt.Errorf("invalid runbook format: %w", err)
		}
	case yaml.MappingNode:
		var pd playDoc
		if err := root.Decode(&pd); err != nil {
			return nil, fmt.Errorf("invalid runbook format: %w", err)
		}
		docs = append(docs, pd)
	default:
		return nil, errors.New("invalid runbook format: expected a play or a list of plays")
	}
	if len(docs) == 0 {
		return nil, errors.New("runbook is empty")
	}

	rb := &Runbook{Path: path}
	for i, pd := range docs {
		play, err := pd.play()
		if err == nil {
			err = play.Validate()
		}
		if err != nil {
			return nil, fmt.Errorf("play %d: %w", i+1, err)
		}
		rb.Plays = append(rb.Plays, play)
	}
	return rb, nil
}

func (pd playDoc) play() (*Play, error) {
	play := &Play{
		Name:        pd.Name,
		Console:     pd.Console,
		GatherFacts: pd.GatherFacts,
		Vars:        pd.Vars,
	}
	if play.Vars == nil {
		play.Vars = make(map[string]any)
	}

	var err error
	if play.Tasks, err = parseTasks(pd.Tasks, "task"); err != nil {
		return nil, err
	}
	if play.Handlers, err = parseTasks(pd.Handlers, "handler"); err != nil {
		return nil, err
	}
	return play, nil
}

func parseTasks(raw []map[string]any, kind string) ([]*Task, error) {
	tasks := make([]*Task, 0, len(raw))
	for i, m := range raw {
		t, err := parseTask(m)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", kind, i+1, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// parseTask splits a task map into its directives and the one module key
// left over.
func parseTask(raw map[string]any) (*Task, error) {
	var d directives
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Metadata:         &md,
		Result:           &d,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid task directive: %w", err)
	}

	task := &Task{
		Name:         d.Name,
		Register:     d.Register,
		LoopVar:      d.LoopVar,
		IgnoreErrors: d.IgnoreErrors,
		Retries:      d.Retries,
		Delay:        d.Delay,
		Params:       make(map[string]any),
	}
	if d.When != nil {
		task.When = cast.ToString(d.When)
	}

	switch n := d.Notify.(type) {
	case nil:
	case string:
		task.Notify = []string{n}
	case []any:
		for _, item := range n {
			task.Notify = append(task.Notify, cast.ToString(item))
		}
	default:
		return nil, fmt.Errorf("notify must be a handler name or a list of names")
	}

	loop := d.Loop
	if loop == nil {
		loop = d.WithItems
	}
	switch items := loop.(type) {
	case nil:
	case []any:
		task.Loop = items
	case string:
		task.LoopExpr = items
	default:
		return nil, fmt.Errorf("loop must be a list or an expression")
	}

	modules := md.Unused
	sort.Strings(modules)
	if len(modules) > 1 {
		return nil, fmt.Errorf("multiple modules specified: %s", strings.Join(modules, " and "))
	}
	if len(modules) == 1 {
		task.Module = modules[0]
		switch params := raw[task.Module].(type) {
		case map[string]any:
			task.Params = params
		case nil:
		default:
			task.Params = expandShorthand(task.Module, cast.ToString(params))
		}
	}
	return task, nil
}

// expandShorthand turns a bare module argument into parameters. Console
// commands are kept whole. Other modules split "k=v k2=v2" pairs, and a
// plain value fills the module's shorthand parameter.
func expandShorthand(mod, raw string) map[string]any {
	if mod == "console" || !strings.Contains(raw, "=") {
		key, ok := shorthandParam[mod]
		if !ok {
			key = "name"
		}
		return map[string]any{key: raw}
	}

	params := make(map[string]any)
	for _, field := range strings.Fields(raw) {
		k, v, ok := strings.Cut(field, "=")
		if ok && k != "" {
			params[k] = strings.Trim(v, `"'`)
		}
	}
	return params
}
