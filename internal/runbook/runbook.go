// Package runbook holds the runbook model: plays of console tasks, their
// handlers, and the checks a runbook must pass before it runs.
package runbook

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/eugenetaranov/mangosctl/internal/module"
)

// DefaultConsole is the config profile used when a play names none.
const DefaultConsole = "default"

// Runbook is a parsed runbook file.
type Runbook struct {
	Path  string
	Plays []*Play
}

// Play is a list of tasks run over one console session.
type Play struct {
	Name    string
	Console string // config profile; empty means DefaultConsole
	Vars    map[string]any

	Tasks    []*Task
	Handlers []*Task // run once at the end of the play when notified

	// GatherFacts reads server info and player limits before the first
	// task and exposes them as "facts".
	GatherFacts bool
}

// Task is one module invocation plus its control directives.
type Task struct {
	Name   string
	Module string
	Params map[string]any

	When     string
	Register string
	Notify   []string

	// Loop is a literal item list; LoopExpr a "{{ }}" expression that
	// yields one at run time. At most one is set.
	Loop     []any
	LoopExpr string
	LoopVar  string

	IgnoreErrors bool
	Retries      int
	Delay        int // seconds between retries
}

// GetConsole returns the play's console profile.
func (p *Play) GetConsole() string {
	if p.Console == "" {
		return DefaultConsole
	}
	return p.Console
}

// GetLoopVar returns the name the current loop item is bound to.
func (t *Task) GetLoopVar() string {
	if t.LoopVar == "" {
		return "item"
	}
	return t.LoopVar
}

// HasLoop reports whether the task iterates.
func (t *Task) HasLoop() bool {
	return len(t.Loop) > 0 || t.LoopExpr != ""
}

// Validate reports every problem found in the play, joined.
func (p *Play) Validate() error {
	var errs []error
	if len(p.Tasks) == 0 {
		errs = append(errs, errors.New("play has no tasks"))
	}

	for i, task := range p.Tasks {
		if err := task.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", label(task, "task", i), err))
		}
	}

	handlers := make(map[string]bool, len(p.Handlers))
	for i, h := range p.Handlers {
		if h.Name == "" {
			errs = append(errs, fmt.Errorf("handler %d: handlers must have a name for notify to reference", i+1))
		}
		if err := h.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", label(h, "handler", i), err))
		}
		handlers[h.Name] = true
	}

	for i, task := range p.Tasks {
		for _, name := range task.Notify {
			if !handlers[name] {
				errs = append(errs, fmt.Errorf("%s: notifies unknown handler %q", label(task, "task", i), name))
			}
		}
	}

	return errors.Join(errs...)
}

func label(t *Task, kind string, i int) string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("%s %d", kind, i+1)
}

// Validate checks the module exists and the retry settings are sane.
func (t *Task) Validate() error {
	var errs []error
	switch {
	case t.Module == "":
		errs = append(errs, errors.New("no module specified"))
	case module.Get(t.Module) == nil:
		errs = append(errs, fmt.Errorf("unknown module '%s' (available: %s)", t.Module, strings.Join(module.List(), ", ")))
	}
	if t.Retries < 0 {
		errs = append(errs, errors.New("retries cannot be negative"))
	}
	if t.Delay < 0 {
		errs = append(errs, errors.New("delay cannot be negative"))
	}
	if len(t.Loop) > 0 && t.LoopExpr != "" {
		errs = append(errs, errors.New("loop and loop expression are exclusive"))
	}
	return errors.Join(errs...)
}

// String names the task for progress output. Unnamed tasks show their
// module and up to three parameters with secrets hidden.
func (t *Task) String() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Module + ": " + summarize(t.Params)
}

// secretParams are never shown in task summaries.
var secretParams = map[string]bool{"password": true, "pass": true}

const (
	summaryParams = 3
	summaryWidth  = 30
)

func summarize(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, summaryParams+1)
	for i, k := range keys {
		if i == summaryParams {
			parts = append(parts, "...")
			break
		}
		s, isText := params[k].(string)
		switch {
		case secretParams[k]:
			parts = append(parts, k+`="***"`)
		case isText:
			if len(s) > summaryWidth {
				s = s[:summaryWidth-3] + "..."
			}
			parts = append(parts, fmt.Sprintf("%s=%q", k, s))
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", k, params[k]))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
