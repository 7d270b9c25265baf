// Package module holds the runbook modules' contract and registry. A
// module turns task parameters into catalog calls on one console.
package module

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/eugenetaranov/mangosctl/internal/catalog"
	"github.com/eugenetaranov/mangosctl/internal/connector"
	"github.com/eugenetaranov/mangosctl/internal/parse"
)

// Module is one runbook task type, e.g. "account" or "server".
type Module interface {
	Name() string
	Run(ctx context.Context, conn connector.Connector, params map[string]any) (*Result, error)
}

// Result is what a task registers. Data always carries the console
// "output" when a command was sent.
type Result struct {
	Changed bool
	Message string
	Data    map[string]any
}

// Changed reports a command that altered server state.
func Changed(msg string, data map[string]any) *Result {
	return &Result{Changed: true, Message: msg, Data: data}
}

// Observed reports a query, or a command whose effect is unknown.
func Observed(msg string, data map[string]any) *Result {
	return &Result{Message: msg, Data: data}
}

type registry struct {
	mu   sync.RWMutex
	mods map[string]Module
}

var modules = &registry{mods: make(map[string]Module)}

// Register makes m available to runbooks. Modules call it from init; a
// second module with the same name panics.
func Register(m Module) {
	modules.mu.Lock()
	defer modules.mu.Unlock()

	if _, dup := modules.mods[m.Name()]; dup {
		panic(fmt.Sprintf("module %q is already registered", m.Name()))
	}
	modules.mods[m.Name()] = m
}

// Get returns the named module, or nil.
func Get(name string) Module {
	modules.mu.RLock()
	defer modules.mu.RUnlock()
	return modules.mods[name]
}

// List returns the registered module names in order.
func List() []string {
	modules.mu.RLock()
	names := make([]string, 0, len(modules.mods))
	for name := range modules.mods {
		names = append(names, name)
	}
	modules.mu.RUnlock()

	sort.Strings(names)
	return names
}

// OutcomeError reports a command the console refused, e.g. creating an
// account that already exists. The session is still usable.
type OutcomeError struct {
	Command string
	Matched string
	Output  string
}

func (e *OutcomeError) Error() string {
	var b strings.Builder
	b.WriteString("console refused ")
	b.WriteString(e.Command)
	if e.Matched != "" {
		fmt.Fprintf(&b, " (%q)", e.Matched)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		b.WriteString(": ")
		b.WriteString(out)
	}
	return b.String()
}

// FromVerdict maps a sentinel verdict onto a task result: Success is a
// change, Failure an *OutcomeError, and Unknown an unchanged result whose
// data still carries the reply.
func FromVerdict(command, msg string, v parse.Verdict) (*Result, error) {
	if v.Outcome == parse.Failure {
		return nil, &OutcomeError{Command: command, Matched: v.Matched, Output: v.Raw}
	}

	data := map[string]any{
		"output":  strings.TrimSpace(v.Raw),
		"outcome": v.Outcome.String(),
	}
	if v.Outcome == parse.Success {
		return Changed(msg, data), nil
	}
	return Observed(command+": outcome not recognised", data), nil
}

// Console returns a catalog that sends its commands through conn.
func Console(conn connector.Connector) *catalog.Catalog {
	return catalog.New(catalog.ExecutorFunc(func(ctx context.Context, cmd string) (string, error) {
		res, err := conn.Execute(ctx, cmd)
		if err != nil {
			return "", err
		}
		return res.Output, nil
	}))
}
