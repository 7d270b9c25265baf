// Package catalog builds console command lines and pairs each with the
// parser for its reply.
//
// Builders are pure string functions. Command lines end with a space
// before the newline that Execute appends, which the console tokenizer
// expects on multi-token commands. Typed methods reject security levels
// and expansions out of range and quoted text holding a double quote
// before anything is sent. Game data such as names or item IDs is left to
// the console.
package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/eugenetaranov/mangosctl/internal/parse"
)

// Executor runs one console command and returns its normalized reply.
// *console.Session satisfies it.
type Executor interface {
	Execute(ctx context.Context, command string) (string, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, command string) (string, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, command string) (string, error) {
	return f(ctx, command)
}

// Catalog issues typed commands through an Executor.
type Catalog struct {
	exec Executor
}

// New returns a Catalog that runs commands on exec.
func New(exec Executor) *Catalog {
	return &Catalog{exec: exec}
}

// Raw runs an arbitrary command line and returns the reply unparsed.
func (c *Catalog) Raw(ctx context.Context, command string) (string, error) {
	return c.exec.Execute(ctx, command)
}

// line joins tokens with single spaces and appends the trailing space.
func line(tokens ...string) string {
	var b strings.Builder
	for _, t := range tokens {
		if t == "" {
			continue
		}
		b.WriteString(t)
		b.WriteByte(' ')
	}
	return b.String()
}

func quote(s string) string {
	return `"` + s + `"`
}

// ArgumentError reports an argument the console cannot take. The command
// is not sent.
type ArgumentError struct {
	Command string
	Arg     string
	Reason  string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Command, e.Arg, e.Reason)
}

// checkQuotable rejects text bound for a quoted argument that holds a
// double quote. The console has no escape for one, so the quote would end
// the argument early. pairs are argument name and value.
func checkQuotable(command string, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.ContainsRune(pairs[i+1], '"') {
			return &ArgumentError{Command: command, Arg: pairs[i], Reason: "cannot contain a double quote"}
		}
	}
	return nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func (c *Catalog) sentinel(ctx context.Context, cmd string, rule parse.SentinelRule) (parse.Verdict, error) {
	out, err := c.exec.Execute(ctx, cmd)
	if err != nil {
		return parse.Verdict{}, err
	}
	return parse.ParseSentinel(out, rule), nil
}

func (c *Catalog) passthrough(ctx context.Context, cmd string) (string, error) {
	out, err := c.exec.Execute(ctx, cmd)
	if err != nil {
		return "", err
	}
	return parse.Passthrough(out), nil
}

func (c *Catalog) table(ctx context.Context, cmd string, schema parse.Schema, out any) error {
	reply, err := c.exec.Execute(ctx, cmd)
	if err != nil {
		return err
	}
	tbl, err := parse.ParseTable(reply, schema)
	if err != nil {
		return err
	}
	if err := tbl.Decode(out); err != nil {
		return fmt.Errorf("%s: %w", schema.Name, err)
	}
	return nil
}
