// Package console provides a module for running raw console commands.
package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/eugenetaranov/mangosctl/internal/connector"
	"github.com/eugenetaranov/mangosctl/internal/module"
	"github.com/eugenetaranov/mangosctl/internal/parse"
)

func init() {
	module.Register(&Module{})
}

// Module runs a command line verbatim.
type Module struct{}

// Name implements module.Module.
func (m *Module) Name() string {
	return "console"
}

// Run executes the console module.
//
// Parameters:
//   - cmd (string, required): The command line to send
//   - expect (string or list): Phrases that mark the reply as a success
//   - reject (string or list): Phrases that mark the reply as a failure
//   - changed (bool): Report the task as changed (default: true)
//
// With expect set, a reply matching none of the phrases fails the task.
func (m *Module) Run(ctx context.Context, conn connector.Connector, params map[string]any) (*module.Result, error) {
	cmd, err := module.RequireString(params, "cmd")
	if err != nil {
		return nil, err
	}
	expect, err := module.GetStrings(params, "expect")
	if err != nil {
		return nil, err
	}
	reject, err := module.GetStrings(params, "reject")
	if err != nil {
		return nil, err
	}
	changed, err := module.GetBool(params, "changed", true)
	if err != nil {
		return nil, err
	}

	result, err := conn.Execute(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to execute command: %w", err)
	}

	if len(expect) > 0 || len(reject) > 0 {
		rule := parse.SentinelRule{
			Command: cmd,
			Success: expect,
			Failure: reject,
			Default: parse.Success,
		}
		if len(expect) > 0 {
			rule.Default = parse.Failure
		}
		res, err := module.FromVerdict(cmd, "command accepted", parse.ParseSentinel(result.Output, rule))
		if err != nil {
			return nil, err
		}
		res.Changed = res.Changed && changed
		res.Data["cmd"] = cmd
		return res, nil
	}

	data := map[string]any{
		"cmd":    cmd,
		"output": strings.TrimSpace(result.Output),
		"lines":  lines(result.Output),
	}
	if !changed {
		return module.Observed("command executed", data), nil
	}
	return module.Changed("command executed", data), nil
}

func lines(out string) []any {
	var ls []any
	for _, l := range strings.Split(out, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			ls = append(ls, l)
		}
	}
	return ls
}

var _ module.Module = (*Module)(nil)
