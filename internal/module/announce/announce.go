// Package announce provides a module for broadcasting to players.
package announce

import (
	"context"

	"github.com/eugenetaranov/mangosctl/internal/connector"
	"github.com/eugenetaranov/mangosctl/internal/module"
)

func init() {
	module.Register(&Module{})
}

// Module broadcasts a message to every online player.
type Module struct{}

// Name implements module.Module.
func (m *Module) Name() string {
	return "announce"
}

// Run executes the announce module.
//
// Parameters:
//   - message (string, required): Text to broadcast
//   - notify (bool): Show an on-screen notification instead of chat (default: false)
func (m *Module) Run(ctx context.Context, conn connector.Connector, params map[string]any) (*module.Result, error) {
	msg, err := module.RequireString(params, "message")
	if err != nil {
		return nil, err
	}
	notify, err := module.GetBool(params, "notify", false)
	if err != nil {
		return nil, err
	}

	c := module.Console(conn)
	var out string
	if notify {
		out, err = c.Notify(ctx, msg)
	} else {
		out, err = c.Announce(ctx, msg)
	}
	if err != nil {
		return nil, err
	}
	return module.Changed("announced", map[string]any{
		"message": msg,
		"output":  out,
	}), nil
}

var _ module.Module = (*Module)(nil)
