// Package server provides a module for world server administration.
package server

import (
	"context"
	"fmt"

	"github.com/eugenetaranov/mangosctl/internal/catalog"
	"github.com/eugenetaranov/mangosctl/internal/connector"
	"github.com/eugenetaranov/mangosctl/internal/module"
)

func init() {
	module.Register(&Module{})
}

// Module administers the world server.
type Module struct{}

// Name implements module.Module.
func (m *Module) Name() string {
	return "server"
}

// Actions understood by the module.
var Actions = []string{
	"info", "limits", "set_limit", "restrict",
	"shutdown", "restart", "cancel_shutdown", "cancel_restart",
	"save", "motd", "set_motd", "reload",
}

// Run executes the server module.
//
// Parameters:
//   - action (string, required): One of Actions
//   - delay (int): Seconds before shutdown or restart (default: 0)
//   - amount (int): Player limit for set_limit
//   - level (string): player, moderator, gamemaster, administrator or reset for restrict
//   - message (string): Text for set_motd
//   - table (string): What to reload (default: all)
func (m *Module) Run(ctx context.Context, conn connector.Connector, params map[string]any) (*module.Result, error) {
	action, err := module.RequireChoice(params, "action", Actions...)
	if err != nil {
		return nil, err
	}
	c := module.Console(conn)

	switch action {
	case "info":
		info, err := c.ServerInfo(ctx)
		if err != nil {
			return nil, err
		}
		return module.Observed(fmt.Sprintf("%d players online", info.Players.Online), map[string]any{
			"revision": info.Revision,
			"uptime":   info.Uptime,
			"online":   info.Players.Online,
			"max":      info.Players.Max,
			"queued":   info.Players.Queued,
		}), nil

	case "limits":
		limits, err := c.PlayerLimits(ctx)
		if err != nil {
			return nil, err
		}
		return limitsResult(false, limits)

	case "set_limit":
		amount, err := module.RequireInt(params, "amount")
		if err != nil {
			return nil, err
		}
		limits, err := c.SetPlayerLimit(ctx, amount)
		if err != nil {
			return nil, err
		}
		return limitsResult(true, limits)

	case "restrict":
		level, err := module.RequireChoice(params, "level",
			string(catalog.LimitPlayer), string(catalog.LimitModerator), string(catalog.LimitGamemaster),
			string(catalog.LimitAdministrator), string(catalog.LimitReset))
		if err != nil {
			return nil, err
		}
		limits, err := c.RestrictLogins(ctx, catalog.LimitLevel(level))
		if err != nil {
			return nil, err
		}
		return limitsResult(true, limits)

	case "motd":
		out, err := c.MOTD(ctx)
		if err != nil {
			return nil, err
		}
		return module.Observed("message of the day", map[string]any{"output": out}), nil
	}

	var out string
	switch action {
	case "shutdown", "restart":
		delay, derr := module.GetInt(params, "delay", 0)
		if derr != nil {
			return nil, derr
		}
		if delay < 0 {
			return nil, fmt.Errorf("parameter 'delay' cannot be negative")
		}
		if action == "shutdown" {
			out, err = c.Shutdown(ctx, delay)
		} else {
			out, err = c.Restart(ctx, delay)
		}
	case "cancel_shutdown":
		out, err = c.CancelShutdown(ctx)
	case "cancel_restart":
		out, err = c.CancelRestart(ctx)
	case "save":
		out, err = c.SaveAll(ctx)
	case "set_motd":
		msg, merr := module.RequireString(params, "message")
		if merr != nil {
			return nil, merr
		}
		out, err = c.SetMOTD(ctx, msg)
	case "reload":
		out, err = c.Reload(ctx, module.GetString(params, "table", "all"))
	}
	if err != nil {
		return nil, err
	}
	return module.Changed("server "+action, map[string]any{"output": out}), nil
}

func limitsResult(changed bool, limits *catalog.PlayerLimits) (*module.Result, error) {
	data, err := module.Fields(*limits)
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("player limit %d, security level %s", limits.Amount, limits.SecurityLevel)
	if changed {
		return module.Changed(msg, data), nil
	}
	return module.Observed(msg, data), nil
}

var _ module.Module = (*Module)(nil)
