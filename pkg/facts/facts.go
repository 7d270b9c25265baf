// Package facts gathers server information from a console.
package facts

import (
	"context"

	"github.com/eugenetaranov/mangosctl/internal/catalog"
	"github.com/eugenetaranov/mangosctl/internal/connector"
	"github.com/eugenetaranov/mangosctl/internal/console"
)

// Gather collects server facts through conn. Replies that cannot be parsed
// are skipped; an error is returned only when the session itself fails.
func Gather(ctx context.Context, conn connector.Connector) (map[string]any, error) {
	facts := map[string]any{
		"console": conn.String(),
	}
	c := catalog.New(catalog.ExecutorFunc(func(ctx context.Context, cmd string) (string, error) {
		res, err := conn.Execute(ctx, cmd)
		if err != nil {
			return "", err
		}
		return res.Output, nil
	}))

	info, err := c.ServerInfo(ctx)
	switch {
	case err == nil:
		gatherServerInfo(facts, info)
	case console.IsFatal(err) || ctx.Err() != nil:
		return nil, err
	}

	limits, err := c.PlayerLimits(ctx)
	switch {
	case err == nil:
		gatherPlayerLimits(facts, limits)
	case console.IsFatal(err) || ctx.Err() != nil:
		return nil, err
	}

	return facts, nil
}

func gatherServerInfo(facts map[string]any, info *catalog.ServerInfo) {
	if info.Revision != "" {
		facts["revision"] = info.Revision
	}
	facts["players_online"] = info.Players.Online
	facts["players_max"] = info.Players.Max
	facts["players_queued"] = info.Players.Queued
	if info.Uptime != "" {
		facts["uptime"] = info.Uptime
	}
}

func gatherPlayerLimits(facts map[string]any, limits *catalog.PlayerLimits) {
	facts["player_limit"] = limits.Amount
	facts["security_level"] = limits.SecurityLevel
	facts["allowed_to_login"] = limits.AllowedToLogin
}
