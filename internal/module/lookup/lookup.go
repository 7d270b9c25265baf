// Package lookup provides a module for searching game data and inspecting
// the auction houses.
package lookup

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

// Module searches game data by name.
type Module struct{}

// Name implements module.Module.
func (m *Module) Name() string {
	return "lookup"
}

// Run executes the lookup module.
//
// Parameters:
//   - kind (string, required): One of catalog.LookupKinds, or auction or ahbot
//   - text (string): Search text; required for catalog kinds
//   - faction (string): alliance, horde or goblin for auction
//   - action (string): status, reload or rebuild for ahbot (default: status)
//   - all (bool): Include every auction house for ahbot status and rebuild
func (m *Module) Run(ctx context.Context, conn connector.Connector, params map[string]any) (*module.Result, error) {
	kinds := append([]string{"auction", "ahbot"}, catalog.LookupKinds...)
	kind, err := module.RequireChoice(params, "kind", kinds...)
	if err != nil {
		return nil, err
	}
	c := module.Console(conn)

	switch kind {
	case "auction":
		faction, err := module.RequireChoice(params, "faction",
			string(catalog.Alliance), string(catalog.Horde), string(catalog.Goblin))
		if err != nil {
			return nil, err
		}
		out, err := c.AuctionHouse(ctx, catalog.Faction(faction))
		if err != nil {
			return nil, err
		}
		return module.Observed(faction+" auction house", map[string]any{"output": out}), nil

	case "ahbot":
		return ahbot(ctx, c, params)
	}

	text, err := module.RequireString(params, "text")
	if err != nil {
		return nil, err
	}
	out, err := c.Lookup(ctx, kind, text)
	if err != nil {
		return nil, err
	}
	return module.Observed(fmt.Sprintf("lookup %s %q", kind, text), map[string]any{"output": out}), nil
}

func ahbot(ctx context.Context, c *catalog.Catalog, params map[string]any) (*module.Result, error) {
	action, err := module.GetChoice(params, "action", "status", "status", "reload", "rebuild")
	if err != nil {
		return nil, err
	}
	all, err := module.GetBool(params, "all", false)
	if err != nil {
		return nil, err
	}

	var out string
	switch action {
	case "status":
		if out, err = c.AHBotStatus(ctx, all); err != nil {
			return nil, err
		}
		return module.Observed("auction bot status", map[string]any{"output": out}), nil
	case "reload":
		out, err = c.AHBotReload(ctx)
	case "rebuild":
		out, err = c.AHBotRebuild(ctx, all)
	}
	if err != nil {
		return nil, err
	}
	return module.Changed("auction bot "+action, map[string]any{"output": out}), nil
}

var _ module.Module = (*Module)(nil)
