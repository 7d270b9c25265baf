// Package character provides a module for managing characters.
package character

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

// Module manages characters.
type Module struct{}

// Name implements module.Module.
func (m *Module) Name() string {
	return "character"
}

// Run executes the character module.
//
// Parameters:
//   - action (string, required): delete, kick, rename, level, info or lookup
//   - name (string): Character name; required except for lookup
//   - level (int): New level for level
//   - by (string): name, email or ip for lookup (default: name)
//   - value (string): Lookup value
//   - limit (int): Maximum lookup results (default: 100)
func (m *Module) Run(ctx context.Context, conn connector.Connector, params map[string]any) (*module.Result, error) {
	action, err := module.RequireChoice(params, "action", "delete", "kick", "rename", "level", "info", "lookup")
	if err != nil {
		return nil, err
	}
	c := module.Console(conn)

	if action == "lookup" {
		by, err := module.GetChoice(params, "by", string(catalog.ByName),
			string(catalog.ByName), string(catalog.ByEmail), string(catalog.ByIP))
		if err != nil {
			return nil, err
		}
		value, err := module.RequireString(params, "value")
		if err != nil {
			return nil, err
		}
		limit, err := module.GetInt(params, "limit", 100)
		if err != nil {
			return nil, err
		}
		out, err := c.LookupCharacters(ctx, catalog.SearchBy(by), value, limit)
		if err != nil {
			return nil, err
		}
		return module.Observed("character lookup", map[string]any{
			"output": out,
			"found":  out != "",
		}), nil
	}

	name, err := module.RequireString(params, "name")
	if err != nil {
		return nil, err
	}

	var out string
	switch action {
	case "delete":
		v, err := c.DeleteCharacter(ctx, name)
		if err != nil {
			return nil, err
		}
		return module.FromVerdict("character erase", fmt.Sprintf("character %s deleted", name), v)

	case "info":
		if out, err = c.CharacterInfo(ctx, name); err != nil {
			return nil, err
		}
		return module.Observed("character info", map[string]any{"output": out}), nil

	case "kick":
		out, err = c.KickCharacter(ctx, name)

	case "rename":
		out, err = c.RenameCharacter(ctx, name)

	case "level":
		level, lerr := module.RequireInt(params, "level")
		if lerr != nil {
			return nil, lerr
		}
		out, err = c.SetCharacterLevel(ctx, name, level)
	}
	if err != nil {
		return nil, err
	}
	return module.Changed(fmt.Sprintf("character %s: %s", name, action), map[string]any{"output": out}), nil
}

var _ module.Module = (*Module)(nil)
