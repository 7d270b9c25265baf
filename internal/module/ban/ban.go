// Package ban provides a module for banning accounts, characters and
// addresses.
package ban

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

// Module manages bans.
type Module struct{}

// Name implements module.Module.
func (m *Module) Name() string {
	return "ban"
}

// Run executes the ban module.
//
// Parameters:
//   - action (string): ban, unban, info or list (default: ban)
//   - kind (string, required): account, character or ip
//   - target (string): What to ban; required except for list
//   - duration (string): Ban length such as "1d2h" (default: permanent)
//   - reason (string): Ban reason, required for ban
//   - filter (string): Name filter for list
func (m *Module) Run(ctx context.Context, conn connector.Connector, params map[string]any) (*module.Result, error) {
	action, err := module.GetChoice(params, "action", "ban", "ban", "unban", "info", "list")
	if err != nil {
		return nil, err
	}
	kind, err := module.RequireChoice(params, "kind",
		string(catalog.BanAccount), string(catalog.BanCharacter), string(catalog.BanIP))
	if err != nil {
		return nil, err
	}
	c := module.Console(conn)
	bk := catalog.BanKind(kind)

	if action == "list" {
		out, err := c.BanList(ctx, bk, module.GetString(params, "filter", ""))
		if err != nil {
			return nil, err
		}
		return module.Observed("ban list", map[string]any{"output": out}), nil
	}

	target, err := module.RequireString(params, "target")
	if err != nil {
		return nil, err
	}

	switch action {
	case "info":
		out, err := c.BanInfo(ctx, bk, target)
		if err != nil {
			return nil, err
		}
		return module.Observed(fmt.Sprintf("ban info for %s %s", kind, target), map[string]any{"output": out}), nil

	case "unban":
		v, err := c.Unban(ctx, bk, target)
		if err != nil {
			return nil, err
		}
		return module.FromVerdict("unban "+kind, fmt.Sprintf("unbanned %s %s", kind, target), v)
	}

	reason, err := module.RequireString(params, "reason")
	if err != nil {
		return nil, err
	}
	duration := module.GetString(params, "duration", "")
	v, err := c.Ban(ctx, bk, target, duration, reason)
	if err != nil {
		return nil, err
	}
	if duration == "" {
		duration = "permanently"
	}
	return module.FromVerdict("ban "+kind, fmt.Sprintf("banned %s %s (%s)", kind, target, duration), v)
}

var _ module.Module = (*Module)(nil)
