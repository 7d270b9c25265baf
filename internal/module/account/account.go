// Package account provides a module for managing game accounts.
package account

import (
	"context"
	"fmt"

	"github.com/eugenetaranov/mangosctl/internal/catalog"
	"github.com/eugenetaranov/mangosctl/internal/connector"
	"github.com/eugenetaranov/mangosctl/internal/module"
	"github.com/eugenetaranov/mangosctl/internal/parse"
)

func init() {
	module.Register(&Module{})
}

// Module manages accounts.
type Module struct{}

// Name implements module.Module.
func (m *Module) Name() string {
	return "account"
}

// Actions understood by the module.
var Actions = []string{"create", "password", "addon", "gmlevel", "delete", "online", "characters", "search"}

// Run executes the account module.
//
// Parameters:
//   - action (string, required): One of Actions
//   - username (string): Account name; required except for online and search
//   - password (string): For create and password
//   - addon (int): Expansion level for addon, 0 or more
//   - level (int): Security level for gmlevel, 0 to 3
//   - by (string): name, email or ip for search (default: name)
//   - value (string): Search value
//   - limit (int): Maximum search results (default: 100)
func (m *Module) Run(ctx context.Context, conn connector.Connector, params map[string]any) (*module.Result, error) {
	action, err := module.RequireChoice(params, "action", Actions...)
	if err != nil {
		return nil, err
	}
	c := module.Console(conn)

	switch action {
	case "online":
		accounts, err := c.OnlineAccounts(ctx)
		if err != nil {
			return nil, err
		}
		return listed("online", accounts)

	case "search":
		by := catalog.SearchBy(module.GetString(params, "by", string(catalog.ByName)))
		value, err := module.RequireString(params, "value")
		if err != nil {
			return nil, err
		}
		limit, err := module.GetInt(params, "limit", 100)
		if err != nil {
			return nil, err
		}
		accounts, err := c.SearchAccounts(ctx, by, value, limit)
		if err != nil {
			return nil, err
		}
		return listed("matching", accounts)
	}

	user, err := module.RequireString(params, "username")
	if err != nil {
		return nil, err
	}

	var v parse.Verdict
	switch action {
	case "characters":
		chars, err := c.AccountCharacters(ctx, user)
		if err != nil {
			return nil, err
		}
		rows, err := module.Rows(chars)
		if err != nil {
			return nil, err
		}
		return module.Observed(fmt.Sprintf("%d characters on %s", len(chars), user), map[string]any{
			"characters": rows,
			"count":      len(chars),
		}), nil

	case "create", "password":
		pass, err := module.RequireString(params, "password")
		if err != nil {
			return nil, err
		}
		if action == "create" {
			v, err = c.CreateAccount(ctx, user, pass)
		} else {
			v, err = c.SetPassword(ctx, user, pass)
		}
		if err != nil {
			return nil, err
		}

	case "addon":
		addon, err := module.RequireInt(params, "addon")
		if err != nil {
			return nil, err
		}
		if v, err = c.SetAddon(ctx, user, addon); err != nil {
			return nil, err
		}

	case "gmlevel":
		level, err := module.RequireInt(params, "level")
		if err != nil {
			return nil, err
		}
		if v, err = c.SetGMLevel(ctx, user, level); err != nil {
			return nil, err
		}

	case "delete":
		if v, err = c.DeleteAccount(ctx, user); err != nil {
			return nil, err
		}
	}

	return module.FromVerdict("account "+action, fmt.Sprintf("account %s: %s", user, action), v)
}

func listed(what string, accounts []catalog.Account) (*module.Result, error) {
	rows, err := module.Rows(accounts)
	if err != nil {
		return nil, err
	}
	return module.Observed(fmt.Sprintf("%d %s accounts", len(accounts), what), map[string]any{
		"accounts": rows,
		"count":    len(accounts),
	}), nil
}

var _ module.Module = (*Module)(nil)
