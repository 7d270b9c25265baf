// Package mail provides a module for in-game mail and messages.
package mail

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/eugenetaranov/mangosctl/internal/catalog"
	"github.com/eugenetaranov/mangosctl/internal/connector"
	"github.com/eugenetaranov/mangosctl/internal/module"
	"github.com/eugenetaranov/mangosctl/internal/parse"
)

func init() {
	module.Register(&Module{})
}

// Module sends mail to characters.
type Module struct{}

// Name implements module.Module.
func (m *Module) Name() string {
	return "mail"
}

// Run executes the mail module.
//
// Parameters:
//   - to (string): Recipient character
//   - mask (string): Mass mail to "all", "alliance", "horde", a race, or "#racemask"
//   - subject (string): Mail subject
//   - body (string): Mail text
//   - money (int): Copper to attach
//   - items (list): Item stacks, as {id, count} maps or "id:count" strings
//   - message (string): Send an on-screen message to "to" instead of mail
//
// Exactly one of to and mask is required. money and items are mutually
// exclusive.
func (m *Module) Run(ctx context.Context, conn connector.Connector, params map[string]any) (*module.Result, error) {
	to := module.GetString(params, "to", "")
	mask := module.GetString(params, "mask", "")
	switch {
	case to == "" && mask == "":
		return nil, fmt.Errorf("one of parameters 'to' and 'mask' is required")
	case to != "" && mask != "":
		return nil, fmt.Errorf("parameters 'to' and 'mask' are mutually exclusive")
	}
	c := module.Console(conn)

	if msg := module.GetString(params, "message", ""); msg != "" {
		if to == "" {
			return nil, fmt.Errorf("parameter 'message' needs a recipient in 'to'")
		}
		out, err := c.SendMessage(ctx, to, msg)
		if err != nil {
			return nil, err
		}
		return module.Changed("message sent to "+to, map[string]any{"output": out}), nil
	}

	subject := module.GetString(params, "subject", "")
	body := module.GetString(params, "body", "")
	money, err := module.GetInt(params, "money", 0)
	if err != nil {
		return nil, err
	}
	items, err := decodeItems(params["items"])
	if err != nil {
		return nil, err
	}
	if money > 0 && len(items) > 0 {
		return nil, fmt.Errorf("parameters 'money' and 'items' are mutually exclusive")
	}

	if mask != "" {
		var v parse.Verdict
		switch {
		case len(items) > 0:
			v, err = c.SendMassItems(ctx, mask, subject, body, items)
		case money > 0:
			v, err = c.SendMassMoney(ctx, mask, subject, body, money)
		default:
			v, err = c.SendMassMail(ctx, mask, subject, body)
		}
		if err != nil {
			return nil, err
		}
		return module.FromVerdict("send mass mail", "mass mail sent to "+mask, v)
	}

	var v parse.Verdict
	switch {
	case len(items) > 0:
		v, err = c.SendItems(ctx, to, subject, body, items)
	case money > 0:
		v, err = c.SendMoney(ctx, to, subject, body, money)
	default:
		v, err = c.SendMail(ctx, to, subject, body)
	}
	if err != nil {
		return nil, err
	}
	return module.FromVerdict("send mail", "mail sent to "+to, v)
}

func decodeItems(raw any) ([]catalog.ItemStack, error) {
	if raw == nil {
		return nil, nil
	}
	var items []catalog.ItemStack
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       itemHook,
		WeaklyTypedInput: true,
		Result:           &items,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("parameter 'items': %w", err)
	}
	for _, it := range items {
		if it.ID <= 0 || it.Count <= 0 {
			return nil, fmt.Errorf("parameter 'items': invalid stack %s", it)
		}
	}
	return items, nil
}

// itemHook accepts "id:count" and bare "id" strings for item stacks.
func itemHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(catalog.ItemStack{}) {
		return data, nil
	}
	id, count, found := strings.Cut(strings.TrimSpace(data.(string)), ":")
	stack := catalog.ItemStack{Count: 1}
	var err error
	if stack.ID, err = strconv.Atoi(id); err != nil {
		return nil, fmt.Errorf("item %q: bad id", data)
	}
	if found {
		if stack.Count, err = strconv.Atoi(count); err != nil {
			return nil, fmt.Errorf("item %q: bad count", data)
		}
	}
	return stack, nil
}

var _ module.Module = (*Module)(nil)
