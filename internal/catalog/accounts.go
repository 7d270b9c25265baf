package catalog

import (
	"context"
	"fmt"

	"github.com/eugenetaranov/mangosctl/internal/parse"
)

// Account is one row of an account listing.
type Account struct {
	ID        int    `field:"id" json:"id"`
	Username  string `field:"username" json:"username"`
	Character string `field:"character" json:"character"`
	IP        string `field:"ip" json:"ip"`
	GMLevel   int    `field:"gm" json:"gm"`
	Expansion int    `field:"expansion" json:"expansion"`
}

// Character is one row of an account's character listing.
type Character struct {
	GUID  int    `field:"guid" json:"guid"`
	Name  string `field:"name" json:"name"`
	Race  string `field:"race" json:"race"`
	Class string `field:"class" json:"class"`
	Level int    `field:"level" json:"level"`
}

// Console tables are framed by a bar, a title row and a bar above the rows
// and a closing bar below them; the last line is the empty remainder after
// the final newline.
const (
	tableHeader = 3
	tableFooter = 2
)

// AccountSchema is the shape of "account onlinelist" and the
// "lookup account" family.
var AccountSchema = parse.Schema{
	Name: "account list",
	Fields: []parse.Field{
		{Name: "id", Kind: parse.Int},
		{Name: "username", Kind: parse.String},
		{Name: "character", Kind: parse.String},
		{Name: "ip", Kind: parse.String},
		{Name: "gm", Kind: parse.Int},
		{Name: "expansion", Kind: parse.Int},
	},
	HeaderLines: tableHeader,
	FooterLines: tableFooter,
}

// CharacterSchema is the shape of "account characters".
var CharacterSchema = parse.Schema{
	Name: "account characters",
	Fields: []parse.Field{
		{Name: "guid", Kind: parse.Int},
		{Name: "name", Kind: parse.String},
		{Name: "race", Kind: parse.String},
		{Name: "class", Kind: parse.String},
		{Name: "level", Kind: parse.Int},
	},
	HeaderLines: tableHeader,
	FooterLines: tableFooter,
}

// SearchBy selects the lookup key for account and character searches.
type SearchBy string

const (
	ByName  SearchBy = "name"
	ByEmail SearchBy = "email"
	ByIP    SearchBy = "ip"
)

// Account sentinel rules. An existing name is the only reply that marks
// "account create" as failed.
var (
	createAccountRule = parse.SentinelRule{
		Command: "account create",
		Failure: []string{"Account with this name already exist"},
		Default: parse.Success,
	}
	setPasswordRule = parse.SentinelRule{
		Command: "account set password",
		Success: []string{"The password was changed"},
		Default: parse.Failure,
	}
	setGMLevelRule = parse.SentinelRule{
		Command: "account set gmlevel",
		Success: []string{"You change security level of account "},
		Default: parse.Failure,
	}
	deleteAccountRule = parse.SentinelRule{
		Command: "account delete",
		Success: []string{"Account deleted:"},
		Default: parse.Failure,
	}
)

func setAddonRule(addon int) parse.SentinelRule {
	return parse.SentinelRule{
		Command: "account set addon",
		Success: []string{fmt.Sprintf("has been granted %d expansion rights.", addon)},
		Default: parse.Failure,
	}
}

func onlineAccountsCmd() string { return line("account", "onlinelist") }

func accountCharactersCmd(user string) string { return line("account", "characters", user) }

func createAccountCmd(user, pass string) string { return line("account", "create", user, pass) }

// The console asks for the new password twice.
func setPasswordCmd(user, pass string) string {
	return line("account", "set", "password", user, pass, pass)
}

func setAddonCmd(user string, addon int) string {
	return line("account", "set", "addon", user, itoa(addon))
}

func setGMLevelCmd(user string, level int) string {
	return line("account", "set", "gmlevel", user, itoa(level))
}

func deleteAccountCmd(user string) string { return line("account", "delete", user) }

func searchAccountsCmd(by SearchBy, value string, limit int) string {
	return line("lookup", "account", string(by), value, itoa(limit))
}

// OnlineAccounts lists accounts with a character in the world.
func (c *Catalog) OnlineAccounts(ctx context.Context) ([]Account, error) {
	var out []Account
	if err := c.table(ctx, onlineAccountsCmd(), AccountSchema, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AccountCharacters lists the characters of one account.
func (c *Catalog) AccountCharacters(ctx context.Context, user string) ([]Character, error) {
	var out []Character
	if err := c.table(ctx, accountCharactersCmd(user), CharacterSchema, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchAccounts runs "lookup account" by name, email or IP.
func (c *Catalog) SearchAccounts(ctx context.Context, by SearchBy, value string, limit int) ([]Account, error) {
	var out []Account
	if err := c.table(ctx, searchAccountsCmd(by, value, limit), AccountSchema, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAccount creates an account.
func (c *Catalog) CreateAccount(ctx context.Context, user, pass string) (parse.Verdict, error) {
	return c.sentinel(ctx, createAccountCmd(user, pass), createAccountRule)
}

// SetPassword changes an account's password.
func (c *Catalog) SetPassword(ctx context.Context, user, pass string) (parse.Verdict, error) {
	return c.sentinel(ctx, setPasswordCmd(user, pass), setPasswordRule)
}

// MaxGMLevel is the highest security level an account can be given
// (administrator).
const MaxGMLevel = 3

// SetAddon sets the expansion an account may play. A negative addon is
// rejected without sending anything.
func (c *Catalog) SetAddon(ctx context.Context, user string, addon int) (parse.Verdict, error) {
	if addon < 0 {
		return parse.Verdict{}, &ArgumentError{Command: "account set addon", Arg: "addon", Reason: fmt.Sprintf("must not be negative, got %d", addon)}
	}
	return c.sentinel(ctx, setAddonCmd(user, addon), setAddonRule(addon))
}

// SetGMLevel sets an account's security level, 0 to MaxGMLevel. Levels
// outside that range are rejected without sending anything.
func (c *Catalog) SetGMLevel(ctx context.Context, user string, level int) (parse.Verdict, error) {
	if level < 0 || level > MaxGMLevel {
		return parse.Verdict{}, &ArgumentError{Command: "account set gmlevel", Arg: "level", Reason: fmt.Sprintf("must be between 0 and %d, got %d", MaxGMLevel, level)}
	}
	return c.sentinel(ctx, setGMLevelCmd(user, level), setGMLevelRule)
}

// DeleteAccount deletes an account and its characters.
func (c *Catalog) DeleteAccount(ctx context.Context, user string) (parse.Verdict, error) {
	return c.sentinel(ctx, deleteAccountCmd(user), deleteAccountRule)
}
