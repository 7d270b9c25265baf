package catalog

import (
	"context"

	"github.com/eugenetaranov/mangosctl/internal/parse"
)

// BanKind is what a ban applies to.
type BanKind string

const (
	BanAccount   BanKind = "account"
	BanCharacter BanKind = "character"
	BanIP        BanKind = "ip"
)

// PermanentBan is the duration token for a ban that never expires.
const PermanentBan = "-1"

var (
	banRule = parse.SentinelRule{
		Command: "ban",
		Success: []string{"is banned"},
		Failure: []string{"not found"},
		Default: parse.Unknown,
	}
	unbanRule = parse.SentinelRule{
		Command: "unban",
		Success: []string{"unbanned."},
		Failure: []string{"Error while unbanning"},
		Default: parse.Unknown,
	}
)

func banCmd(kind BanKind, target, duration, reason string) string {
	if duration == "" {
		duration = PermanentBan
	}
	return line("ban", string(kind), target, duration, reason)
}

func unbanCmd(kind BanKind, target string) string { return line("unban", string(kind), target) }

func banInfoCmd(kind BanKind, target string) string { return line("baninfo", string(kind), target) }

func banListCmd(kind BanKind, filter string) string { return line("banlist", string(kind), filter) }

// Ban bans an account, character or IP. duration uses the console's
// notation ("1d2h", "-1" for permanent); empty means permanent.
func (c *Catalog) Ban(ctx context.Context, kind BanKind, target, duration, reason string) (parse.Verdict, error) {
	return c.sentinel(ctx, banCmd(kind, target, duration, reason), banRule)
}

// Unban lifts a ban.
func (c *Catalog) Unban(ctx context.Context, kind BanKind, target string) (parse.Verdict, error) {
	return c.sentinel(ctx, unbanCmd(kind, target), unbanRule)
}

// BanInfo returns the ban history of one target as text.
func (c *Catalog) BanInfo(ctx context.Context, kind BanKind, target string) (string, error) {
	return c.passthrough(ctx, banInfoCmd(kind, target))
}

// BanList returns active bans, optionally filtered, as text.
func (c *Catalog) BanList(ctx context.Context, kind BanKind, filter string) (string, error) {
	return c.passthrough(ctx, banListCmd(kind, filter))
}
