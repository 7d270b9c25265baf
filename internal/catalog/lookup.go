package catalog

import "context"

// Faction selects an auction house.
type Faction string

const (
	Alliance Faction = "alliance"
	Horde    Faction = "horde"
	Goblin   Faction = "goblin"
)

// LookupKinds are the object families "lookup" can search.
var LookupKinds = []string{
	"area", "creature", "currency", "faction", "item", "itemset",
	"object", "pool", "quest", "skill", "spell", "taxinode", "tele", "title",
}

func ahbotStatusCmd(all bool) string {
	if all {
		return line("ahbot", "status", "all")
	}
	return line("ahbot", "status")
}

func ahbotReloadCmd() string { return line("ahbot", "reload") }

func ahbotRebuildCmd(all bool) string {
	if all {
		return line("ahbot", "rebuild", "all")
	}
	return line("ahbot", "rebuild")
}

func auctionCmd(f Faction) string { return line("auction", string(f)) }

func lookupCmd(kind, text string) string { return line("lookup", kind, text) }

// AHBotStatus returns the auction house bot summary, per quality with all.
func (c *Catalog) AHBotStatus(ctx context.Context, all bool) (string, error) {
	return c.passthrough(ctx, ahbotStatusCmd(all))
}

// AHBotReload reloads the auction house bot configuration.
func (c *Catalog) AHBotReload(ctx context.Context) (string, error) {
	return c.passthrough(ctx, ahbotReloadCmd())
}

// AHBotRebuild expires bot auctions, all of them with all.
func (c *Catalog) AHBotRebuild(ctx context.Context, all bool) (string, error) {
	return c.passthrough(ctx, ahbotRebuildCmd(all))
}

// AuctionHouse opens a faction's auction house listing.
func (c *Catalog) AuctionHouse(ctx context.Context, f Faction) (string, error) {
	return c.passthrough(ctx, auctionCmd(f))
}

// Lookup searches game data of one kind by name.
func (c *Catalog) Lookup(ctx context.Context, kind, text string) (string, error) {
	return c.passthrough(ctx, lookupCmd(kind, text))
}
