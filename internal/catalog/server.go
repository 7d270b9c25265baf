package catalog

import (
	"context"
	"strings"

	"github.com/eugenetaranov/mangosctl/internal/parse"
)

// Players is the population line of "server info".
type Players struct {
	Online    int `field:"online" json:"online"`
	Max       int `field:"max" json:"max"`
	Queued    int `field:"queued" json:"queued"`
	QueuedMax int `field:"queued_max" json:"queued_max"`
}

// ServerInfo is the reply of "server info".
type ServerInfo struct {
	Revision string  `json:"revision"`
	Players  Players `json:"players"`
	Uptime   string  `json:"uptime"`
}

// PlayerLimits is the reply of "server plimit".
type PlayerLimits struct {
	Amount         int    `field:"amount" json:"amount"`
	SecurityLevel  string `field:"security" json:"security_level"`
	AllowedToLogin bool   `field:"allowed" json:"allowed_to_login"`
}

// PlayersLayout locates the counters in
// "Online players: N (max: N) Queued players: N (max: N)".
var PlayersLayout = parse.DetailLayout{
	Name: "server info",
	Fields: []parse.DetailField{
		{Name: "online", Label: "Online players:", Kind: parse.Int},
		{Name: "max", Label: "(max:", Kind: parse.Int},
		{Name: "queued", Label: "Queued players:", Kind: parse.Int},
		{Name: "queued_max", Label: "(max:", Kind: parse.Int},
	},
}

// UptimeSchema reads the uptime line of "server info".
var UptimeSchema = parse.KeyValueSchema{
	Name:   "server info",
	Fields: []parse.KeyField{{Name: "uptime", Label: "Server uptime", Kind: parse.String}},
}

// PlayerLimitsLayout locates the values in
// "Player limits: amount N, min. security level X, allowed to login Y.".
var PlayerLimitsLayout = parse.DetailLayout{
	Name: "server plimit",
	Fields: []parse.DetailField{
		{Name: "amount", Label: "amount", Kind: parse.Int},
		{Name: "security", Label: "min. security level", Kind: parse.String},
		{Name: "allowed", Label: "allowed to login", Kind: parse.Bool},
	},
}

// LimitLevel restricts logins to a minimum security level.
type LimitLevel string

const (
	LimitPlayer        LimitLevel = "player"
	LimitModerator     LimitLevel = "moderator"
	LimitGamemaster    LimitLevel = "gamemaster"
	LimitAdministrator LimitLevel = "administrator"
	LimitReset         LimitLevel = "reset"
)

func serverInfoCmd() string { return line("server", "info") }

func playerLimitsCmd(arg string) string { return line("server", "plimit", arg) }

func shutdownCmd(delay int) string { return line("server", "shutdown", itoa(delay)) }

func restartCmd(delay int) string { return line("server", "restart", itoa(delay)) }

func cancelShutdownCmd() string { return line("server", "shutdown", "cancel") }

func cancelRestartCmd() string { return line("server", "restart", "cancel") }

func saveAllCmd() string { return line("saveall") }

func motdCmd() string { return line("server", "motd") }

func setMOTDCmd(message string) string { return line("server", "set", "motd", message) }

func reloadCmd(table string) string { return line("reload", table) }

// ParseServerInfo reads a "server info" reply: the revision banner on the
// first line, the player counters and the uptime.
func ParseServerInfo(text string) (*ServerInfo, error) {
	players, err := parse.ParseDetail(text, PlayersLayout)
	if err != nil {
		return nil, err
	}
	uptime, err := parse.ParseKeyValue(text, UptimeSchema)
	if err != nil {
		return nil, err
	}

	info := &ServerInfo{Uptime: uptime.Text("uptime")}
	if err := players.Decode(&info.Players); err != nil {
		return nil, err
	}
	if first, _, _ := strings.Cut(strings.TrimSpace(text), "\n"); !strings.HasPrefix(first, "Online players:") {
		info.Revision = strings.TrimSpace(first)
	}
	return info, nil
}

// ParsePlayerLimits reads a "server plimit" reply.
func ParsePlayerLimits(text string) (*PlayerLimits, error) {
	rec, err := parse.ParseDetail(text, PlayerLimitsLayout)
	if err != nil {
		return nil, err
	}
	var out PlayerLimits
	if err := rec.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ServerInfo returns the server revision, population and uptime.
func (c *Catalog) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	out, err := c.exec.Execute(ctx, serverInfoCmd())
	if err != nil {
		return nil, err
	}
	return ParseServerInfo(out)
}

// PlayerLimits returns the login limits.
func (c *Catalog) PlayerLimits(ctx context.Context) (*PlayerLimits, error) {
	return c.plimit(ctx, "")
}

// SetPlayerLimit caps the number of players online.
func (c *Catalog) SetPlayerLimit(ctx context.Context, amount int) (*PlayerLimits, error) {
	return c.plimit(ctx, itoa(amount))
}

// RestrictLogins sets the minimum security level allowed to log in, or
// resets the limits with LimitReset.
func (c *Catalog) RestrictLogins(ctx context.Context, level LimitLevel) (*PlayerLimits, error) {
	return c.plimit(ctx, string(level))
}

func (c *Catalog) plimit(ctx context.Context, arg string) (*PlayerLimits, error) {
	out, err := c.exec.Execute(ctx, playerLimitsCmd(arg))
	if err != nil {
		return nil, err
	}
	return ParsePlayerLimits(out)
}

// Shutdown schedules a shutdown in delay seconds.
func (c *Catalog) Shutdown(ctx context.Context, delay int) (string, error) {
	return c.passthrough(ctx, shutdownCmd(delay))
}

// Restart schedules a restart in delay seconds.
func (c *Catalog) Restart(ctx context.Context, delay int) (string, error) {
	return c.passthrough(ctx, restartCmd(delay))
}

// CancelShutdown cancels a pending shutdown.
func (c *Catalog) CancelShutdown(ctx context.Context) (string, error) {
	return c.passthrough(ctx, cancelShutdownCmd())
}

// CancelRestart cancels a pending restart.
func (c *Catalog) CancelRestart(ctx context.Context) (string, error) {
	return c.passthrough(ctx, cancelRestartCmd())
}

// SaveAll saves every online character.
func (c *Catalog) SaveAll(ctx context.Context) (string, error) {
	return c.passthrough(ctx, saveAllCmd())
}

// MOTD returns the message of the day.
func (c *Catalog) MOTD(ctx context.Context) (string, error) {
	return c.passthrough(ctx, motdCmd())
}

// SetMOTD replaces the message of the day.
func (c *Catalog) SetMOTD(ctx context.Context, message string) (string, error) {
	return c.passthrough(ctx, setMOTDCmd(message))
}

// Reload reloads a server table, e.g. "config" or "all".
func (c *Catalog) Reload(ctx context.Context, table string) (string, error) {
	return c.passthrough(ctx, reloadCmd(table))
}
