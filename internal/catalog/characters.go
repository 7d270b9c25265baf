package catalog

import (
	"context"
	"strings"

	"github.com/eugenetaranov/mangosctl/internal/parse"
)

const noCharacters = "No characters found."

// "deleted" alone is ambiguous; the not-found phrase is longer and wins.
var characterEraseRule = parse.SentinelRule{
	Command: "character erase",
	Success: []string{"deleted"},
	Failure: []string{"Player not found!"},
	Default: parse.Unknown,
}

func characterEraseCmd(name string) string { return line("character", "erase", name) }

func characterLookupCmd(by SearchBy, value string, limit int) string {
	key := string(by)
	if by == ByName {
		key = "account"
	}
	return line("lookup", "player", key, value, itoa(limit))
}

func kickCmd(name string) string { return line("kick", name) }

func characterRenameCmd(name string) string { return line("character", "rename", name) }

func characterLevelCmd(name string, level int) string {
	return line("character", "level", name, itoa(level))
}

func characterInfoCmd(name string) string { return line("pinfo", name) }

// DeleteCharacter erases a character permanently.
func (c *Catalog) DeleteCharacter(ctx context.Context, name string) (parse.Verdict, error) {
	return c.sentinel(ctx, characterEraseCmd(name), characterEraseRule)
}

// LookupCharacters searches characters by account name, email or IP. An
// empty result is "" with no error.
func (c *Catalog) LookupCharacters(ctx context.Context, by SearchBy, value string, limit int) (string, error) {
	out, err := c.exec.Execute(ctx, characterLookupCmd(by, value, limit))
	if err != nil {
		return "", err
	}
	if strings.Contains(out, noCharacters) {
		return "", nil
	}
	return parse.Passthrough(out), nil
}

// KickCharacter disconnects an online character.
func (c *Catalog) KickCharacter(ctx context.Context, name string) (string, error) {
	return c.passthrough(ctx, kickCmd(name))
}

// RenameCharacter forces a rename at next login.
func (c *Catalog) RenameCharacter(ctx context.Context, name string) (string, error) {
	return c.passthrough(ctx, characterRenameCmd(name))
}

// SetCharacterLevel changes a character's level.
func (c *Catalog) SetCharacterLevel(ctx context.Context, name string, level int) (string, error) {
	return c.passthrough(ctx, characterLevelCmd(name, level))
}

// CharacterInfo returns the "pinfo" text for a character.
func (c *Catalog) CharacterInfo(ctx context.Context, name string) (string, error) {
	return c.passthrough(ctx, characterInfoCmd(name))
}
