package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenetaranov/mangosctl/internal/connector/connectortest"
	"github.com/eugenetaranov/mangosctl/internal/module"
)

const onlineList = "-[ Account][ Character][ IP ][GM][Exp]-\n" +
	"| Id | Account | Character | IP | GM | Expansion |\n" +
	"-===============================================-\n" +
	"|    1|alice      |char1      |1.2.3.4        |  0|  1|\n" +
	"|    2|bob        |char2      |5.6.7.8        |  1|  2|\n" +
	"-===============================================-\n"

const characterList = "-[ GUID ][ Name ][ Race ][ Class ][ Level ]-\n" +
	"| GUID | Name | Race | Class | Level |\n" +
	"-=====================================-\n" +
	"|   12|Thrall   |Orc      |Shaman   | 60|\n" +
	"-=====================================-\n"

func newFake() *connectortest.Fake {
	return connectortest.New(map[string]string{
		"account onlinelist ":               onlineList,
		"lookup account ip 1.2.3.4 100 ":    onlineList,
		"account characters alice ":         characterList,
		"account create alice pw ":          "Account created: alice",
		"account create bob pw ":            "Account with this name already exist!",
		"account set password alice pw pw ": "The password was changed",
		"account set addon alice 2 ":        "Account alice (1) has been granted 2 expansion rights.",
		"account set gmlevel alice 3 ":      "You change security level of account alice to 3.",
		"account delete nobody ":            "Account not found",
	})
}

func TestOnline(t *testing.T) {
	res, err := (&Module{}).Run(context.Background(), newFake(), map[string]any{"action": "online"})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, 2, res.Data["count"])

	accounts := res.Data["accounts"].([]any)
	require.Len(t, accounts, 2)
	first := accounts[0].(map[string]any)
	assert.Equal(t, "alice", first["username"])
	assert.Equal(t, 0, first["gm"])
}

func TestSearch(t *testing.T) {
	fake := newFake()
	res, err := (&Module{}).Run(context.Background(), fake, map[string]any{
		"action": "search",
		"by":     "ip",
		"value":  "1.2.3.4",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Data["count"])
	assert.Equal(t, []string{"lookup account ip 1.2.3.4 100 "}, fake.Commands())
}

func TestCharacters(t *testing.T) {
	res, err := (&Module{}).Run(context.Background(), newFake(), map[string]any{"action": "characters", "username": "alice"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Data["count"])
	chars := res.Data["characters"].([]any)
	assert.Equal(t, "Thrall", chars[0].(map[string]any)["name"])
}

func TestMutations(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
	}{
		{"create", map[string]any{"action": "create", "username": "alice", "password": "pw"}},
		{"password", map[string]any{"action": "password", "username": "alice", "password": "pw"}},
		{"addon", map[string]any{"action": "addon", "username": "alice", "addon": "2"}},
		{"gmlevel", map[string]any{"action": "gmlevel", "username": "alice", "level": 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := (&Module{}).Run(context.Background(), newFake(), tt.params)
			require.NoError(t, err)
			assert.True(t, res.Changed)
			assert.Equal(t, "success", res.Data["outcome"])
		})
	}
}

func TestRefused(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
	}{
		{"existing account", map[string]any{"action": "create", "username": "bob", "password": "pw"}},
		{"unknown account", map[string]any{"action": "delete", "username": "nobody"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&Module{}).Run(context.Background(), newFake(), tt.params)
			var oe *module.OutcomeError
			require.ErrorAs(t, err, &oe)
		})
	}
}

func TestInvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
	}{
		{"missing action", map[string]any{}},
		{"unknown action", map[string]any{"action": "rename"}},
		{"missing username", map[string]any{"action": "delete"}},
		{"missing password", map[string]any{"action": "create", "username": "alice"}},
		{"bad level", map[string]any{"action": "gmlevel", "username": "alice", "level": "high"}},
		{"level above administrator", map[string]any{"action": "gmlevel", "username": "alice", "level": 7}},
		{"negative level", map[string]any{"action": "gmlevel", "username": "alice", "level": -1}},
		{"negative addon", map[string]any{"action": "addon", "username": "alice", "addon": -1}},
		{"missing search value", map[string]any{"action": "search"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFake()
			_, err := (&Module{}).Run(context.Background(), fake, tt.params)
			require.Error(t, err)
			assert.Empty(t, fake.Commands())
		})
	}
}
