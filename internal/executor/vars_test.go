package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testScope returns a scope holding a registered online listing,
// gathered facts and a few plain vars.
func testScope() *Scope {
	return &Scope{
		Vars: map[string]any{
			"realm":    "Kalimdor",
			"delay":    300,
			"password": "s3cret",
			"empty":    "",
			"motd":     "  Welcome  ",
			"names":    []any{"alice", "bob"},
			"facts": map[string]any{
				"players_online": 3,
				"security_level": "Player",
			},
			"env": map[string]string{"USER": "gm"},
		},
		Registered: map[string]any{
			"online": map[string]any{
				"changed": false,
				"data": map[string]any{
					"count": 2,
					"accounts": []any{
						map[string]any{"id": 1, "username": "alice"},
						map[string]any{"id": 2, "username": "bob"},
					},
				},
			},
		},
	}
}

func TestLookup(t *testing.T) {
	sc := testScope()

	tests := []struct {
		path    string
		want    any
		defined bool
	}{
		{"realm", "Kalimdor", true},
		{"facts.players_online", 3, true},
		{"env.USER", "gm", true},
		{"online.changed", false, true},
		{"online.data.count", 2, true},
		{"online.data.accounts.1.username", "bob", true},
		{"online.data.accounts.2.username", nil, false},
		{"online.data.accounts.x", nil, false},
		{"names.0", "alice", true},
		{"facts.missing", nil, false},
		{"missing", nil, false},
		{"realm.name", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := sc.Lookup(tt.path)
			assert.Equal(t, tt.defined, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupRegisteredShadowsVars(t *testing.T) {
	sc := testScope()
	sc.Vars["online"] = "stale"

	got, ok := sc.Lookup("online.data.count")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestRenderString(t *testing.T) {
	sc := testScope()

	tests := []struct {
		name  string
		input string
		want  any
	}{
		{"no references", "server info", "server info"},
		{"whole reference keeps type", "{{ delay }}", 300},
		{"whole reference with spaces", "  {{delay}}  ", 300},
		{"list reference", "{{ online.data.accounts }}", sc.Registered["online"].(map[string]any)["data"].(map[string]any)["accounts"]},
		{"mixed text", "Restart in {{ delay }}s", "Restart in 300s"},
		{"two references", "{{ realm }}:{{ facts.players_online }}", "Kalimdor:3"},
		{"list index", "kick {{ online.data.accounts.0.username }}", "kick alice"},
		{"filter in text", "motd {{ motd | trim }}", "motd Welcome"},
		{"default for missing", "{{ reason | default('maintenance') }}", "maintenance"},
		{"default for empty", "{{ empty | default('none') }}", "none"},
		{"default keeps value", "{{ realm | default('x') }}", "Kalimdor"},
		{"chained filters", "{{ missing | default('ALICE') | lower }}", "alice"},
		{"quoted pipe in argument", "{{ names | join('|') }}", "alice|bob"},
		{"literal", "{{ 'fixed' | upper }}", "FIXED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := renderString(tt.input, sc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderStringUndefined(t *testing.T) {
	sc := testScope()

	for _, input := range []string{
		"{{ missing }}",
		"account delete {{ missing }}",
		"{{ missing | upper }}",
		"{{ online.data.accounts.5.username }}",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := renderString(input, sc)
			assert.ErrorIs(t, err, errUndefined)
		})
	}
}

func TestFilters(t *testing.T) {
	sc := testScope()

	tests := []struct {
		expr string
		want any
	}{
		{"realm | lower", "kalimdor"},
		{"realm | upper", "KALIMDOR"},
		{"delay | string", "300"},
		{"'42' | int", 42},
		{"delay | bool", true},
		{"empty | bool", false},
		{"password | mask", "***"},
		{"empty | mask", ""},
		{"motd | trim | quote", `"Welcome"`},
		{`'say "hi"' | quote`, `"say hi"`},
		{"names | first", "alice"},
		{"names | last", "bob"},
		{"names | length", 2},
		{"online.data.accounts | count", 2},
		{"realm | length", 8},
		{"names | join", "alice,bob"},
		{"names | join(', ')", "alice, bob"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := evalExpr(tt.expr, sc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterErrors(t *testing.T) {
	sc := testScope()

	_, err := evalExpr("realm | shout", sc)
	assert.ErrorContains(t, err, "unknown filter: shout")

	_, err = evalExpr("realm | int", sc)
	assert.ErrorContains(t, err, "filter int")
}

func TestRenderParams(t *testing.T) {
	sc := testScope()

	params := map[string]any{
		"action":  "restart",
		"delay":   "{{ delay }}",
		"message": "Restart on {{ realm }}",
		"targets": []any{"{{ names.0 }}", "carol"},
		"mail": map[string]any{
			"subject": "Hello {{ online.data.accounts.1.username }}",
			"money":   100,
		},
	}

	got, err := renderParams(params, sc)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"action":  "restart",
		"delay":   300,
		"message": "Restart on Kalimdor",
		"targets": []any{"alice", "carol"},
		"mail": map[string]any{
			"subject": "Hello bob",
			"money":   100,
		},
	}, got)

	// The input map is left untouched.
	assert.Equal(t, "{{ delay }}", params["delay"])
}

func TestRenderParamsNamesFailingParameter(t *testing.T) {
	_, err := renderParams(map[string]any{"username": "{{ who }}"}, testScope())
	assert.ErrorContains(t, err, "parameter 'username'")
	assert.ErrorIs(t, err, errUndefined)
}
