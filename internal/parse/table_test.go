package parse

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountsSchema = Schema{
	Name: "account onlinelist",
	Fields: []Field{
		{Name: "id", Kind: Int},
		{Name: "username", Kind: String},
		{Name: "character", Kind: String},
		{Name: "ip", Kind: String},
		{Name: "gm", Kind: Int},
		{Name: "expansion", Kind: Int},
	},
	HeaderLines: 2,
	FooterLines: 2,
}

// table frames rows with a two-line header and a closing bar, ending in a
// newline like real console output.
func table(rows ...string) string {
	var b strings.Builder
	b.WriteString("-==========================================-\n")
	b.WriteString("| Id | Account | Character | IP | GM | Expansion |\n")
	for _, r := range rows {
		b.WriteString(r + "\n")
	}
	b.WriteString("-==========================================-\n")
	return b.String()
}

func TestParseTableOnlineAccounts(t *testing.T) {
	text := table(
		"|1|alice|char1|1.2.3.4|0|1|",
		"|2|bob|char2|5.6.7.8|1|2|",
	)

	tbl, err := ParseTable(text, accountsSchema)
	require.NoError(t, err)

	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"1", "2"}, tbl.Keys())

	alice, ok := tbl.Get("1")
	require.True(t, ok)
	assert.Equal(t, "alice", alice.Text("username"))
	assert.Equal(t, "char1", alice.Text("character"))
	assert.Equal(t, "1.2.3.4", alice.Text("ip"))
	assert.Equal(t, 0, alice.Int("gm"))
	assert.Equal(t, 1, alice.Int("expansion"))

	bob, ok := tbl.Get("2")
	require.True(t, ok)
	assert.Equal(t, "bob", bob.Text("username"))
	assert.Equal(t, 2, bob.Int("expansion"))
}

func TestParseTablePreservesOrder(t *testing.T) {
	for _, n := range []int{0, 1, 5, 40} {
		t.Run(fmt.Sprintf("%d rows", n), func(t *testing.T) {
			rows := make([]string, n)
			want := make([]string, n)
			for i := range rows {
				id := 1000 - i*7
				rows[i] = fmt.Sprintf("| %d | user%d | char%d | 10.0.0.%d | 0 | 2 |", id, i, i, i)
				want[i] = fmt.Sprint(id)
			}

			tbl, err := ParseTable(table(rows...), accountsSchema)
			require.NoError(t, err)
			assert.Equal(t, n, tbl.Len())
			assert.Len(t, tbl.Rows(), n)
			if n > 0 {
				assert.Equal(t, want, tbl.Keys())
			}
		})
	}
}

func TestParseTableTrimsCells(t *testing.T) {
	tbl, err := ParseTable(table("|    7| gm_admin   |  Thrall  | 127.0.0.1 |  3 |  2 |"), accountsSchema)
	require.NoError(t, err)

	rec, ok := tbl.Get("7")
	require.True(t, ok)
	assert.Equal(t, 7, rec.Int("id"))
	assert.Equal(t, "gm_admin", rec.Text("username"))
	assert.Equal(t, "Thrall", rec.Text("character"))
	assert.Equal(t, 3, rec.Int("gm"))
}

func TestParseTableEmpty(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no rows", table()},
		{"empty reply", ""},
		{"header only", "-====-\n| Id |\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := ParseTable(tt.text, accountsSchema)
			require.NoError(t, err)
			assert.Equal(t, 0, tbl.Len())
			assert.Empty(t, tbl.Keys())
		})
	}
}

func TestParseTableMalformed(t *testing.T) {
	tests := []struct {
		name   string
		rows   []string
		reason string
		want   int
		got    int
	}{
		{
			name:   "short row",
			rows:   []string{"|1|alice|char1|1.2.3.4|0|1|", "|2|bob|char2|"},
			reason: "wrong field count",
			want:   6,
			got:    3,
		},
		{
			name:   "long row",
			rows:   []string{"|1|alice|char1|1.2.3.4|0|1|extra|"},
			reason: "wrong field count",
			want:   6,
			got:    7,
		},
		{
			name:   "not enclosed",
			rows:   []string{"Account not found"},
			reason: "not enclosed",
		},
		{
			name:   "bad integer",
			rows:   []string{"|x|alice|char1|1.2.3.4|0|1|"},
			reason: "field id",
		},
		{
			name:   "duplicate key",
			rows:   []string{"|1|alice|c|ip|0|1|", "|1|alice|c|ip|0|1|"},
			reason: "duplicate key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable(table(tt.rows...), accountsSchema)

			var rowErr *MalformedRowError
			require.ErrorAs(t, err, &rowErr)
			assert.Equal(t, "account onlinelist", rowErr.Schema)
			assert.Contains(t, rowErr.Reason, tt.reason)
			assert.Equal(t, tt.want, rowErr.Want)
			assert.Equal(t, tt.got, rowErr.Got)
			assert.Positive(t, rowErr.Line)
		})
	}
}

func TestParseTableNoFields(t *testing.T) {
	_, err := ParseTable(table(), Schema{Name: "empty"})
	assert.Error(t, err)
}

func TestWithFraming(t *testing.T) {
	s := accountsSchema.WithFraming(3, 2)
	assert.Equal(t, 3, s.HeaderLines)
	assert.Equal(t, 2, s.FooterLines)
	assert.Equal(t, 2, accountsSchema.HeaderLines)
}

func TestTableDecode(t *testing.T) {
	type account struct {
		ID       int    `field:"id"`
		Username string `field:"username"`
		GM       int    `field:"gm"`
	}

	tbl, err := ParseTable(table("|1|alice|c1|ip|0|1|", "|2|bob|c2|ip|3|2|"), accountsSchema)
	require.NoError(t, err)

	var got []account
	require.NoError(t, tbl.Decode(&got))
	assert.Equal(t, []account{{1, "alice", 0}, {2, "bob", 3}}, got)
}

func TestKindConvert(t *testing.T) {
	tests := []struct {
		kind    Kind
		in      string
		want    any
		wantErr bool
	}{
		{String, "Thrall", "Thrall", false},
		{Int, "42", 42, false},
		{Int, "-1", -1, false},
		{Int, "4x", nil, true},
		{Bool, "Yes", true, false},
		{Bool, "off", false, false},
		{Bool, "1", true, false},
		{Bool, "false", false, false},
		{Bool, "maybe", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.in, func(t *testing.T) {
			got, err := tt.kind.convert(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMalformedRowErrorMessage(t *testing.T) {
	err := &MalformedRowError{Schema: "account characters", Line: 4, Row: "|1|x|", Want: 5, Got: 2, Reason: "wrong field count"}
	assert.Equal(t, `parse account characters: line 4: wrong field count (want 5 fields, got 2): "|1|x|"`, err.Error())

	err = &MalformedRowError{Schema: "server info", Reason: `label "Server uptime" not found`}
	assert.Equal(t, `parse server info: label "Server uptime" not found`, err.Error())
}
