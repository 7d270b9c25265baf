package parse

import (
	"fmt"
	"strings"
)

// Table holds parsed rows keyed by their first field, in reply order.
type Table struct {
	keys []string
	rows map[string]Record
}

func newTable() *Table {
	return &Table{rows: make(map[string]Record)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.keys)
}

// Keys returns row keys in reply order.
func (t *Table) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Get returns the row with the given key.
func (t *Table) Get(key string) (Record, bool) {
	r, ok := t.rows[key]
	return r, ok
}

// Rows returns all rows in reply order.
func (t *Table) Rows() []Record {
	out := make([]Record, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, t.rows[k])
	}
	return out
}

// Decode copies the rows into out, a pointer to a slice of structs.
func (t *Table) Decode(out any) error {
	rows := make([]map[string]any, 0, len(t.keys))
	for _, r := range t.Rows() {
		rows = append(rows, r)
	}
	return decode(rows, out)
}

// ParseTable reads a pipe-delimited table reply.
//
// The schema's header and footer lines are dropped, blank lines are
// skipped, and every other line must look like "|a|b|c|" with exactly one
// cell per schema field. Cells are trimmed and converted to the field's
// kind. A reply with no data rows is an empty table, not an error.
func ParseTable(text string, schema Schema) (*Table, error) {
	t := newTable()
	if len(schema.Fields) == 0 {
		return nil, fmt.Errorf("schema %s has no fields", schema.Name)
	}

	lines := strings.Split(text, "\n")
	if len(lines) <= schema.HeaderLines+schema.FooterLines {
		return t, nil
	}
	body := lines[schema.HeaderLines : len(lines)-schema.FooterLines]

	for i, line := range body {
		lineNo := schema.HeaderLines + i + 1
		row := strings.TrimSpace(line)
		if row == "" {
			continue
		}

		if len(row) < 2 || row[0] != '|' || row[len(row)-1] != '|' {
			return nil, &MalformedRowError{
				Schema: schema.Name,
				Line:   lineNo,
				Row:    line,
				Reason: "row is not enclosed in '|'",
			}
		}
		cells := strings.Split(row[1:len(row)-1], "|")
		if len(cells) != len(schema.Fields) {
			return nil, &MalformedRowError{
				Schema: schema.Name,
				Line:   lineNo,
				Row:    line,
				Want:   len(schema.Fields),
				Got:    len(cells),
				Reason: "wrong field count",
			}
		}

		rec := make(Record, len(schema.Fields))
		for j, f := range schema.Fields {
			v, err := f.Kind.convert(strings.TrimSpace(cells[j]))
			if err != nil {
				return nil, &MalformedRowError{
					Schema: schema.Name,
					Line:   lineNo,
					Row:    line,
					Reason: fmt.Sprintf("field %s: %v", f.Name, err),
				}
			}
			rec[f.Name] = v
		}

		key := strings.TrimSpace(cells[0])
		if _, dup := t.rows[key]; dup {
			return nil, &MalformedRowError{
				Schema: schema.Name,
				Line:   lineNo,
				Row:    line,
				Reason: fmt.Sprintf("duplicate key %q", key),
			}
		}
		t.keys = append(t.keys, key)
		t.rows[key] = rec
	}
	return t, nil
}
