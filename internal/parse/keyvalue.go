package parse

import (
	"fmt"
	"strings"
)

// KeyField maps a "Label: value" line to a record field.
type KeyField struct {
	Name     string
	Label    string
	Kind     Kind
	Optional bool
}

// KeyValueSchema declares a multi-line block of "Label: value" lines.
type KeyValueSchema struct {
	Name   string
	Fields []KeyField
}

// ParseKeyValue reads "Label: value" lines. Lines whose label is not in the
// schema are ignored. The first occurrence of a label wins. A required
// label that never appears is a *MalformedRowError.
func ParseKeyValue(text string, schema KeyValueSchema) (Record, error) {
	byLabel := make(map[string]KeyField, len(schema.Fields))
	for _, f := range schema.Fields {
		byLabel[f.Label] = f
	}

	rec := make(Record, len(schema.Fields))
	for n, line := range strings.Split(text, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		f, known := byLabel[strings.TrimSpace(label)]
		if !known {
			continue
		}
		if _, seen := rec[f.Name]; seen {
			continue
		}
		v, err := f.Kind.convert(cleanValue(value, f.Kind))
		if err != nil {
			return nil, &MalformedRowError{
				Schema: schema.Name,
				Line:   n + 1,
				Row:    line,
				Reason: fmt.Sprintf("field %s: %v", f.Name, err),
			}
		}
		rec[f.Name] = v
	}

	for _, f := range schema.Fields {
		if _, ok := rec[f.Name]; !ok && !f.Optional {
			return nil, &MalformedRowError{
				Schema: schema.Name,
				Reason: fmt.Sprintf("label %q not found", f.Label),
			}
		}
	}
	return rec, nil
}

// Passthrough returns free text with surrounding blank space removed, for
// replies that have no structured shape.
func Passthrough(text string) string {
	return strings.TrimSpace(text)
}
