package parse

import (
	"fmt"
	"strings"
)

// DetailField is one labelled value inside a descriptive line such as
// "Online players: 3 (max: 10)".
type DetailField struct {
	Name  string
	Label string
	Kind  Kind
}

// DetailLayout lists the labels of a detail reply in the order they appear.
type DetailLayout struct {
	Name   string
	Fields []DetailField
}

// ParseDetail extracts labelled sub-fields. Each value is the text after its
// label up to the next label or the end of that line, whichever comes
// first. Labels must appear in layout order; a missing label is a
// *MalformedRowError.
func ParseDetail(text string, layout DetailLayout) (Record, error) {
	rec := make(Record, len(layout.Fields))
	pos := 0

	for i, f := range layout.Fields {
		idx := strings.Index(text[pos:], f.Label)
		if idx < 0 {
			return nil, &MalformedRowError{
				Schema: layout.Name,
				Row:    firstLine(text),
				Reason: fmt.Sprintf("label %q not found", f.Label),
			}
		}
		start := pos + idx + len(f.Label)

		end := len(text)
		if nl := strings.IndexByte(text[start:], '\n'); nl >= 0 {
			end = start + nl
		}
		if i+1 < len(layout.Fields) {
			if next := strings.Index(text[start:], layout.Fields[i+1].Label); next >= 0 && start+next < end {
				end = start + next
			}
		}

		v, err := f.Kind.convert(cleanValue(text[start:end], f.Kind))
		if err != nil {
			return nil, &MalformedRowError{
				Schema: layout.Name,
				Row:    firstLine(text[pos:]),
				Reason: fmt.Sprintf("field %s: %v", f.Name, err),
			}
		}
		rec[f.Name] = v
		pos = end
	}
	return rec, nil
}

// cleanValue strips the punctuation that surrounds values in console
// sentences. Brackets are only stripped from numbers so that text like
// "Hour(s)" survives.
func cleanValue(v string, kind Kind) string {
	v = strings.TrimSpace(v)
	if kind == Int {
		return strings.Trim(v, " \t().,:")
	}
	return strings.TrimSpace(strings.Trim(v, ".,"))
}

func firstLine(text string) string {
	text = strings.TrimLeft(text, "\n")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}
