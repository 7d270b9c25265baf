// Package parse turns console reply text into typed values.
//
// All parsers are pure functions over the normalized reply (plain \n line
// endings, prompt marker removed). Each command family declares the shape
// it expects: a table Schema, a SentinelRule, a DetailLayout or a
// KeyValueSchema. A reply that does not fit its declaration yields a
// *MalformedRowError; the console session that produced it stays usable.
package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Kind is the type a field is converted to.
type Kind int

const (
	String Kind = iota
	Int
	Bool
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Int:
		return "int"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// convert turns a trimmed cell into a value of kind k.
func (k Kind) convert(raw string) (any, error) {
	switch k {
	case Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", raw)
		}
		return n, nil
	case Bool:
		switch strings.ToLower(raw) {
		case "yes", "on", "enabled":
			return true, nil
		case "no", "off", "disabled":
			return false, nil
		}
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return nil, fmt.Errorf("not a boolean: %q", raw)
		}
		return b, nil
	default:
		return raw, nil
	}
}

// Field is one named, typed column.
type Field struct {
	Name string
	Kind Kind
}

// Schema declares the shape of a pipe-delimited table reply.
//
// HeaderLines and FooterLines are dropped before rows are read. They are a
// property of the command's output, never inferred. The first field is the
// row key.
type Schema struct {
	Name        string
	Fields      []Field
	HeaderLines int
	FooterLines int
}

// WithFraming returns a copy of s with different header and footer counts.
func (s Schema) WithFraming(header, footer int) Schema {
	s.HeaderLines = header
	s.FooterLines = footer
	return s
}

// MalformedRowError reports reply text that does not match its declared
// shape. Only the one command's result is unusable.
type MalformedRowError struct {
	Schema string
	Line   int
	Row    string
	Want   int
	Got    int
	Reason string
}

func (e *MalformedRowError) Error() string {
	msg := fmt.Sprintf("parse %s", e.Schema)
	if e.Line > 0 {
		msg += fmt.Sprintf(": line %d", e.Line)
	}
	msg += ": " + e.Reason
	if e.Want > 0 || e.Got > 0 {
		msg += fmt.Sprintf(" (want %d fields, got %d)", e.Want, e.Got)
	}
	if e.Row != "" {
		msg += fmt.Sprintf(": %q", e.Row)
	}
	return msg
}
