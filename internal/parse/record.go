package parse

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

// Record is one parsed row or detail block, keyed by field name.
type Record map[string]any

// Text returns the field as a string, or "" when absent.
func (r Record) Text(name string) string {
	return cast.ToString(r[name])
}

// Int returns the field as an int, or 0 when absent or not numeric.
func (r Record) Int(name string) int {
	return cast.ToInt(r[name])
}

// Bool returns the field as a bool, or false when absent.
func (r Record) Bool(name string) bool {
	return cast.ToBool(r[name])
}

// Decode copies the record into out, a pointer to a struct whose fields
// carry `field:"name"` tags.
func (r Record) Decode(out any) error {
	return decode(map[string]any(r), out)
}

func decode(in, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "field",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}
	return nil
}
