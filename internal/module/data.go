package module

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Rows converts parsed rows into maps keyed by their json tags so that
// registered results can be addressed with dotted paths.
func Rows[T any](items []T) ([]any, error) {
	out := make([]any, 0, len(items))
	for i := range items {
		m, err := Fields(items[i])
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Fields converts one struct into a map keyed by its json tags.
func Fields(v any) (map[string]any, error) {
	m := make(map[string]any)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &m,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("convert %T: %w", v, err)
	}
	return m, nil
}
