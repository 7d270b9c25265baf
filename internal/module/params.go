package module

import (
	"fmt"

	"github.com/spf13/cast"
)

// Helper functions for parameter extraction. Values may arrive as strings
// after variable interpolation, so numbers and booleans are coerced.

// RequireString returns a non-empty string parameter.
func RequireString(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter '%s' is missing", key)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("parameter '%s' must be a string", key)
	}
	if s == "" {
		return "", fmt.Errorf("parameter '%s' cannot be empty", key)
	}
	return s, nil
}

// GetString returns a string parameter or defaultValue when absent.
func GetString(params map[string]any, key, defaultValue string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return defaultValue
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return defaultValue
	}
	return s
}

// RequireInt returns an integer parameter.
func RequireInt(params map[string]any, key string) (int, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("required parameter '%s' is missing", key)
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("parameter '%s' must be an integer", key)
	}
	return n, nil
}

// GetInt returns an integer parameter or defaultValue when absent.
func GetInt(params map[string]any, key string, defaultValue int) (int, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return defaultValue, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("parameter '%s' must be an integer", key)
	}
	return n, nil
}

// GetBool returns a boolean parameter or defaultValue when absent.
func GetBool(params map[string]any, key string, defaultValue bool) (bool, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return defaultValue, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("parameter '%s' must be a boolean", key)
	}
	return b, nil
}

// GetStrings returns a list parameter. A single string becomes a
// one-element list.
func GetStrings(params map[string]any, key string) ([]string, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		return []string{s}, nil
	}
	out, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("parameter '%s' must be a string or list of strings", key)
	}
	return out, nil
}

// RequireChoice returns a string parameter that must be one of choices.
func RequireChoice(params map[string]any, key string, choices ...string) (string, error) {
	s, err := RequireString(params, key)
	if err != nil {
		return "", err
	}
	for _, c := range choices {
		if s == c {
			return s, nil
		}
	}
	return "", fmt.Errorf("parameter '%s' must be one of %v, got %q", key, choices, s)
}

// GetChoice is RequireChoice with a default for an absent parameter.
func GetChoice(params map[string]any, key, defaultValue string, choices ...string) (string, error) {
	if v, ok := params[key]; !ok || v == nil {
		return defaultValue, nil
	}
	return RequireChoice(params, key, choices...)
}
