package schema

import (
	"fmt"
	"maps"

	"github.com/mitchellh/mapstructure"
)

// Params holds validated input values keyed by field name. It is read-only;
// getters return zero values for fields that are absent or hidden.
type Params struct {
	values map[string]any
}

// NewParams wraps already validated values. Mostly useful in tests.
func NewParams(values map[string]any) Params {
	return Params{values: maps.Clone(values)}
}

// Has reports whether a value (explicit or defaulted) exists for name.
func (p Params) Has(name string) bool {
	_, ok := p.values[name]
	return ok
}

// Get returns the raw value for name.
func (p Params) Get(name string) (any, bool) {
	v, ok := p.values[name]
	return v, ok
}

// String returns name as a string.
func (p Params) String(name string) string {
	switch v := p.values[name].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Float returns name as a float64.
func (p Params) Float(name string) float64 {
	switch v := p.values[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

// Int returns name truncated to an int.
func (p Params) Int(name string) int {
	switch v := p.values[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Bool returns name as a bool.
func (p Params) Bool(name string) bool {
	b, _ := p.values[name].(bool)
	return b
}

// Strings returns a multi-valued field as strings. A single value is
// returned as a one-element slice.
func (p Params) Strings(name string) []string {
	switch v := p.values[name].(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return []string{fmt.Sprint(v)}
	}
}

// Map returns a copy of all values.
func (p Params) Map() map[string]any {
	return maps.Clone(p.values)
}

// Decode copies the values into a struct using `json` field tags.
// Conversions between strings, numbers and booleans are applied.
func (p Params) Decode(into any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           into,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(p.values); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}
