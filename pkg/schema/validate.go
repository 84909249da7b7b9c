package schema

import (
	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
)

// Validate checks raw request parameters against the declared inputs of d.
//
// Fields are processed in declaration order and visibility is evaluated
// against the fields validated before them, so a field may depend on an
// earlier selector. Hidden fields are ignored even when present. The first
// failure is returned as a *FieldError.
func Validate(d domain.ToolDescriptor, raw map[string]any) (Params, error) {
	values := make(map[string]any, len(d.Inputs))

	for _, f := range d.Inputs {
		if !f.Visibility.Visible(values) {
			continue
		}

		typ, err := TypeFor(f.Kind)
		if err != nil {
			return Params{}, err
		}

		value, present := raw[f.Name]
		if !present || isAbsent(f, value) {
			if f.Required {
				return Params{}, MissingRequiredField(f.Name)
			}
			if f.Default != nil {
				values[f.Name] = f.Default
			}
			continue
		}

		coerced, err := coerceField(typ, f, value)
		if err != nil {
			return Params{}, err
		}
		if coerced == nil {
			// Empty list for a multi-valued field.
			if f.Required {
				return Params{}, MissingRequiredField(f.Name)
			}
			continue
		}
		values[f.Name] = coerced
	}

	return Params{values: values}, nil
}

func coerceField(typ Type, f domain.FieldSpec, value any) (any, error) {
	if !f.Multiple() {
		if _, isList := value.([]any); isList {
			return nil, TypeMismatch(f.Name, value, typ.Name())
		}
		return typ.Coerce(f, value)
	}

	items := asList(value)
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		if item == nil {
			return nil, TypeMismatch(f.Name, item, typ.Name())
		}
		c, err := typ.Coerce(f, item)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// asList wraps a single scalar so multi-valued fields accept either shape.
func asList(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return []any{value}
	}
}

// isAbsent treats JSON null as missing, and the empty string as missing for
// every kind except string.
func isAbsent(f domain.FieldSpec, value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok && s == "" {
		return f.Kind != domain.KindString
	}
	return false
}
