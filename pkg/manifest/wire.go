package manifest

import (
	"strings"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
)

// WireField renders a field the way the orchestrator's form builder reads
// it: displayOptions.show is a map from field to values and accepted
// extensions are one comma separated string.
func WireField(f domain.FieldSpec) map[string]any {
	m := map[string]any{
		"name":        f.Name,
		"displayName": f.DisplayName,
		"type":        string(f.Kind),
		"required":    f.Required,
	}
	if f.Description != "" {
		m["description"] = f.Description
	}
	if f.Default != nil {
		m["default"] = f.Default
	}
	if len(f.Options) > 0 {
		opts := make([]map[string]any, len(f.Options))
		for i, o := range f.Options {
			opts[i] = map[string]any{"name": o.Label, "value": o.Value}
		}
		m["options"] = opts
	}
	if f.Visibility != nil && len(f.Visibility.Show) > 0 {
		show := make(map[string][]string, len(f.Visibility.Show))
		for _, c := range f.Visibility.Show {
			show[c.Field] = c.Values
		}
		m["displayOptions"] = map[string]any{"show": show}
	}
	if c := f.Constraints; c != nil {
		typeOptions := map[string]any{"multipleValues": c.AllowMultiple}
		if len(c.AcceptedExtensions) > 0 {
			typeOptions["accept"] = strings.Join(c.AcceptedExtensions, ",")
		}
		if c.MaxSizeBytes > 0 {
			typeOptions["maxSize"] = c.MaxSizeBytes
		}
		m["typeOptions"] = typeOptions
	}
	if len(f.Properties) > 0 {
		m["properties"] = WireFields(f.Properties)
	}
	return m
}

// WireFields renders fields in order.
func WireFields(fields []domain.FieldSpec) []map[string]any {
	out := make([]map[string]any, len(fields))
	for i, f := range fields {
		out[i] = WireField(f)
	}
	return out
}
