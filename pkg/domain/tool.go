package domain

import (
	"fmt"
	"slices"
	"strings"
)

// FieldKind is the declared type of a tool field.
type FieldKind string

const (
	KindString  FieldKind = "string"
	KindNumber  FieldKind = "number"
	KindBoolean FieldKind = "boolean"
	KindFile    FieldKind = "file"
	KindOptions FieldKind = "options"
	// KindAny is only meaningful for output fields.
	KindAny FieldKind = "any"
)

// ToolDescriptor is the static metadata of a registered tool.
// Descriptors are built once at startup and never mutated afterwards.
type ToolDescriptor struct {
	Name             string      `json:"name" yaml:"name"`
	Path             string      `json:"path" yaml:"path"`
	Categories       []string    `json:"categories" yaml:"categories"`
	DisplayName      string      `json:"displayName" yaml:"displayName"`
	Description      string      `json:"description" yaml:"description"`
	Icon             string      `json:"icon,omitempty" yaml:"icon,omitempty"`
	EstimatedSeconds int         `json:"estimatedSeconds,omitempty" yaml:"estimatedSeconds,omitempty"`
	Inputs           []FieldSpec `json:"input" yaml:"input"`
	Outputs          []FieldSpec `json:"output" yaml:"output"`
}

// FieldSpec describes a single input or output field of a tool.
type FieldSpec struct {
	Name        string       `json:"name" yaml:"name"`
	DisplayName string       `json:"displayName" yaml:"displayName"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Kind        FieldKind    `json:"type" yaml:"type"`
	Default     any          `json:"default,omitempty" yaml:"default,omitempty"`
	Required    bool         `json:"required" yaml:"required"`
	Options     []Option     `json:"options,omitempty" yaml:"options,omitempty"`
	Visibility  *Visibility  `json:"displayOptions,omitempty" yaml:"displayOptions,omitempty"`
	Constraints *Constraints `json:"typeOptions,omitempty" yaml:"typeOptions,omitempty"`
	// Properties describes the shape of structured output values.
	Properties []FieldSpec `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Option is one selectable value of an options field.
type Option struct {
	Label string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Constraints restricts the accepted values of a field.
type Constraints struct {
	AcceptedExtensions []string `json:"accept,omitempty" yaml:"accept,omitempty"`
	MaxSizeBytes       int64    `json:"maxSize,omitempty" yaml:"maxSize,omitempty"`
	AllowMultiple      bool     `json:"multipleValues" yaml:"multipleValues"`
}

// Condition holds when Field currently has one of Values.
type Condition struct {
	Field  string   `json:"field" yaml:"field"`
	Values []string `json:"values" yaml:"values"`
}

// Visibility is a predicate over sibling field values. A field is visible
// only if every condition holds.
type Visibility struct {
	Show []Condition `json:"show" yaml:"show"`
}

// ShowWhen builds a visibility predicate with a single condition.
func ShowWhen(field string, values ...string) *Visibility {
	return &Visibility{Show: []Condition{{Field: field, Values: values}}}
}

// Visible evaluates the predicate against already known field values.
// A nil predicate is always visible.
func (v *Visibility) Visible(values map[string]any) bool {
	if v == nil {
		return true
	}
	for _, cond := range v.Show {
		current, ok := values[cond.Field]
		if !ok {
			return false
		}
		if !slices.Contains(cond.Values, fmt.Sprint(current)) {
			return false
		}
	}
	return true
}

// Multiple reports whether the field accepts a list of values.
func (f FieldSpec) Multiple() bool {
	return f.Constraints != nil && f.Constraints.AllowMultiple
}

// OptionValues returns the declared option values in order.
func (f FieldSpec) OptionValues() []string {
	values := make([]string, len(f.Options))
	for i, o := range f.Options {
		values[i] = o.Value
	}
	return values
}

// Check enforces the structural invariants of a field.
func (f FieldSpec) Check() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: field without name", ErrInvalidDescriptor)
	}
	if f.Required && f.Default != nil {
		return fmt.Errorf("%w: required field %q declares a default that is never applied", ErrInvalidDescriptor, f.Name)
	}
	switch f.Kind {
	case KindString, KindNumber, KindBoolean, KindAny:
	case KindOptions:
		if len(f.Options) == 0 {
			return fmt.Errorf("%w: options field %q declares no options", ErrInvalidDescriptor, f.Name)
		}
	case KindFile:
		if f.Constraints == nil || len(f.Constraints.AcceptedExtensions) == 0 {
			return fmt.Errorf("%w: file field %q declares no accepted extensions", ErrInvalidDescriptor, f.Name)
		}
	default:
		return fmt.Errorf("%w: field %q has unknown kind %q", ErrInvalidDescriptor, f.Name, f.Kind)
	}
	return nil
}

// Check enforces the structural invariants of a descriptor.
func (d ToolDescriptor) Check() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: tool without name", ErrInvalidDescriptor)
	}
	if !strings.HasPrefix(d.Path, "/") {
		return fmt.Errorf("%w: tool %q path %q must start with /", ErrInvalidDescriptor, d.Name, d.Path)
	}
	for _, f := range d.Inputs {
		if f.Kind == KindAny {
			return fmt.Errorf("%w: input field %q of tool %q cannot be of kind any", ErrInvalidDescriptor, f.Name, d.Name)
		}
		if err := f.Check(); err != nil {
			return fmt.Errorf("tool %q: %w", d.Name, err)
		}
	}
	for _, f := range d.Outputs {
		if err := f.Check(); err != nil {
			return fmt.Errorf("tool %q: %w", d.Name, err)
		}
	}
	return nil
}

// OutputNames returns the distinct output field names in declaration order.
func (d ToolDescriptor) OutputNames() []string {
	names := make([]string, 0, len(d.Outputs))
	for _, f := range d.Outputs {
		if !slices.Contains(names, f.Name) {
			names = append(names, f.Name)
		}
	}
	return names
}

// Output is the value returned by a tool, keyed by output field name.
type Output map[string]any

// CallerIdentity identifies who triggered an invocation. It is informational
// only and never used for authorization.
type CallerIdentity struct {
	AppID              string `json:"appId,omitempty"`
	UserID             string `json:"userId,omitempty"`
	TeamID             string `json:"teamId,omitempty"`
	WorkflowInstanceID string `json:"workflowInstanceId,omitempty"`
}

// LogAttrs flattens the identity into key/value pairs for structured loggers.
func (c CallerIdentity) LogAttrs() []any {
	var attrs []any
	if c.AppID != "" {
		attrs = append(attrs, "app_id", c.AppID)
	}
	if c.UserID != "" {
		attrs = append(attrs, "user_id", c.UserID)
	}
	if c.TeamID != "" {
		attrs = append(attrs, "team_id", c.TeamID)
	}
	if c.WorkflowInstanceID != "" {
		attrs = append(attrs, "workflow_instance_id", c.WorkflowInstanceID)
	}
	return attrs
}

// Invocation is one call into a tool. It lives for the duration of a request.
type Invocation struct {
	TaskID   string         `json:"taskId"`
	ToolName string         `json:"toolName"`
	Params   map[string]any `json:"params,omitempty"`
	Caller   CallerIdentity `json:"caller"`
}

// StoredArtifact is the result of uploading a file to durable storage.
type StoredArtifact struct {
	URL string `json:"url"`
	Key string `json:"key,omitempty"`
}
