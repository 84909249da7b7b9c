package schema

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
)

// Type coerces one raw value into the Go representation of a field kind.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "number").
	Name() string
	// Coerce converts value or reports why it does not conform to f.
	Coerce(f domain.FieldSpec, value any) (any, error)
}

// --- Built-in Type Implementations ---

// StringType accepts strings. Numbers and booleans are formatted.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Coerce(f domain.FieldSpec, value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case json.Number:
		return v.String(), nil
	case int:
		return strconv.Itoa(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return nil, TypeMismatch(f.Name, value, t.Name())
	}
}

// NumberType accepts JSON numbers and numeric strings. Result is float64.
type NumberType struct{}

func (t *NumberType) Name() string { return "number" }

func (t *NumberType) Coerce(f domain.FieldSpec, value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return nil, TypeMismatch(f.Name, value, t.Name())
		}
		return n, nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, TypeMismatch(f.Name, value, t.Name())
		}
		return n, nil
	default:
		return nil, TypeMismatch(f.Name, value, t.Name())
	}
}

// BooleanType accepts booleans and the strings "true" and "false".
type BooleanType struct{}

func (t *BooleanType) Name() string { return "boolean" }

func (t *BooleanType) Coerce(f domain.FieldSpec, value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return nil, TypeMismatch(f.Name, value, t.Name())
}

// OptionsType accepts one of the declared option values.
type OptionsType struct{}

func (t *OptionsType) Name() string { return "options" }

func (t *OptionsType) Coerce(f domain.FieldSpec, value any) (any, error) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case float64, bool, json.Number, int:
		s = fmt.Sprint(v)
	default:
		return nil, TypeMismatch(f.Name, value, t.Name())
	}
	if !slices.Contains(f.OptionValues(), s) {
		return nil, InvalidOptionValue(f.Name, s)
	}
	return s, nil
}

// FileType accepts a URL whose path ends in one of the accepted extensions.
type FileType struct{}

func (t *FileType) Name() string { return "file" }

func (t *FileType) Coerce(f domain.FieldSpec, value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, TypeMismatch(f.Name, value, t.Name())
	}
	s = strings.TrimSpace(s)
	ext := Extension(s)
	var accepted []string
	if f.Constraints != nil {
		accepted = f.Constraints.AcceptedExtensions
	}
	for _, a := range accepted {
		if normalizeExt(a) == ext && ext != "" {
			return s, nil
		}
	}
	return nil, UnsupportedFileType(f.Name, ext)
}

// Extension returns the lower-cased extension of the path component of
// rawURL, including the leading dot. Query and fragment are ignored.
func Extension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	return strings.ToLower(path.Ext(p))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// --- Factory Functions ---

// TypeFor returns the coercer for an input kind.
func TypeFor(kind domain.FieldKind) (Type, error) {
	switch kind {
	case domain.KindString:
		return &StringType{}, nil
	case domain.KindNumber:
		return &NumberType{}, nil
	case domain.KindBoolean:
		return &BooleanType{}, nil
	case domain.KindOptions:
		return &OptionsType{}, nil
	case domain.KindFile:
		return &FileType{}, nil
	default:
		return nil, fmt.Errorf("unknown input kind: %s", kind)
	}
}
