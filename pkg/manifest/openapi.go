package manifest

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
)

// Info is the header of the generated document.
type Info struct {
	Title       string
	Version     string
	Description string
}

var errorKinds = []any{
	string(domain.KindValidation),
	string(domain.KindUnsupported),
	string(domain.KindExternalFailure),
	string(domain.KindExternalTimeout),
	string(domain.KindDownloadFailed),
	string(domain.KindUploadFailed),
	string(domain.KindNotFound),
	string(domain.KindInternal),
}

// ErrorSchema is the body of every non-2xx tool response.
func ErrorSchema() *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema()).
		WithProperty("kind", openapi3.NewStringSchema().WithEnum(errorKinds...)).
		WithProperty("taskId", openapi3.NewStringSchema())
	s.Required = []string{"error", "kind"}
	return s
}

// Document builds and validates the OpenAPI description of tools. Each tool
// becomes a POST operation on its path.
func Document(ctx context.Context, info Info, tools []domain.ToolDescriptor) (*openapi3.T, error) {
	errRef := openapi3.NewSchemaRef("#/components/schemas/Error", ErrorSchema())
	if info.Version == "" {
		info.Version = "dev"
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       info.Title,
			Version:     info.Version,
			Description: info.Description,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{"Error": openapi3.NewSchemaRef("", ErrorSchema())},
		},
	}

	for _, t := range tools {
		doc.Paths.Set(t.Path, &openapi3.PathItem{Post: operation(t, errRef)})
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("openapi document: %w", err)
	}
	return doc, nil
}

func operation(t domain.ToolDescriptor, errRef *openapi3.SchemaRef) *openapi3.Operation {
	errResponse := func(desc string) *openapi3.ResponseRef {
		return &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(desc).WithJSONSchemaRef(errRef)}
	}

	op := &openapi3.Operation{
		OperationID: t.Name,
		Summary:     t.DisplayName,
		Description: t.Description,
		Tags:        t.Categories,
		RequestBody: &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(InputSchema(t.Inputs)),
		},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().WithDescription("Tool result").WithJSONSchema(outputSchema(t.Outputs)),
			}),
			openapi3.WithStatus(http.StatusBadRequest, errResponse("Invalid parameters")),
			openapi3.WithStatus(http.StatusUnprocessableEntity, errResponse("Unsupported operation")),
			openapi3.WithStatus(http.StatusBadGateway, errResponse("Collaborator or storage failure")),
			openapi3.WithStatus(http.StatusGatewayTimeout, errResponse("Collaborator timed out")),
			openapi3.WithStatus(http.StatusInternalServerError, errResponse("Internal error")),
		),
	}
	op.Extensions = map[string]any{
		"x-monkey-tool-name":         t.Name,
		"x-monkey-tool-categories":   t.Categories,
		"x-monkey-tool-display-name": t.DisplayName,
		"x-monkey-tool-description":  t.Description,
		"x-monkey-tool-icon":         t.Icon,
		"x-monkey-tool-extra":        map[string]any{"estimateTime": t.EstimatedSeconds},
		"x-monkey-tool-input":        WireFields(t.Inputs),
		"x-monkey-tool-output":       WireFields(t.Outputs),
	}
	return op
}

// InputSchema merges fields sharing a name, as used for mutually exclusive
// variants: their options are united and only unconditional fields are
// listed as required.
func InputSchema(fields []domain.FieldSpec) *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	enums := map[string][]any{}
	for _, f := range fields {
		if f.Kind == domain.KindOptions {
			for _, v := range f.OptionValues() {
				if !slices.Contains(enums[f.Name], any(v)) {
					enums[f.Name] = append(enums[f.Name], v)
				}
			}
		}
		if _, seen := s.Properties[f.Name]; seen {
			continue
		}
		s.WithProperty(f.Name, fieldSchema(f))
		if f.Required && f.Visibility == nil {
			s.Required = append(s.Required, f.Name)
		}
	}
	for name, values := range enums {
		prop := s.Properties[name].Value
		if items := prop.Items; items != nil {
			prop = items.Value
		}
		prop.Enum = values
		if prop.Default != nil && !slices.Contains(values, prop.Default) {
			prop.Default = nil
		}
	}
	return s
}

func outputSchema(fields []domain.FieldSpec) *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	for _, f := range fields {
		s.WithProperty(f.Name, fieldSchema(f))
		s.Required = append(s.Required, f.Name)
	}
	return s
}

func fieldSchema(f domain.FieldSpec) *openapi3.Schema {
	var base *openapi3.Schema
	switch f.Kind {
	case domain.KindNumber:
		base = openapi3.NewFloat64Schema()
	case domain.KindBoolean:
		base = openapi3.NewBoolSchema()
	case domain.KindAny:
		base = openapi3.NewSchema()
	default:
		base = openapi3.NewStringSchema()
	}
	if len(f.Properties) > 0 {
		base = openapi3.NewObjectSchema()
		for _, p := range f.Properties {
			base.WithProperty(p.Name, fieldSchema(p))
		}
	}
	base.Title = f.DisplayName
	base.Description = f.Description

	if f.Multiple() {
		arr := openapi3.NewArraySchema().WithItems(base)
		arr.Title = f.DisplayName
		if list, ok := f.Default.([]any); ok {
			arr.Default = list
		}
		return arr
	}
	if f.Default != nil && !(f.Kind != domain.KindString && f.Default == "") {
		base.Default = numeric(f.Kind, f.Default)
	}
	return base
}

// numeric widens integer defaults of number fields to float64.
func numeric(kind domain.FieldKind, v any) any {
	if kind != domain.KindNumber {
		return v
	}
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return v
}
