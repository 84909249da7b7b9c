// Package schema validates tool invocation parameters against the declared
// input fields of a tool descriptor.
//
// Each input kind has a Type that coerces raw JSON values (numbers from
// numeric strings, booleans from "true"/"false") and rejects what does not
// conform. Validation walks fields in declaration order so visibility
// predicates can refer to earlier selector fields:
//
//	params, err := schema.Validate(descriptor, map[string]any{
//	    "documentType": "document",
//	    "document":     "hello world",
//	    "searchText":   "world",
//	})
//	if errors.Is(err, schema.ErrMissingRequiredField) {
//	    // Handle the missing field
//	}
//
//	params.String("document") // "hello world"
//
// Params can also be decoded into a struct:
//
//	var in struct {
//	    ChunkSize int `json:"chunkSize"`
//	}
//	err = params.Decode(&in)
//
// The package performs no I/O and never downloads referenced files; file
// fields are checked by the extension of their URL path only.
package schema
