// Package manifest describes the registered tools to the workflow
// orchestrator: a small manifest record pointing at an OpenAPI document in
// which every operation carries the tool metadata as x-monkey-tool-*
// extensions.
package manifest

// Defaults of the manifest record.
const (
	SchemaVersion  = "v1"
	DefaultNS      = "monkeys_tools_text"
	DefaultContact = "dev@inf-monkeys.com"
	DefaultDocURL  = "/swagger.json"
)

// Manifest is the process-wide discovery record served at /manifest.json.
type Manifest struct {
	SchemaVersion string `json:"schema_version"`
	Namespace     string `json:"namespace"`
	Auth          Auth   `json:"auth"`
	API           API    `json:"api"`
	ContactEmail  string `json:"contact_email"`
}

// Auth declares how callers authenticate. Only "none" is supported.
type Auth struct {
	Type string `json:"type"`
}

// API points at the schema document.
type API struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// New builds a manifest. Empty arguments fall back to the defaults.
func New(namespace, docURL, contact string) Manifest {
	if namespace == "" {
		namespace = DefaultNS
	}
	if docURL == "" {
		docURL = DefaultDocURL
	}
	if contact == "" {
		contact = DefaultContact
	}
	return Manifest{
		SchemaVersion: SchemaVersion,
		Namespace:     namespace,
		Auth:          Auth{Type: "none"},
		API:           API{Type: "openapi", URL: docURL},
		ContactEmail:  contact,
	}
}
