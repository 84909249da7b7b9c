/*
Package domain contains the core data model shared by every tool exposed by the service.

It is kept free of I/O: descriptors are plain values built at startup, invocations are
created per request, and errors carry a stable kind that adapters map onto their own
transport (HTTP status codes, MCP tool errors).

# Key Entities

  - ToolDescriptor: static metadata of a tool (name, categories, input/output fields).
  - FieldSpec: one input or output field, with its kind, default, options and visibility.
  - Invocation: a single call into a tool, carrying a unique task id and caller identity.
  - StoredArtifact: the durable location of a file produced by a tool.
  - Error: a tool-scoped failure with a machine-readable Kind.
*/
package domain
