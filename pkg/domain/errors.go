package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a failure so callers can react without parsing messages.
type ErrorKind string

const (
	KindValidation      ErrorKind = "VALIDATION_ERROR"
	KindUnsupported     ErrorKind = "UNSUPPORTED_OPERATION"
	KindExternalFailure ErrorKind = "EXTERNAL_CALL_FAILURE"
	KindExternalTimeout ErrorKind = "EXTERNAL_CALL_TIMEOUT"
	KindDownloadFailed  ErrorKind = "DOWNLOAD_FAILED"
	KindUploadFailed    ErrorKind = "UPLOAD_FAILED"
	KindNotFound        ErrorKind = "TOOL_NOT_FOUND"
	KindInternal        ErrorKind = "INTERNAL"
)

var (
	// ErrDuplicateTool is returned when two tools are registered under the same name.
	ErrDuplicateTool = errors.New("duplicate tool")
	// ErrInvalidDescriptor is returned when a descriptor breaks a field invariant.
	ErrInvalidDescriptor = errors.New("invalid tool descriptor")
	// ErrToolNotFound is returned when no tool is registered under a name.
	ErrToolNotFound = errors.New("tool not found")
	// ErrRegistrySealed is returned when registering after startup.
	ErrRegistrySealed = errors.New("registry is sealed")

	ErrUnsupportedConversion = errors.New("unsupported conversion")
	ErrUnknownSplitter       = errors.New("unknown splitter")
	ErrExternalCallFailure   = errors.New("external call failed")
	ErrExternalCallTimeout   = errors.New("external call timed out")
	ErrDownloadFailed        = errors.New("download failed")
	ErrUploadFailed          = errors.New("upload failed")
)

// Error is a tool-scoped failure. It keeps the original cause reachable
// through errors.Is and errors.As.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Tool    string    `json:"tool,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`

	sentinel error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Tool != "" {
		b.WriteString(e.Tool)
		b.WriteString(": ")
	}
	msg := strings.TrimSpace(e.Message)
	switch {
	case msg != "" && e.Cause != nil:
		fmt.Fprintf(&b, "%s: %v", msg, e.Cause)
	case msg != "":
		b.WriteString(msg)
	case e.Cause != nil:
		b.WriteString(e.Cause.Error())
	default:
		b.WriteString(string(e.Kind))
	}
	return b.String()
}

// Unwrap exposes the wrapped cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches the sentinel the error was built for, e.g. ErrExternalCallTimeout.
func (e *Error) Is(target error) bool {
	return e != nil && e.sentinel != nil && e.sentinel == target
}

// NewError builds a tool error of the given kind.
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithTool scopes err to a tool. Errors that are already tool errors keep
// their kind; anything else becomes an external call failure.
func WithTool(tool string, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		if te.Tool != "" {
			return err
		}
		scoped := *te
		scoped.Tool = tool
		return &scoped
	}
	return &Error{Kind: KindExternalFailure, Tool: tool, Message: "external call failed", Cause: err, sentinel: ErrExternalCallFailure}
}

// KindOf returns the kind of the first tool error in err's chain.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	switch {
	case errors.Is(err, ErrToolNotFound):
		return KindNotFound
	case errors.Is(err, ErrExternalCallTimeout):
		return KindExternalTimeout
	}
	return KindInternal
}

// UnsupportedConversion reports a (from, to) pair without a converter.
func UnsupportedConversion(from, to string) *Error {
	return &Error{
		Kind:     KindUnsupported,
		Message:  fmt.Sprintf("conversion from %q to %q is not supported", from, to),
		sentinel: ErrUnsupportedConversion,
	}
}

// UnknownSplitter reports a split type without a splitter.
func UnknownSplitter(name string) *Error {
	return &Error{
		Kind:     KindUnsupported,
		Message:  fmt.Sprintf("split type %q is not supported", name),
		sentinel: ErrUnknownSplitter,
	}
}

// DownloadFailed reports a failed download. status is zero when no HTTP
// response was received.
func DownloadFailed(url string, status int, cause error) *Error {
	msg := fmt.Sprintf("download of %s failed", url)
	if status != 0 {
		msg = fmt.Sprintf("download of %s failed with status %d", url, status)
	}
	return &Error{Kind: KindDownloadFailed, Message: msg, Cause: cause, sentinel: ErrDownloadFailed}
}

// UploadFailed reports a failed upload of a local file.
func UploadFailed(key string, cause error) *Error {
	return &Error{
		Kind:     KindUploadFailed,
		Message:  fmt.Sprintf("upload of %s failed", key),
		Cause:    cause,
		sentinel: ErrUploadFailed,
	}
}

// ExternalCallFailure reports a collaborator that exited non-zero or errored.
func ExternalCallFailure(what string, cause error) *Error {
	return &Error{
		Kind:     KindExternalFailure,
		Message:  what + " failed",
		Cause:    cause,
		sentinel: ErrExternalCallFailure,
	}
}

// ExternalCallTimeout reports a collaborator that exceeded its time bound.
func ExternalCallTimeout(what string, cause error) *Error {
	return &Error{
		Kind:     KindExternalTimeout,
		Message:  what + " timed out",
		Cause:    cause,
		sentinel: ErrExternalCallTimeout,
	}
}

// InvalidInput reports a request that passed schema validation but is
// still unusable, e.g. an empty search text.
func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}
