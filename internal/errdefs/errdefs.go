// Package errdefs defines the engine error taxonomy.
//
// Every external collaborator failure is classified into one of these kinds
// so callers can distinguish a credential failure from a network query
// failure from an apply failure. Errors are wrapped at each discrete step
// with the step name, and classified with errors.As at the surface.
package errdefs

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable error classification.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not-found"
	KindCredential   Kind = "credential"
	KindToolNotFound Kind = "tool-not-found"
	KindExternalTool Kind = "external-tool"
	KindCloudAPI     Kind = "cloud-api"
	KindTimeout      Kind = "timeout"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
)

// Error is a classified engine error. Step identifies the discrete external
// step that failed (e.g. "terraform-apply", "nodegroup-drain").
type Error struct {
	Kind    Kind
	Step    string
	Message string
	Stderr  string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Step != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Step, e.Message, e.Err)
	case e.Step != "":
		return fmt.Sprintf("%s: %s", e.Step, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed input. No external call has been made.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an unknown account, cluster or record.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Credential reports a decrypt or authentication failure.
func Credential(msg string, err error) error {
	return &Error{Kind: KindCredential, Message: msg, Err: err}
}

// ToolNotFound reports a missing external binary. This is a configuration
// defect, not a transient failure.
func ToolNotFound(tool string, err error) error {
	return &Error{Kind: KindToolNotFound, Message: fmt.Sprintf("executable %q not found", tool), Err: err}
}

// ExternalTool reports a non-zero exit from an external CLI, carrying the
// captured stderr.
func ExternalTool(step, stderr string, err error) error {
	return &Error{Kind: KindExternalTool, Step: step, Message: "external tool failed", Stderr: stderr, Err: err}
}

// CloudAPI wraps a cloud provider error.
func CloudAPI(step string, err error) error {
	return &Error{Kind: KindCloudAPI, Step: step, Message: "cloud API call failed", Err: err}
}

// Timeout reports an external process exceeding its budget.
func Timeout(step string, err error) error {
	return &Error{Kind: KindTimeout, Step: step, Message: "operation timed out", Err: err}
}

// Conflict reports a uniqueness violation, e.g. a duplicate cluster record.
func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// WithStep tags an error with the step name it occurred in, preserving the
// original kind if the error is already classified.
func WithStep(step string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return &Error{Kind: e.Kind, Step: step, Message: e.Message, Stderr: e.Stderr, Err: e.Err}
	}
	return &Error{Kind: KindInternal, Step: step, Message: "operation failed", Err: err}
}

// KindOf returns the kind of a classified error, or KindInternal for
// unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is classified with the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
