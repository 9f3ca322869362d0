package diag

import (
	"fmt"
	"strings"

	"github.com/vk/strictconf/internal/document"
)

// Site locates a diagnostic: the dotted path of the enclosing mapping, the
// offending key within it (may be empty when the path alone identifies the
// element), and the source position of the node involved.
type Site struct {
	Path string
	Key  string
	Pos  document.Position
}

// Where returns the site itself; embedding Site gives every diagnostic
// type its Where method.
func (s Site) Where() Site { return s }

// Subject renders "path.key", degrading gracefully when either part is empty.
func (s Site) Subject() string {
	switch {
	case s.Path == "" && s.Key == "":
		return "(document root)"
	case s.Path == "":
		return s.Key
	case s.Key == "":
		return s.Path
	default:
		return s.Path + "." + s.Key
	}
}

// Diagnostic is the interface all binder errors implement.
type Diagnostic interface {
	error
	Where() Site
}

// UnknownKeyError reports a document key that matches no schema field.
// Known lists the valid source names in schema declaration order.
type UnknownKeyError struct {
	Site
	Known      []string
	Suggestion string
}

func (e *UnknownKeyError) Error() string {
	msg := fmt.Sprintf("unknown key %q; valid keys are: %s", e.Key, strings.Join(e.Known, ", "))
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

// MissingKeyError reports a required field absent from both the override
// table and the document.
type MissingKeyError struct {
	Site
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing required key %q", e.Key)
}

// TypeMismatchError reports a node whose kind disagrees with what the
// field's type expects.
type TypeMismatchError struct {
	Site
	Expected document.Kind
	Actual   document.Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("expected a %s, got a %s", e.Expected, e.Actual)
}

// DurationShapeError reports a duration field whose node fits neither the
// suffix form nor the unit-mapping form. Units lists the accepted unit names.
type DurationShapeError struct {
	Site
	Units  []string
	Reason string
}

func (e *DurationShapeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (accepted units: %s)", e.Reason, strings.Join(e.Units, ", "))
	}
	return fmt.Sprintf("expected an integer scalar or a mapping of duration units (accepted units: %s)", strings.Join(e.Units, ", "))
}

// ConstructionError wraps a failure raised inside a converter, text
// unmarshaler, or native scalar conversion.
type ConstructionError struct {
	Site
	Cause error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("cannot construct value: %v", e.Cause)
}

func (e *ConstructionError) Unwrap() error { return e.Cause }

// ValidationError wraps a failure raised by a record's post-construction
// validation hook. Its site is the mapping's own path, not a child field.
type ValidationError struct {
	Site
	Cause error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Cause)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// DuplicateKeyError reports a field supplied both by the document and by an
// injected source (a command-line override or a key-transform name) while
// binding strictly. Source names the competing supplier.
type DuplicateKeyError struct {
	Site
	Source string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("key %q is set both in the document and by %s", e.Key, e.Source)
}
