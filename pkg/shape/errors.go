package shape

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the shape engine reports.
type ErrorKind int

const (
	UnsupportedShapeKind    ErrorKind = iota // kind not recognized
	MissingRequiredProperty                  // kind-specific sub-properties absent or unusable
	ImageLoadFailure                         // image bytes could not be loaded at creation
	ImageUpdateFailure                       // image bytes could not be loaded on modify
	NodeNotFound                             // node reference does not resolve
)

func (k ErrorKind) String() string {
	switch k {
	case UnsupportedShapeKind:
		return "unsupported_shape_kind"
	case MissingRequiredProperty:
		return "missing_required_property"
	case ImageLoadFailure:
		return "image_load_failure"
	case ImageUpdateFailure:
		return "image_update_failure"
	case NodeNotFound:
		return "node_not_found"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the error type returned by Engine operations.
type Error struct {
	Kind     ErrorKind
	Shape    ShapeKind // offending kind, when known
	Property string    // missing property path, e.g. "polygon.sides"
	NodeID   string    // node being read or modified
	Err      error     // underlying cause for image failures

	msg string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ImageLoadFailure:
		return fmt.Sprintf("Failed to load image: %v", e.Err)
	case ImageUpdateFailure:
		return fmt.Sprintf("Failed to update image: %v", e.Err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return 0, false
	}
	return e.Kind, true
}

func errUnsupported(kind ShapeKind) *Error {
	return &Error{
		Kind:  UnsupportedShapeKind,
		Shape: kind,
		msg:   fmt.Sprintf("Unsupported shape type: %s", kind),
	}
}

func errMissing(kind ShapeKind, property, msg string) *Error {
	return &Error{
		Kind:     MissingRequiredProperty,
		Shape:    kind,
		Property: property,
		msg:      msg,
	}
}

func errImageLoad(err error) *Error {
	return &Error{Kind: ImageLoadFailure, Shape: KindImage, Err: err}
}

func errImageUpdate(id string, err error) *Error {
	return &Error{Kind: ImageUpdateFailure, NodeID: id, Err: err}
}

func errNotFound(id string) *Error {
	return &Error{
		Kind:   NodeNotFound,
		NodeID: id,
		msg:    fmt.Sprintf("Node not found: %s", id),
	}
}
