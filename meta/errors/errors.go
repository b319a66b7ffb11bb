// Package errors provides structured error handling for the cdfgraph
// metadata model. It defines error codes for every failure class a
// structural operation can report, and a typed MetaError carrying the
// object kind and name involved, formatted for both human-readable
// terminal output and machine-parseable JSON for tooling.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// Code represents a unique error code in the metadata model
type Code string

const (
	// NameInvalid indicates an empty, oversized, or malformed name.
	NameInvalid Code = "META001"
	// NameCollision indicates a duplicate name within a naming scope.
	NameCollision Code = "META002"
	// NotFound indicates a lookup by name or id yielded no live object.
	NotFound Code = "META003"
	// TypeInUse indicates a delete was attempted on a type with a nonzero
	// reference count.
	TypeInUse Code = "META004"
	// CyclicTypeDefinition indicates a compound field or enum base would
	// create a type cycle.
	CyclicTypeDefinition Code = "META005"
	// InvalidModeForOperation indicates a structural mutation was attempted
	// outside define mode, or a data write outside data mode.
	InvalidModeForOperation Code = "META006"
	// DimensionInUse indicates a dimension delete was attempted while a
	// variable still references it.
	DimensionInUse Code = "META007"
	// ScopeViolation indicates a variable's dimension list references a
	// dimension not visible from its group.
	ScopeViolation Code = "META008"
	// AttrReadOnly indicates a mutation of a reserved, read-only attribute.
	AttrReadOnly Code = "META009"
	// BackendFailure indicates the persistence collaborator reported an
	// error while saving or loading a structural description.
	BackendFailure Code = "META010"
	// InvalidArgument indicates a structurally invalid request that no
	// more specific code covers (bad enum base, overlapping field offsets,
	// zero-size opaque type).
	InvalidArgument Code = "META011"
)

// MetaError represents a structured metadata-model error.
// All structural operations return errors of this type so callers can
// dispatch on Code without parsing messages.
type MetaError struct {
	// Code is the unique error code (e.g. "META002")
	Code Code `json:"code"`
	// Kind is the object kind involved ("group", "dimension", ...), if known
	Kind string `json:"kind,omitempty"`
	// Name is the object name involved, if known
	Name string `json:"name,omitempty"`
	// Message is the primary error message
	Message string `json:"message"`
	// Wrapped is the underlying error, if any (backend failures)
	Wrapped error `json:"-"`
}

// Error implements the error interface
func (e *MetaError) Error() string {
	switch {
	case e.Name != "" && e.Kind != "":
		return fmt.Sprintf("%s: %s %q: %s", e.Code, e.Kind, e.Name, e.Message)
	case e.Name != "":
		return fmt.Sprintf("%s: %q: %s", e.Code, e.Name, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying error, if any
func (e *MetaError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a MetaError with the same code.
// This lets callers match with errors.Is against a bare code error.
func (e *MetaError) Is(target error) bool {
	t, ok := target.(*MetaError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ToJSON returns the error as a JSON string for tooling consumption
func (e *MetaError) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// New creates a MetaError with the given code and message
func New(code Code, message string) *MetaError {
	return &MetaError{Code: code, Message: message}
}

// Newf creates a MetaError with a formatted message
func Newf(code Code, format string, args ...interface{}) *MetaError {
	return &MetaError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithObject attaches the object kind and name to the error
func (e *MetaError) WithObject(kind, name string) *MetaError {
	e.Kind = kind
	e.Name = name
	return e
}

// Wrap creates a BackendFailure error wrapping err
func Wrap(err error, message string) *MetaError {
	return &MetaError{Code: BackendFailure, Message: message, Wrapped: err}
}

// CodeOf extracts the error code from err, or "" if err is not a MetaError
func CodeOf(err error) Code {
	var me *MetaError
	if stderrors.As(err, &me) {
		return me.Code
	}
	return ""
}

// Sentinel errors for errors.Is matching. These carry only a code; every
// constructed MetaError with the same code matches them.
var (
	ErrNameInvalid             = &MetaError{Code: NameInvalid, Message: "invalid name"}
	ErrNameCollision           = &MetaError{Code: NameCollision, Message: "name already in use"}
	ErrNotFound                = &MetaError{Code: NotFound, Message: "object not found"}
	ErrTypeInUse               = &MetaError{Code: TypeInUse, Message: "type is referenced"}
	ErrCyclicTypeDefinition    = &MetaError{Code: CyclicTypeDefinition, Message: "cyclic type definition"}
	ErrInvalidModeForOperation = &MetaError{Code: InvalidModeForOperation, Message: "operation illegal in current mode"}
	ErrDimensionInUse          = &MetaError{Code: DimensionInUse, Message: "dimension is referenced"}
	ErrScopeViolation          = &MetaError{Code: ScopeViolation, Message: "dimension not visible from group"}
	ErrAttrReadOnly            = &MetaError{Code: AttrReadOnly, Message: "attribute is read-only"}
	ErrBackendFailure          = &MetaError{Code: BackendFailure, Message: "backend failure"}
	ErrInvalidArgument         = &MetaError{Code: InvalidArgument, Message: "invalid argument"}
)
