package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// InvariantError reports a defect in an upstream stage or in the input
// shape. It is never retried.
//
// Untranslatable nodes are NOT invariant errors: they are ordinary results
// that drive the projection binder's fallback to mixed evaluation.
type InvariantError struct {
	// Code identifies the violated invariant.
	Code InvariantCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context (member paths, select IDs).
	Details map[string]string
}

// InvariantCode categorizes invariant violations.
type InvariantCode string

const (
	// ErrCodeForeignSource indicates a projection binding that points into a
	// different Select than the one being compiled.
	ErrCodeForeignSource InvariantCode = "FOREIGN_SOURCE"

	// ErrCodeAmbiguousSlot indicates two shape leaves claiming one slot key.
	ErrCodeAmbiguousSlot InvariantCode = "AMBIGUOUS_SLOT"

	// ErrCodeUnmappedMember indicates a slot key with no mapped projection.
	ErrCodeUnmappedMember InvariantCode = "UNMAPPED_MEMBER"

	// ErrCodeNotEntityProjection indicates an entity shaper backed by a
	// scalar projection.
	ErrCodeNotEntityProjection InvariantCode = "NOT_ENTITY_PROJECTION"

	// ErrCodeBadValueBuffer indicates an entity shaper whose value buffer is
	// not a projection binding.
	ErrCodeBadValueBuffer InvariantCode = "BAD_VALUE_BUFFER"

	// ErrCodeProjectionIndex indicates a binding to a projection-list
	// position that does not exist.
	ErrCodeProjectionIndex InvariantCode = "PROJECTION_INDEX"
)

// Error implements the error interface.
func (e *InvariantError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + e.Details[k]
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(parts, ", "))
}

// NewInvariantError creates an InvariantError. details are key/value pairs.
func NewInvariantError(code InvariantCode, message string, details ...string) *InvariantError {
	e := &InvariantError{Code: code, Message: message}
	if len(details) > 0 {
		e.Details = make(map[string]string, len(details)/2)
		for i := 0; i+1 < len(details); i += 2 {
			e.Details[details[i]] = details[i+1]
		}
	}
	return e
}

// IsInvariantError returns true if err wraps an InvariantError.
func IsInvariantError(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}

// HasCode returns true if err wraps an InvariantError with the given code.
func HasCode(err error, code InvariantCode) bool {
	var ie *InvariantError
	if errors.As(err, &ie) {
		return ie.Code == code
	}
	return false
}
