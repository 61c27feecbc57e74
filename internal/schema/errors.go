package schema

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNotFound is matched by every NotFoundError
	ErrNotFound = errors.New("not found")
	// ErrValidation is matched by every ValidationError
	ErrValidation = errors.New("invalid schema")
	// ErrDanglingReference is matched by every DanglingReferenceError
	ErrDanglingReference = errors.New("dangling reference")
	// ErrConflict is matched by every ConflictError
	ErrConflict = errors.New("conflict")
)

// Kind names the entity an error refers to
type Kind string

const (
	KindTable        Kind = "table"
	KindColumn       Kind = "column"
	KindRelationship Kind = "relationship"
	KindDiagram      Kind = "diagram"
)

// NotFoundError is returned when an operation references an id that does not exist
type NotFoundError struct {
	Kind Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFound returns a NotFoundError for the given entity
func NewNotFound(kind Kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// ValidationError lists every problem found in a schema or an operation's arguments
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidation returns a ValidationError with a single formatted problem
func NewValidation(format string, args ...any) error {
	return &ValidationError{Problems: []string{fmt.Sprintf(format, args...)}}
}

// DanglingReferenceError describes a relationship endpoint that does not resolve
type DanglingReferenceError struct {
	RelationshipID string
	Kind           Kind
	ID             string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("relationship %q references missing %s %q", e.RelationshipID, e.Kind, e.ID)
}

func (e *DanglingReferenceError) Is(target error) bool {
	return target == ErrDanglingReference
}

// ConflictError is returned when a name is already taken
type ConflictError struct {
	Kind Kind
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s name %q already in use", e.Kind, e.Name)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// IsNotFound reports whether err is or wraps a NotFoundError
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is or wraps a ValidationError
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConflict reports whether err is or wraps a ConflictError
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
