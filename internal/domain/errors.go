// Package domain provides shared domain-level sentinel errors.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrNotFoundOrDenied is returned by ownership-scoped lookups. It does not
// disclose whether the entity is missing or owned by someone else, and it
// matches ErrNotFound under errors.Is.
var ErrNotFoundOrDenied = fmt.Errorf("not found or access denied: %w", ErrNotFound)

// ErrParentNotFound indicates a referenced parent entity is absent at create time.
var ErrParentNotFound = errors.New("parent not found")

// ErrReferentialIntegrity indicates a store-level foreign key violation.
var ErrReferentialIntegrity = errors.New("referential integrity violation")

// ErrGeneration indicates the external generation service failed, timed out,
// or returned unusable output.
var ErrGeneration = errors.New("generation failed")

// ErrNoStrategyYet indicates an opportunity has no generated strategy.
var ErrNoStrategyYet = errors.New("no strategy generated yet")

// ErrValidation indicates a request failed input validation.
var ErrValidation = errors.New("validation failed")

// ErrConflict indicates a uniqueness conflict (e.g. duplicate email).
var ErrConflict = errors.New("conflict: resource already exists")

// ReferenceError names the missing parent of a rejected write.
type ReferenceError struct {
	Entity   string // entity being written, e.g. "opportunity"
	Parent   string // referenced entity, e.g. "user"
	ParentID string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s references missing %s %s", e.Entity, e.Parent, e.ParentID)
}

// Unwrap makes ReferenceError match ErrReferentialIntegrity.
func (e *ReferenceError) Unwrap() error { return ErrReferentialIntegrity }
