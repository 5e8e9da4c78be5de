package services

import (
	"errors"
	"fmt"
)

// Error kinds, for errors.Is checks in handlers
var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation error")
	ErrPersistence    = errors.New("persistence error")
	ErrInsufficientXP = errors.New("insufficient XP")
	ErrConflict       = errors.New("conflict")
)

// NotFoundError: a referenced entity does not exist
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError: the caller passed an unusable argument
type ValidationError struct {
	Field   string
	Message string
	Kind    error // optional refinement, e.g. ErrInsufficientXP
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	return e.Kind != nil && errors.Is(e.Kind, target)
}

// PersistenceError wraps a store failure. Op names the ledger/service operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func notFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// persist wraps err unless it already carries a service error kind
func persist(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrPersistence) || errors.Is(err, ErrConflict) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
