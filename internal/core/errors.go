package core

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every storage engine. Engines wrap backend causes
// with %w so callers can still reach the underlying error.

// ValidationError reports a missing or malformed field on create/import.
type ValidationError struct {
	Entity string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Entity, e.Field, e.Reason)
}

func validation(entity, field, reason string) error {
	return &ValidationError{Entity: entity, Field: field, Reason: reason}
}

// NotFoundError reports an update against a record that does not exist or is
// not owned by the caller. Reads signal the same situation with a nil record
// instead.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// PersistenceError reports a backend or network failure, keeping the
// backend's own message reachable via Unwrap.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func Persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// ConfigurationError reports unusable engine configuration, e.g. the remote
// engine selected without connection parameters. The factory logs it and
// degrades instead of failing hard.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// ErrNoIdentity is returned by the remote engine when a call carries no
// authenticated owner identity. Together with UnauthorizedError this is the
// one read failure that is not softened to an empty result.
var ErrNoIdentity = errors.New("no authenticated identity in request context")

// UnauthorizedError reports a credential the backend rejected, an expired or
// revoked token rather than a missing one. Treated like a missing identity:
// the caller has to re-authenticate, an empty list would hide that.
type UnauthorizedError struct {
	Op     string
	Status int
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized in %s: backend returned %d", e.Op, e.Status)
}

func Unauthorized(op string, status int) error {
	return &UnauthorizedError{Op: op, Status: status}
}

// IsUnauthorized matches both a missing identity and a rejected credential.
func IsUnauthorized(err error) bool {
	var u *UnauthorizedError
	return errors.As(err, &u) || errors.Is(err, ErrNoIdentity)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

func IsPersistence(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}
