package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind tags the failure taxonomy so callers can branch on the class of
// error without matching message text.
type ErrorKind string

const (
	// KindValidation marks input that failed field constraints.
	KindValidation ErrorKind = "validation"
	// KindNotFound marks operations that targeted an absent record ID.
	KindNotFound ErrorKind = "not_found"
	// KindStorage marks snapshot read/write failures other than absence.
	KindStorage ErrorKind = "storage"
	// KindSimulated marks injected failures from a failure policy.
	KindSimulated ErrorKind = "simulated"
)

// ValidationError reports per-field constraint violations. The mutation it
// rejects is never partially applied.
type ValidationError struct {
	Fields map[string]string
}

func (e ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Kind returns the taxonomy tag for validation failures.
func (ValidationError) Kind() ErrorKind { return KindValidation }

// NotFoundError reports an operation that targeted a record ID absent from
// its collection.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// Kind returns the taxonomy tag for missing records.
func (NotFoundError) Kind() ErrorKind { return KindNotFound }

// StorageFault wraps a snapshot read or write failure. Absence of a snapshot
// is not a fault; it reads as an empty collection.
type StorageFault struct {
	Op  string
	Err error
}

func (e StorageFault) Error() string {
	return fmt.Sprintf("storage fault during %s: %v", e.Op, e.Err)
}

func (e StorageFault) Unwrap() error { return e.Err }

// Kind returns the taxonomy tag for storage faults.
func (StorageFault) Kind() ErrorKind { return KindStorage }

// SimulatedFailure is injected by a failure policy before any state change,
// so the failed operation is always safe to retry.
type SimulatedFailure struct {
	Op string
}

func (e SimulatedFailure) Error() string {
	return fmt.Sprintf("simulated failure during %s", e.Op)
}

// Kind returns the taxonomy tag for injected failures.
func (SimulatedFailure) Kind() ErrorKind { return KindSimulated }

// KindOf classifies err against the taxonomy. Unclassified errors report an
// empty kind.
func KindOf(err error) ErrorKind {
	var ve ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}
	var nfe NotFoundError
	if errors.As(err, &nfe) {
		return KindNotFound
	}
	var sf StorageFault
	if errors.As(err, &sf) {
		return KindStorage
	}
	var sim SimulatedFailure
	if errors.As(err, &sim) {
		return KindSimulated
	}
	return ""
}
