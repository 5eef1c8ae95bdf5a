package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDocument is returned when ingestion text is empty or whitespace
	// after cleaning.
	ErrEmptyDocument = errors.New("document text is empty")

	// ErrInvalidQuery is returned before any embedding or search work when a
	// question is empty after trimming.
	ErrInvalidQuery = errors.New("question must not be empty")
)

// ModelUnavailableError reports that the embedding/LLM backend could not be
// reached or returned an error. Transient marks timeouts and connection
// failures that a caller may retry; permanent causes (bad model name, bad
// request) are not retryable.
type ModelUnavailableError struct {
	Transient bool
	Err       error
}

func (e *ModelUnavailableError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("model backend unavailable (%s): %v", kind, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error { return e.Err }

// DimensionMismatchError reports a configuration inconsistency between the
// embedder output dimension and the vector store schema. Non-retryable.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: want=%d got=%d", e.Want, e.Got)
}

// StoreError wraps persistence failures during store/search/delete.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("vector store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func IsModelUnavailable(err error) bool {
	var mu *ModelUnavailableError
	return errors.As(err, &mu)
}

func IsDimensionMismatch(err error) bool {
	var dm *DimensionMismatchError
	return errors.As(err, &dm)
}

func IsStoreFailure(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
