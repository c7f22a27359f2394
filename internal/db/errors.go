package db

import (
	"errors"
	"strings"
)

// FailureKind classifies store errors once, at the adapter boundary, so
// callers branch on the kind instead of string-matching driver messages at
// every use site.
type FailureKind int

const (
	// FailureOther is anything unclassified. Not retried.
	FailureOther FailureKind = iota
	// FailureUnavailable is a transient condition (locked database, busy,
	// I/O hiccup). Safe to retry with backoff.
	FailureUnavailable
	// FailurePermission is terminal for the current view; the user needs to
	// re-authenticate or fix file permissions. Never retried.
	FailurePermission
	// FailureIndexNotReady means the query plan needed an index that does
	// not exist yet (mid-migration). Triggers the fallback query strategy.
	FailureIndexNotReady
)

func (k FailureKind) String() string {
	switch k {
	case FailureUnavailable:
		return "unavailable"
	case FailurePermission:
		return "permission-denied"
	case FailureIndexNotReady:
		return "index-not-ready"
	default:
		return "other"
	}
}

// StoreError wraps a driver error with its classification.
type StoreError struct {
	Kind FailureKind
	Err  error
}

func (e *StoreError) Error() string {
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

// Classify wraps err in a StoreError. Already-classified errors pass
// through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Kind: classifyKind(err), Err: err}
}

// KindOf returns the classification of an error, FailureOther for anything
// unwrapped.
func KindOf(err error) FailureKind {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	return classifyKind(err)
}

// Retryable reports whether an operation that failed with err is worth
// retrying.
func Retryable(err error) bool {
	return KindOf(err) == FailureUnavailable
}

func classifyKind(err error) FailureKind {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such index"),
		strings.Contains(msg, "index not ready"):
		return FailureIndexNotReady
	case strings.Contains(msg, "permission denied"),
		strings.Contains(msg, "readonly database"),
		strings.Contains(msg, "access denied"):
		return FailurePermission
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "busy"),
		strings.Contains(msg, "unavailable"),
		strings.Contains(msg, "i/o error"),
		strings.Contains(msg, "connection"):
		return FailureUnavailable
	default:
		return FailureOther
	}
}
