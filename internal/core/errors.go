package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorKind classifies domain failures so adapters can map them to
// transport codes without string matching.
type ErrorKind string

const (
	KindNotFound               ErrorKind = "NOT_FOUND"
	KindInvalidTransition      ErrorKind = "INVALID_TRANSITION"
	KindInvalidRange           ErrorKind = "INVALID_RANGE"
	KindEmptySelection         ErrorKind = "EMPTY_SELECTION"
	KindAlreadyMember          ErrorKind = "ALREADY_MEMBER"
	KindNotAMember             ErrorKind = "NOT_A_MEMBER"
	KindConcurrentModification ErrorKind = "CONCURRENT_MODIFICATION"
	KindValidation             ErrorKind = "VALIDATION"
)

// Error is a domain failure: a machine-readable kind plus a human-readable
// message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return newError(KindNotFound, format, args...)
}

func InvalidTransitionf(format string, args ...any) error {
	return newError(KindInvalidTransition, format, args...)
}

func InvalidRangef(format string, args ...any) error {
	return newError(KindInvalidRange, format, args...)
}

func EmptySelectionf(format string, args ...any) error {
	return newError(KindEmptySelection, format, args...)
}

func AlreadyMemberf(format string, args ...any) error {
	return newError(KindAlreadyMember, format, args...)
}

func NotAMemberf(format string, args ...any) error {
	return newError(KindNotAMember, format, args...)
}

func ConcurrentModificationf(format string, args ...any) error {
	return newError(KindConcurrentModification, format, args...)
}

func Validationf(format string, args ...any) error {
	return newError(KindValidation, format, args...)
}

// KindOf extracts the domain kind from err, unwrapping as needed. ok is
// false for non-domain errors.
func KindOf(err error) (ErrorKind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given domain kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// isLockConflict reports whether err is a Postgres serialization failure or
// deadlock, the two shapes a lost row-lock race takes.
func isLockConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// commitTx commits the transaction, mapping lock conflicts onto
// ConcurrentModification so callers can retry.
func commitTx(ctx context.Context, tx pgx.Tx, op string) error {
	if err := tx.Commit(ctx); err != nil {
		if isLockConflict(err) {
			return ConcurrentModificationf("%s lost a concurrent update race, retry", op)
		}
		return fmt.Errorf("failed to commit %s: %w", op, err)
	}
	return nil
}
