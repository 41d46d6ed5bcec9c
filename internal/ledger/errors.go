package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rudigital/backend/internal/storage"
)

var (
	ErrAccountNotFound   = errors.New("account not found or inactive")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidKind       = errors.New("invalid transaction kind")
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrPersistence matches every *PersistenceError.
	ErrPersistence = errors.New("ledger persistence failure")
)

// PersistenceError reports the storage step that failed. The unit of work
// has been rolled back when it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// Timeout reports whether the failure was a lock wait or deadline expiring.
func (e *PersistenceError) Timeout() bool {
	return errors.Is(e.Err, storage.ErrLockTimeout) ||
		errors.Is(e.Err, context.DeadlineExceeded)
}

// IsTimeout reports whether err is a PersistenceError caused by a timeout.
func IsTimeout(err error) bool {
	var pErr *PersistenceError
	return errors.As(err, &pErr) && pErr.Timeout()
}
