package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCuttingNotComplete     = errors.New("cutting not complete")
	ErrCapacityExceeded       = errors.New("capacity exceeded")
	ErrInvalidRow             = errors.New("invalid row")
	ErrConcurrentModification = errors.New("data changed by a concurrent settlement, reload and retry")
	ErrEmployeeNotFound       = errors.New("employee not found")
	ErrBatchNotFound          = errors.New("batch not found")
	ErrSettlementNotFound     = errors.New("settlement not found")
)

// CapacityExceededError reports the headroom left on a batch
type CapacityExceededError struct {
	BatchNumber string
	Proposed    int
	Remaining   int
	CutQuantity int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("batch %s: quantity %d exceeds remaining capacity %d out of cutQuantity %d",
		e.BatchNumber, e.Proposed, e.Remaining, e.CutQuantity)
}

func (e *CapacityExceededError) Is(target error) bool { return target == ErrCapacityExceeded }

// RowError is one rejected row of a settle request
type RowError struct {
	Row        int    `json:"row"` // zero based position in the request
	BatchID    int    `json:"batch_id"`
	Department string `json:"department"`
	Reason     string `json:"reason"` // cutting_not_complete, capacity_exceeded, invalid_row
	Message    string `json:"message"`
	Remaining  *int   `json:"remaining,omitempty"`
	CutQty     *int   `json:"cut_quantity,omitempty"`

	err error
}

func (e RowError) Unwrap() error { return e.err }

// ValidationError collects every failing row of one request
type ValidationError struct {
	Rows []RowError `json:"rows"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Rows))
	for _, r := range e.Rows {
		msgs = append(msgs, fmt.Sprintf("row %d: %s", r.Row+1, r.Message))
	}
	return "settlement rejected: " + strings.Join(msgs, "; ")
}

// Is matches when any row failed for target
func (e *ValidationError) Is(target error) bool {
	for _, r := range e.Rows {
		if errors.Is(r.err, target) {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(row int, batchID int, department string, err error) {
	re := RowError{
		Row:        row,
		BatchID:    batchID,
		Department: department,
		Message:    err.Error(),
		err:        err,
	}
	var capErr *CapacityExceededError
	switch {
	case errors.As(err, &capErr):
		re.Reason = "capacity_exceeded"
		re.Remaining = &capErr.Remaining
		re.CutQty = &capErr.CutQuantity
	case errors.Is(err, ErrCuttingNotComplete):
		re.Reason = "cutting_not_complete"
	default:
		re.Reason = "invalid_row"
	}
	if department != "" {
		re.Message = fmt.Sprintf("%s (department %s)", re.Message, department)
	}
	e.Rows = append(e.Rows, re)
}

func (e *ValidationError) empty() bool { return len(e.Rows) == 0 }

// StorageFailureError wraps an infrastructure error from the commit.
// Nothing from the failed attempt is persisted, so the call can be retried.
type StorageFailureError struct {
	Op  string
	Err error
}

func (e *StorageFailureError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageFailureError) Unwrap() error { return e.Err }

func (e *StorageFailureError) Retryable() bool { return true }
