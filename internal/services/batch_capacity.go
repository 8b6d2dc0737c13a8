package services

import (
	"fmt"

	"garment-backend/internal/models"
)

// ValidateCapacity checks a proposed quantity against what is left of the batch.
// alreadyProduced is the whole-batch total across all employees and departments,
// plus any sibling rows of the same request. It has no side effects.
func ValidateCapacity(batch *models.Batch, proposed, alreadyProduced int) error {
	if !batch.CuttingCompleted {
		return fmt.Errorf("batch %s: %w, production cannot be recorded yet", batch.BatchNumber, ErrCuttingNotComplete)
	}

	remaining := batch.CutQuantity - alreadyProduced
	if proposed > remaining {
		if remaining < 0 {
			remaining = 0
		}
		return &CapacityExceededError{
			BatchNumber: batch.BatchNumber,
			Proposed:    proposed,
			Remaining:   remaining,
			CutQuantity: batch.CutQuantity,
		}
	}
	return nil
}

// RemainingCapacity is the quantity that can still be produced against the batch
func RemainingCapacity(batch *models.Batch, alreadyProduced int) int {
	if !batch.CuttingCompleted {
		return 0
	}
	remaining := batch.CutQuantity - alreadyProduced
	if remaining < 0 {
		return 0
	}
	return remaining
}
