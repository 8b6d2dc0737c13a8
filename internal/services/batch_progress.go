package services

import (
	"garment-backend/internal/models"

	"github.com/shopspring/decimal"
)

var (
	cuttingWeight    = decimal.NewFromInt(35)
	productionWeight = decimal.NewFromInt(65)
	fullProgress     = decimal.NewFromInt(100)
)

// RecomputeProgress derives overall progress from scratch: 35 points once cutting
// is complete plus up to 65 points linear in produced/cutQuantity, clamped to
// [0, 100] and rounded to 2 places.
func RecomputeProgress(batch *models.Batch, totalProduced int) decimal.Decimal {
	progress := decimal.Zero
	if batch.CuttingCompleted {
		progress = progress.Add(cuttingWeight)
	}
	if batch.CutQuantity > 0 && totalProduced > 0 {
		share := productionWeight.
			Mul(decimal.NewFromInt(int64(totalProduced))).
			Div(decimal.NewFromInt(int64(batch.CutQuantity)))
		progress = progress.Add(share)
	}

	if progress.GreaterThan(fullProgress) {
		progress = fullProgress
	}
	if progress.IsNegative() {
		progress = decimal.Zero
	}
	return progress.Round(2)
}

// ProgressStatus maps progress back to the coarse batch status
func ProgressStatus(batch *models.Batch, progress decimal.Decimal) models.BatchStatus {
	switch {
	case !batch.CuttingCompleted:
		return models.BatchStatusCutting
	case progress.GreaterThanOrEqual(fullProgress):
		return models.BatchStatusCompleted
	default:
		return models.BatchStatusProduction
	}
}
