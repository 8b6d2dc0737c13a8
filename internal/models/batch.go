package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus is the coarse production stage shown on batch lists
type BatchStatus string

const (
	BatchStatusCutting    BatchStatus = "cutting"
	BatchStatusProduction BatchStatus = "production"
	BatchStatusCompleted  BatchStatus = "completed"
)

// Batch is a production lot of one style. CutQuantity is the ceiling on
// everything produced against it and is frozen once cutting is completed.
type Batch struct {
	ID               int             `json:"id"`
	BatchNumber      string          `json:"batch_number"`
	StyleName        string          `json:"style_name"`
	Colors           string          `json:"colors"`
	CutQuantity      int             `json:"cut_quantity"`
	CuttingCompleted bool            `json:"cutting_completed"`
	OverallProgress  decimal.Decimal `json:"overall_progress"`
	Status           BatchStatus     `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type CreateBatchRequest struct {
	BatchNumber string `json:"batch_number" validate:"required,max=40"`
	StyleName   string `json:"style_name" validate:"max=120"`
	Colors      string `json:"colors"`
}

type CompleteCuttingRequest struct {
	CutQuantity int `json:"cut_quantity" validate:"gt=0"`
}

// BatchCapacity is the remaining headroom of a batch
type BatchCapacity struct {
	BatchID          int             `json:"batch_id"`
	BatchNumber      string          `json:"batch_number"`
	CuttingCompleted bool            `json:"cutting_completed"`
	CutQuantity      int             `json:"cut_quantity"`
	Produced         int             `json:"produced"`
	Remaining        int             `json:"remaining"`
	OverallProgress  decimal.Decimal `json:"overall_progress"`
}

// BatchProgressUpdate is pushed to live dashboards whenever progress is recomputed
type BatchProgressUpdate struct {
	BatchID         int             `json:"batch_id"`
	BatchNumber     string          `json:"batch_number"`
	CutQuantity     int             `json:"cut_quantity"`
	Produced        int             `json:"produced"`
	OverallProgress decimal.Decimal `json:"overall_progress"`
	Status          BatchStatus     `json:"status"`
	Cause           string          `json:"cause"` // settlement, reversal, cutting
	At              time.Time       `json:"at"`
}
