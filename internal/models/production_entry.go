package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductionEntry is one settled line of work: quantity of a batch done in a department
type ProductionEntry struct {
	ID           int             `json:"id"`
	BatchID      int             `json:"batch_id"`
	BatchNumber  string          `json:"batch_number,omitempty"` // Joined from batches table
	EmployeeID   int             `json:"employee_id"`
	Department   string          `json:"department"`
	EntryDate    time.Time       `json:"entry_date"`
	Quantity     int             `json:"quantity"`
	Rate         decimal.Decimal `json:"rate"`
	Amount       decimal.Decimal `json:"amount"`
	SettlementID int             `json:"settlement_id"`
	CreatedAt    time.Time       `json:"created_at"`
}
