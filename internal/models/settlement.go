package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement is the payment record produced for one employee.
// NetPayable = TotalProductionAmount - AdvancesDeducted and may be negative.
type Settlement struct {
	ID                    int             `json:"id"`
	SettlementNumber      string          `json:"settlement_number"`
	EmployeeID            int             `json:"employee_id"`
	EmployeeName          string          `json:"employee_name,omitempty"` // Joined from employees table
	SettlementDate        time.Time       `json:"settlement_date"`
	TotalProductionAmount decimal.Decimal `json:"total_production_amount"`
	AdvancesDeducted      decimal.Decimal `json:"advances_deducted"`
	NetPayable            decimal.Decimal `json:"net_payable"`
	PaymentMode           PaymentMode     `json:"payment_mode"`
	Remarks               string          `json:"remarks"`
	CreatedAt             time.Time       `json:"created_at"`
}

// SettlementRow is one line of a settle request
type SettlementRow struct {
	BatchID    int             `json:"batch_id"`
	Department string          `json:"department"`
	Quantity   int             `json:"quantity"`
	Rate       decimal.Decimal `json:"rate"`
}

type SettleRequest struct {
	EmployeeID     int             `json:"employee_id" validate:"required"`
	SettlementDate string          `json:"settlement_date" validate:"omitempty,datetime=2006-01-02"`
	Rows           []SettlementRow `json:"rows"`
	DeductAdvances bool            `json:"deduct_advances"`
	PaymentMode    PaymentMode     `json:"payment_mode" validate:"omitempty,oneof=cash bank upi"`
	Remarks        string          `json:"remarks"`
}

// SettlementDetail is a settlement with everything it consumed
type SettlementDetail struct {
	Settlement
	Entries  []ProductionEntry `json:"entries"`
	Advances []Advance         `json:"advances"`
	// Progress of each touched batch after commit, keyed by batch id
	BatchProgress map[int]decimal.Decimal `json:"batch_progress"`

	ProgressUpdates []BatchProgressUpdate `json:"-"`
}

// SettlementPreview is the dry-run result of a settle request
type SettlementPreview struct {
	EmployeeID            int               `json:"employee_id"`
	Entries               []ProductionEntry `json:"entries"`
	TotalProductionAmount decimal.Decimal   `json:"total_production_amount"`
	AdvancesDeducted      decimal.Decimal   `json:"advances_deducted"`
	NetPayable            decimal.Decimal   `json:"net_payable"`
	UnsettledAdvances     []Advance         `json:"unsettled_advances"`
}
