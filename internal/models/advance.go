package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMode string

const (
	PaymentModeCash PaymentMode = "cash"
	PaymentModeBank PaymentMode = "bank"
	PaymentModeUPI  PaymentMode = "upi"
)

// Advance is cash handed to an employee ahead of settlement.
// IsSettled and SettlementID always move together.
type Advance struct {
	ID           int             `json:"id"`
	EmployeeID   int             `json:"employee_id"`
	AdvanceDate  time.Time       `json:"advance_date"`
	Amount       decimal.Decimal `json:"amount"`
	PaymentMode  PaymentMode     `json:"payment_mode"`
	BatchID      *int            `json:"batch_id,omitempty"`
	Notes        string          `json:"notes"`
	IsSettled    bool            `json:"is_settled"`
	SettlementID *int            `json:"settlement_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type CreateAdvanceRequest struct {
	EmployeeID  int             `json:"employee_id" validate:"required"`
	AdvanceDate string          `json:"advance_date" validate:"omitempty,datetime=2006-01-02"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentMode PaymentMode     `json:"payment_mode" validate:"omitempty,oneof=cash bank upi"`
	BatchID     *int            `json:"batch_id"`
	Notes       string          `json:"notes"`
}

// UnsettledAdvances is what a settlement would deduct right now
type UnsettledAdvances struct {
	EmployeeID int             `json:"employee_id"`
	Advances   []Advance       `json:"advances"`
	Total      decimal.Decimal `json:"total"`
}
