package models

import "time"

// EmploymentType distinguishes payroll staff from contract workers
type EmploymentType string

const (
	EmploymentDirect   EmploymentType = "direct"
	EmploymentContract EmploymentType = "contract"
)

// RateType is how the employee is normally paid
type RateType string

const (
	RatePiece RateType = "piece"
	RateDaily RateType = "daily"
)

type Employee struct {
	ID             int            `json:"id"`
	Name           string         `json:"name"`
	Phone          string         `json:"phone"`
	EmploymentType EmploymentType `json:"employment_type"`
	RateType       RateType       `json:"rate_type"`
	Department     string         `json:"department"`
	IsActive       bool           `json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type CreateEmployeeRequest struct {
	Name           string         `json:"name" validate:"required,max=120"`
	Phone          string         `json:"phone" validate:"omitempty,max=20"`
	EmploymentType EmploymentType `json:"employment_type" validate:"required,oneof=direct contract"`
	RateType       RateType       `json:"rate_type" validate:"required,oneof=piece daily"`
	Department     string         `json:"department" validate:"max=60"`
}

type UpdateEmployeeRequest struct {
	Name           string         `json:"name" validate:"required,max=120"`
	Phone          string         `json:"phone" validate:"omitempty,max=20"`
	EmploymentType EmploymentType `json:"employment_type" validate:"required,oneof=direct contract"`
	RateType       RateType       `json:"rate_type" validate:"required,oneof=piece daily"`
	Department     string         `json:"department" validate:"max=60"`
	IsActive       bool           `json:"is_active"`
}
