package services

import (
	"context"
	"errors"
	"fmt"

	"garment-backend/internal/config"
	"garment-backend/internal/repositories"
	"garment-backend/internal/slips"
	"garment-backend/internal/storage"

	"github.com/sirupsen/logrus"
)

// SlipArchiver stores a rendered slip. *storage.Archiver satisfies it.
type SlipArchiver interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

type SlipService struct {
	Settlements *SettlementService
	Employees   repositories.EmployeeStore
	Signer      *slips.Signer
	Archive     SlipArchiver
	CompanyName string
}

func NewSlipService(settlements *SettlementService, employees repositories.EmployeeStore, signer *slips.Signer, archive SlipArchiver, companyName string) *SlipService {
	return &SlipService{
		Settlements: settlements,
		Employees:   employees,
		Signer:      signer,
		Archive:     archive,
		CompanyName: companyName,
	}
}

type SlipFile struct {
	Name string
	Body []byte
}

// SlipVerification is the answer to a scanned slip token
type SlipVerification struct {
	Valid            bool   `json:"valid"`
	SettlementID     int    `json:"settlement_id"`
	SettlementNumber string `json:"settlement_number"`
	EmployeeID       int    `json:"employee_id"`
	NetPayable       string `json:"net_payable"`
	Reason           string `json:"reason,omitempty"`
}

// Slip renders the PDF slip for a settlement and archives a copy when storage is on
func (s *SlipService) Slip(ctx context.Context, settlementID int) (*SlipFile, error) {
	detail, err := s.Settlements.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	employee, err := s.Employees.GetEmployee(ctx, detail.EmployeeID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	var token string
	if s.Signer.Enabled() {
		token, err = s.Signer.Sign(detail.ID, detail.SettlementNumber, detail.EmployeeID, detail.NetPayable.StringFixed(2))
		if err != nil {
			return nil, fmt.Errorf("sign slip: %w", err)
		}
	}

	body, err := slips.Render(&slips.Slip{
		CompanyName: s.CompanyName,
		Employee:    employee,
		Detail:      detail,
		Token:       token,
	})
	if err != nil {
		return nil, fmt.Errorf("render slip: %w", err)
	}

	if s.Archive != nil {
		key := storage.SlipKey(detail.SettlementNumber, detail.SettlementDate)
		if err := s.Archive.Put(ctx, key, body, "application/pdf"); err != nil {
			// the slip is still served; archiving is retried on the next download
			config.GetLogger().WithFields(logrus.Fields{
				"settlement_id": detail.ID,
				"key":           key,
			}).Warn("slip archive failed: " + err.Error())
		}
	}

	return &SlipFile{Name: detail.SettlementNumber + ".pdf", Body: body}, nil
}

// Verify checks a slip token against the stored settlement. A reversed
// settlement, or one whose figures no longer match, is reported as not valid.
func (s *SlipService) Verify(ctx context.Context, token string) (*SlipVerification, error) {
	claims, err := s.Signer.Verify(token)
	if err != nil {
		return nil, err
	}
	result := &SlipVerification{
		SettlementID:     claims.SettlementID,
		SettlementNumber: claims.SettlementNumber,
		EmployeeID:       claims.EmployeeID,
		NetPayable:       claims.NetPayable,
	}

	settlement, err := s.Settlements.Store.GetSettlement(ctx, claims.SettlementID)
	if errors.Is(err, repositories.ErrNotFound) {
		result.Reason = "settlement no longer exists"
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	switch {
	case settlement.SettlementNumber != claims.SettlementNumber:
		result.Reason = "settlement number mismatch"
	case settlement.EmployeeID != claims.EmployeeID:
		result.Reason = "employee mismatch"
	case settlement.NetPayable.StringFixed(2) != claims.NetPayable:
		result.Reason = "net payable mismatch"
	default:
		result.Valid = true
	}
	return result, nil
}
