package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"garment-backend/internal/models"
	"garment-backend/internal/repositories"
	"garment-backend/internal/timeutil"

	"github.com/xuri/excelize/v2"
)

const (
	settlementsSheet = "Settlements"
	entriesSheet     = "Entries"
)

type ExportService struct {
	Settlements *SettlementService
	Employees   repositories.EmployeeStore
}

func NewExportService(settlements *SettlementService, employees repositories.EmployeeStore) *ExportService {
	return &ExportService{Settlements: settlements, Employees: employees}
}

// ExportFileName is the download name for an employee's settlement workbook
func ExportFileName(employee *models.Employee) string {
	return fmt.Sprintf("settlements-employee-%d.xlsx", employee.ID)
}

// EmployeeSettlements writes an xlsx workbook with one sheet of settlements
// and one sheet of the production entries they paid for.
func (s *ExportService) EmployeeSettlements(ctx context.Context, employeeID int, w io.Writer) (*models.Employee, error) {
	employee, err := s.Employees.GetEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	settlements, err := s.Settlements.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", settlementsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(entriesSheet); err != nil {
		return nil, err
	}

	header := []interface{}{"Settlement", "Date", "Production", "Advances Deducted", "Net Payable", "Payment Mode", "Remarks"}
	if err := f.SetSheetRow(settlementsSheet, "A1", &header); err != nil {
		return nil, err
	}
	entryHeader := []interface{}{"Settlement", "Batch", "Department", "Quantity", "Rate", "Amount"}
	if err := f.SetSheetRow(entriesSheet, "A1", &entryHeader); err != nil {
		return nil, err
	}

	entryRow := 2
	for i, st := range settlements {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			st.SettlementNumber,
			timeutil.FormatIST(st.SettlementDate, timeutil.DateLayout),
			st.TotalProductionAmount.InexactFloat64(),
			st.AdvancesDeducted.InexactFloat64(),
			st.NetPayable.InexactFloat64(),
			string(st.PaymentMode),
			st.Remarks,
		}
		if err := f.SetSheetRow(settlementsSheet, cell, &row); err != nil {
			return nil, err
		}

		entries, err := s.Settlements.Store.ListEntriesBySettlement(ctx, st.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			cell, _ := excelize.CoordinatesToCellName(1, entryRow)
			row := []interface{}{
				st.SettlementNumber,
				e.BatchNumber,
				e.Department,
				e.Quantity,
				e.Rate.InexactFloat64(),
				e.Amount.InexactFloat64(),
			}
			if err := f.SetSheetRow(entriesSheet, cell, &row); err != nil {
				return nil, err
			}
			entryRow++
		}
	}

	if err := f.Write(w); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return employee, nil
}
