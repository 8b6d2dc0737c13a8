package services

import (
	"context"
	"errors"
	"fmt"

	"garment-backend/internal/cache"
	"garment-backend/internal/models"
	"garment-backend/internal/repositories"
	"garment-backend/internal/timeutil"

	"github.com/shopspring/decimal"
)

var ErrInvalidInput = errors.New("invalid input")

type AdvanceService struct {
	Repo      repositories.AdvanceStore
	Employees repositories.EmployeeStore
	Batches   repositories.BatchStore
}

func NewAdvanceService(repo repositories.AdvanceStore, employees repositories.EmployeeStore, batches repositories.BatchStore) *AdvanceService {
	return &AdvanceService{Repo: repo, Employees: employees, Batches: batches}
}

// RecordAdvance stores cash paid ahead of settlement. It starts unsettled.
func (s *AdvanceService) RecordAdvance(ctx context.Context, req *models.CreateAdvanceRequest) (*models.Advance, error) {
	if !req.Amount.Round(2).IsPositive() {
		return nil, fmt.Errorf("%w: advance amount must be greater than 0", ErrInvalidInput)
	}
	if _, err := s.Employees.GetEmployee(ctx, req.EmployeeID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	if req.BatchID != nil {
		if _, err := s.Batches.GetBatch(ctx, *req.BatchID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrBatchNotFound
			}
			return nil, err
		}
	}

	date := timeutil.StartOfDay(timeutil.Now())
	if req.AdvanceDate != "" {
		d, err := timeutil.ParseDate(req.AdvanceDate)
		if err != nil {
			return nil, fmt.Errorf("%w: advance_date must be YYYY-MM-DD", ErrInvalidInput)
		}
		date = d
	}
	mode := req.PaymentMode
	if mode == "" {
		mode = models.PaymentModeCash
	}

	advance := &models.Advance{
		EmployeeID:  req.EmployeeID,
		AdvanceDate: date,
		Amount:      req.Amount.Round(2),
		PaymentMode: mode,
		BatchID:     req.BatchID,
		Notes:       req.Notes,
	}
	if err := s.Repo.CreateAdvance(ctx, advance); err != nil {
		return nil, err
	}

	cache.InvalidateAdvanceCaches(ctx, req.EmployeeID)
	return advance, nil
}

func (s *AdvanceService) ListByEmployee(ctx context.Context, employeeID int) ([]models.Advance, error) {
	return s.Repo.ListAdvancesByEmployee(ctx, employeeID)
}

// UnsettledFor lists the advances a settlement would deduct, oldest first
func (s *AdvanceService) UnsettledFor(ctx context.Context, employeeID int) ([]models.Advance, error) {
	return s.Repo.UnsettledAdvances(ctx, employeeID)
}

func (s *AdvanceService) TotalUnsettled(ctx context.Context, employeeID int) (decimal.Decimal, error) {
	advances, err := s.UnsettledFor(ctx, employeeID)
	if err != nil {
		return decimal.Zero, err
	}
	return SumAdvances(advances), nil
}

// Summary is the unsettled list with its total, served from cache when possible
func (s *AdvanceService) Summary(ctx context.Context, employeeID int) (*models.UnsettledAdvances, error) {
	key := cache.UnsettledAdvancesKey(employeeID)
	var summary models.UnsettledAdvances
	if cache.GetJSON(ctx, key, &summary) {
		return &summary, nil
	}

	advances, err := s.UnsettledFor(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if advances == nil {
		advances = []models.Advance{}
	}
	summary = models.UnsettledAdvances{
		EmployeeID: employeeID,
		Advances:   advances,
		Total:      SumAdvances(advances),
	}
	cache.SetJSON(ctx, key, summary, cache.SummaryTTL)
	return &summary, nil
}

// SumAdvances adds amounts already held at 2 places, so no rounding is needed
func SumAdvances(advances []models.Advance) decimal.Decimal {
	total := decimal.Zero
	for _, a := range advances {
		total = total.Add(a.Amount)
	}
	return total
}

func advanceIDs(advances []models.Advance) []int {
	ids := make([]int, len(advances))
	for i, a := range advances {
		ids[i] = a.ID
	}
	return ids
}

// sameAdvances reports whether two unsettled snapshots hold the same ids and amounts
func sameAdvances(a, b []models.Advance) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[int]decimal.Decimal, len(a))
	for _, adv := range a {
		seen[adv.ID] = adv.Amount
	}
	for _, adv := range b {
		amount, ok := seen[adv.ID]
		if !ok || !amount.Equal(adv.Amount) {
			return false
		}
	}
	return true
}
