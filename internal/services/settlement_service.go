package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"garment-backend/internal/cache"
	"garment-backend/internal/config"
	"garment-backend/internal/metrics"
	"garment-backend/internal/models"
	"garment-backend/internal/repositories"
	"garment-backend/internal/timeutil"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("garment-backend/services")

type SettlementService struct {
	Store repositories.Store
}

func NewSettlementService(store repositories.Store) *SettlementService {
	return &SettlementService{Store: store}
}

// settlementPlan is a validated request ready to be committed
type settlementPlan struct {
	date     time.Time
	entries  []models.ProductionEntry
	batchIDs []int // distinct, ascending
	total    decimal.Decimal
}

// Settle validates every row, nets out unsettled advances when asked to, and
// writes the settlement, its entries, the advance transitions and the new
// batch progress in one transaction.
func (s *SettlementService) Settle(ctx context.Context, req *models.SettleRequest) (*models.SettlementDetail, error) {
	ctx, span := tracer.Start(ctx, "SettlementService.Settle", trace.WithAttributes(
		attribute.Int("employee_id", req.EmployeeID),
		attribute.Int("rows", len(req.Rows)),
		attribute.Bool("deduct_advances", req.DeductAdvances),
	))
	defer span.End()

	detail, err := s.settle(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.SettlementRejections.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}
	span.SetAttributes(attribute.String("settlement_number", detail.SettlementNumber))
	return detail, nil
}

func (s *SettlementService) settle(ctx context.Context, req *models.SettleRequest) (*models.SettlementDetail, error) {
	logger := config.GetLogger()

	release := cache.ObtainSettlementLock(ctx, req.EmployeeID)
	defer release()

	plan, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	var snapshot []models.Advance
	advancesDeducted := decimal.Zero
	if req.DeductAdvances {
		snapshot, err = s.Store.UnsettledAdvances(ctx, req.EmployeeID)
		if err != nil {
			return nil, &StorageFailureError{Op: "load advances", Err: err}
		}
		advancesDeducted = SumAdvances(snapshot)
	}

	mode := req.PaymentMode
	if mode == "" {
		mode = models.PaymentModeCash
	}
	settlement := models.Settlement{
		EmployeeID:            req.EmployeeID,
		SettlementDate:        plan.date,
		TotalProductionAmount: plan.total,
		AdvancesDeducted:      advancesDeducted,
		// Negative means the employee owes the difference back
		NetPayable:  plan.total.Sub(advancesDeducted),
		PaymentMode: mode,
		Remarks:     strings.TrimSpace(req.Remarks),
	}

	var (
		entries  []models.ProductionEntry
		updates  []models.BatchProgressUpdate
		consumed []models.Advance
	)
	err = s.Store.RunInTx(ctx, func(tx repositories.SettlementTx) error {
		locked, err := tx.LockBatches(ctx, plan.batchIDs)
		if err != nil {
			return err
		}
		produced, err := tx.ProducedTotals(ctx, plan.batchIDs)
		if err != nil {
			return err
		}
		// Another settlement may have committed since prepare; check again under the lock
		if err := revalidate(plan, locked, produced); err != nil {
			return err
		}

		if req.DeductAdvances {
			current, err := tx.LockUnsettledAdvances(ctx, req.EmployeeID)
			if err != nil {
				return err
			}
			if !sameAdvances(snapshot, current) {
				return fmt.Errorf("%w: unsettled advances changed", ErrConcurrentModification)
			}
			consumed = current
		}

		if err := tx.InsertSettlement(ctx, &settlement); err != nil {
			return err
		}

		entries = make([]models.ProductionEntry, len(plan.entries))
		copy(entries, plan.entries)
		for i := range entries {
			entries[i].SettlementID = settlement.ID
		}
		if err := tx.InsertEntries(ctx, entries); err != nil {
			return err
		}

		if len(consumed) > 0 {
			if err := tx.MarkAdvancesSettled(ctx, advanceIDs(consumed), settlement.ID); err != nil {
				if errors.Is(err, repositories.ErrAlreadySettled) {
					return fmt.Errorf("%w: advance already deducted", ErrConcurrentModification)
				}
				return err
			}
		}

		updates, err = recomputeBatches(ctx, tx, locked, plan.batchIDs, "settlement")
		return err
	})
	if err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			logger.WithFields(logrus.Fields{
				"employee_id": req.EmployeeID,
				"reason":      err.Error(),
			}).Warn("settlement aborted at commit")
			return nil, err
		}
		config.LogError(logger, "services", "Settle", "commit failed", req.EmployeeID, err)
		return nil, &StorageFailureError{Op: "settle", Err: err}
	}

	for i := range consumed {
		sid := settlement.ID
		consumed[i].IsSettled = true
		consumed[i].SettlementID = &sid
	}

	detail := &models.SettlementDetail{
		Settlement:      settlement,
		Entries:         entries,
		Advances:        consumed,
		BatchProgress:   make(map[int]decimal.Decimal, len(updates)),
		ProgressUpdates: updates,
	}
	if detail.Advances == nil {
		detail.Advances = []models.Advance{}
	}
	for _, u := range updates {
		detail.BatchProgress[u.BatchID] = u.OverallProgress
	}

	cache.InvalidateSettlementCaches(ctx, req.EmployeeID, plan.batchIDs)
	metrics.SettlementsTotal.Inc()
	for _, e := range entries {
		metrics.PiecesSettled.WithLabelValues(e.Department).Add(float64(e.Quantity))
	}
	logger.WithFields(logrus.Fields{
		"settlement_number": settlement.SettlementNumber,
		"employee_id":       settlement.EmployeeID,
		"rows":              len(entries),
		"total":             settlement.TotalProductionAmount.StringFixed(2),
		"advances_deducted": settlement.AdvancesDeducted.StringFixed(2),
		"net_payable":       settlement.NetPayable.StringFixed(2),
	}).Info("settlement committed")

	return detail, nil
}

// Preview runs the same validation and arithmetic as Settle without writing anything
func (s *SettlementService) Preview(ctx context.Context, req *models.SettleRequest) (*models.SettlementPreview, error) {
	plan, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	unsettled, err := s.Store.UnsettledAdvances(ctx, req.EmployeeID)
	if err != nil {
		return nil, &StorageFailureError{Op: "load advances", Err: err}
	}
	if unsettled == nil {
		unsettled = []models.Advance{}
	}
	deducted := decimal.Zero
	if req.DeductAdvances {
		deducted = SumAdvances(unsettled)
	}

	return &models.SettlementPreview{
		EmployeeID:            req.EmployeeID,
		Entries:               plan.entries,
		TotalProductionAmount: plan.total,
		AdvancesDeducted:      deducted,
		NetPayable:            plan.total.Sub(deducted),
		UnsettledAdvances:     unsettled,
	}, nil
}

// prepare resolves the employee and every batch, validates all rows and
// computes amounts. Row failures are collected into one *ValidationError.
func (s *SettlementService) prepare(ctx context.Context, req *models.SettleRequest) (*settlementPlan, error) {
	if _, err := s.Store.GetEmployee(ctx, req.EmployeeID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, &StorageFailureError{Op: "load employee", Err: err}
	}
	if len(req.Rows) == 0 {
		return nil, fmt.Errorf("%w: at least one production row is required", ErrInvalidRow)
	}

	date := timeutil.StartOfDay(timeutil.Now())
	if req.SettlementDate != "" {
		d, err := timeutil.ParseDate(req.SettlementDate)
		if err != nil {
			return nil, fmt.Errorf("%w: settlement_date must be YYYY-MM-DD", ErrInvalidInput)
		}
		date = d
	}

	batches := make(map[int]*models.Batch)
	var batchIDs []int
	for _, row := range req.Rows {
		if row.BatchID <= 0 {
			continue
		}
		if _, seen := batches[row.BatchID]; seen {
			continue
		}
		b, err := s.Store.GetBatch(ctx, row.BatchID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, &StorageFailureError{Op: "load batch", Err: err}
		}
		batches[row.BatchID] = b // nil when missing
		if b != nil {
			batchIDs = append(batchIDs, row.BatchID)
		}
	}
	sort.Ints(batchIDs)

	produced, err := s.Store.ProducedTotals(ctx, batchIDs)
	if err != nil {
		return nil, &StorageFailureError{Op: "load production totals", Err: err}
	}

	verr := &ValidationError{}
	plan := &settlementPlan{date: date, batchIDs: batchIDs, total: decimal.Zero}
	for i, row := range req.Rows {
		department := strings.TrimSpace(row.Department)
		batch := batches[row.BatchID]

		if err := checkRow(row, department, batch); err != nil {
			verr.add(i, row.BatchID, department, err)
			continue
		}
		if err := ValidateCapacity(batch, row.Quantity, produced[row.BatchID]); err != nil {
			verr.add(i, row.BatchID, department, err)
			continue
		}
		// Sibling rows on the same batch draw from the same ceiling
		produced[row.BatchID] += row.Quantity

		amount := RowAmount(row.Quantity, row.Rate)
		plan.entries = append(plan.entries, models.ProductionEntry{
			BatchID:     row.BatchID,
			BatchNumber: batch.BatchNumber,
			EmployeeID:  req.EmployeeID,
			Department:  department,
			EntryDate:   date,
			Quantity:    row.Quantity,
			Rate:        row.Rate,
			Amount:      amount,
		})
		plan.total = plan.total.Add(amount)
	}
	if !verr.empty() {
		return nil, verr
	}
	return plan, nil
}

func checkRow(row models.SettlementRow, department string, batch *models.Batch) error {
	switch {
	case row.BatchID <= 0:
		return fmt.Errorf("%w: batch is required", ErrInvalidRow)
	case batch == nil:
		return fmt.Errorf("%w: batch %d not found", ErrInvalidRow, row.BatchID)
	case department == "":
		return fmt.Errorf("%w: batch %s: department is required", ErrInvalidRow, batch.BatchNumber)
	case row.Quantity <= 0:
		return fmt.Errorf("%w: batch %s: quantity must be greater than 0", ErrInvalidRow, batch.BatchNumber)
	case row.Rate.IsNegative():
		return fmt.Errorf("%w: batch %s: rate cannot be negative", ErrInvalidRow, batch.BatchNumber)
	case !row.Rate.Equal(row.Rate.Round(4)):
		return fmt.Errorf("%w: batch %s: rate has more than 4 decimal places", ErrInvalidRow, batch.BatchNumber)
	}
	return nil
}

// RowAmount is quantity * rate rounded half away from zero to paise
func RowAmount(quantity int, rate decimal.Decimal) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// revalidate repeats the capacity check against totals read under the batch locks
func revalidate(plan *settlementPlan, locked map[int]*models.Batch, produced map[int]int) error {
	running := make(map[int]int, len(produced))
	for id, n := range produced {
		running[id] = n
	}
	for _, e := range plan.entries {
		batch, ok := locked[e.BatchID]
		if !ok {
			return fmt.Errorf("%w: batch %s no longer exists", ErrConcurrentModification, e.BatchNumber)
		}
		if err := ValidateCapacity(batch, e.Quantity, running[e.BatchID]); err != nil {
			return fmt.Errorf("%w: %v", ErrConcurrentModification, err)
		}
		running[e.BatchID] += e.Quantity
	}
	return nil
}

// recomputeBatches rewrites progress of each batch from the totals now visible in tx
func recomputeBatches(ctx context.Context, tx repositories.SettlementTx, locked map[int]*models.Batch, batchIDs []int, cause string) ([]models.BatchProgressUpdate, error) {
	totals, err := tx.ProducedTotals(ctx, batchIDs)
	if err != nil {
		return nil, err
	}

	now := timeutil.Now()
	updates := make([]models.BatchProgressUpdate, 0, len(batchIDs))
	for _, id := range batchIDs {
		batch, ok := locked[id]
		if !ok {
			continue
		}
		progress := RecomputeProgress(batch, totals[id])
		status := ProgressStatus(batch, progress)
		if err := tx.UpdateBatchProgress(ctx, id, progress, status); err != nil {
			return nil, err
		}
		updates = append(updates, models.BatchProgressUpdate{
			BatchID:         id,
			BatchNumber:     batch.BatchNumber,
			CutQuantity:     batch.CutQuantity,
			Produced:        totals[id],
			OverallProgress: progress,
			Status:          status,
			Cause:           cause,
			At:              now,
		})
	}
	return updates, nil
}

// ReverseSettlement deletes a settlement with its entries, returns its advances
// to unsettled and recomputes progress of the affected batches, atomically.
// The returned updates carry the new progress of every affected batch.
func (s *SettlementService) ReverseSettlement(ctx context.Context, id int) (*models.Settlement, []models.BatchProgressUpdate, error) {
	ctx, span := tracer.Start(ctx, "SettlementService.ReverseSettlement", trace.WithAttributes(
		attribute.Int("settlement_id", id),
	))
	defer span.End()
	logger := config.GetLogger()

	var (
		reversed *models.Settlement
		updates  []models.BatchProgressUpdate
		batchIDs []int
		released int
	)
	err := s.Store.RunInTx(ctx, func(tx repositories.SettlementTx) error {
		var err error
		reversed, err = tx.LockSettlement(ctx, id)
		if err != nil {
			return err
		}
		entries, err := tx.EntriesForSettlement(ctx, id)
		if err != nil {
			return err
		}
		batchIDs = distinctBatchIDs(entries)

		locked, err := tx.LockBatches(ctx, batchIDs)
		if err != nil {
			return err
		}
		if err := tx.DeleteEntriesForSettlement(ctx, id); err != nil {
			return err
		}
		if released, err = tx.UnsettleAdvances(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteSettlement(ctx, id); err != nil {
			return err
		}
		updates, err = recomputeBatches(ctx, tx, locked, batchIDs, "reversal")
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, ErrSettlementNotFound
		}
		config.LogError(logger, "services", "ReverseSettlement", "reversal failed", id, err)
		return nil, nil, &StorageFailureError{Op: "reverse settlement", Err: err}
	}

	cache.InvalidateSettlementCaches(ctx, reversed.EmployeeID, batchIDs)
	metrics.SettlementReversals.Inc()
	logger.WithFields(logrus.Fields{
		"settlement_number": reversed.SettlementNumber,
		"employee_id":       reversed.EmployeeID,
		"advances_released": released,
		"batches":           batchIDs,
	}).Info("settlement reversed")
	return reversed, updates, nil
}

func (s *SettlementService) GetSettlement(ctx context.Context, id int) (*models.SettlementDetail, error) {
	settlement, err := s.Store.GetSettlement(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSettlementNotFound
		}
		return nil, err
	}
	entries, err := s.Store.ListEntriesBySettlement(ctx, id)
	if err != nil {
		return nil, err
	}
	advances, err := s.Store.ListAdvancesBySettlement(ctx, id)
	if err != nil {
		return nil, err
	}
	if advances == nil {
		advances = []models.Advance{}
	}
	return &models.SettlementDetail{Settlement: *settlement, Entries: entries, Advances: advances}, nil
}

// ListByEmployee is the employee's payment record, newest first
func (s *SettlementService) ListByEmployee(ctx context.Context, employeeID int) ([]models.Settlement, error) {
	settlements, err := s.Store.ListSettlementsByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if settlements == nil {
		settlements = []models.Settlement{}
	}
	return settlements, nil
}

func distinctBatchIDs(entries []models.ProductionEntry) []int {
	seen := make(map[int]bool)
	var ids []int
	for _, e := range entries {
		if !seen[e.BatchID] {
			seen[e.BatchID] = true
			ids = append(ids, e.BatchID)
		}
	}
	sort.Ints(ids)
	return ids
}

func rejectionReason(err error) string {
	var verr *ValidationError
	var serr *StorageFailureError
	switch {
	case errors.As(err, &verr), errors.Is(err, ErrInvalidRow), errors.Is(err, ErrInvalidInput):
		return "validation"
	case errors.Is(err, ErrEmployeeNotFound):
		return "not_found"
	case errors.Is(err, ErrConcurrentModification):
		return "concurrent_modification"
	case errors.As(err, &serr):
		return "storage_failure"
	}
	return "other"
}
