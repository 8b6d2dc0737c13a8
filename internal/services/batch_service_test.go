package services

import (
	"context"
	"errors"
	"testing"

	"garment-backend/internal/models"
	"garment-backend/internal/repositories"

	"github.com/shopspring/decimal"
)

func TestBatchLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewBatchService(f.store)

	batch, err := svc.CreateBatch(ctx, &models.CreateBatchRequest{BatchNumber: " B-77 ", StyleName: "Kurta"})
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if batch.BatchNumber != "B-77" || batch.Status != models.BatchStatusCutting {
		t.Fatalf("unexpected batch %+v", batch)
	}
	if _, err := svc.CreateBatch(ctx, &models.CreateBatchRequest{BatchNumber: "B-77"}); !errors.Is(err, ErrDuplicateBatch) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	if _, _, err := svc.CompleteCutting(ctx, batch.ID, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for zero cut quantity, got %v", err)
	}
	cut, update, err := svc.CompleteCutting(ctx, batch.ID, 400)
	if err != nil {
		t.Fatalf("CompleteCutting: %v", err)
	}
	if !cut.OverallProgress.Equal(dec("35")) || cut.Status != models.BatchStatusProduction {
		t.Fatalf("unexpected batch after cutting %+v", cut)
	}
	if update.Cause != "cutting" || update.BatchID != batch.ID || !update.OverallProgress.Equal(dec("35")) {
		t.Fatalf("unexpected cutting update %+v", update)
	}
	if _, _, err := svc.CompleteCutting(ctx, batch.ID, 500); !errors.Is(err, ErrCuttingAlreadyComplete) {
		t.Fatalf("cut quantity must be frozen, got %v", err)
	}
	if _, _, err := svc.CompleteCutting(ctx, 9999, 10); !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, err := f.svc.Settle(ctx, &models.SettleRequest{
		EmployeeID: f.employee.ID,
		Rows:       []models.SettlementRow{row(batch.ID, "Stitching", 100, "3")},
	}); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	capacity, err := svc.Capacity(ctx, batch.ID)
	if err != nil {
		t.Fatalf("Capacity: %v", err)
	}
	if capacity.CutQuantity != 400 || capacity.Produced != 100 || capacity.Remaining != 300 || !capacity.OverallProgress.Equal(dec("51.25")) {
		t.Fatalf("unexpected capacity %+v", capacity)
	}

	entries, err := svc.ListEntries(ctx, batch.ID)
	if err != nil || len(entries) != 1 || entries[0].BatchNumber != "B-77" {
		t.Fatalf("ListEntries = %+v, %v", entries, err)
	}
}

// txHookStore runs a callback once right after a produced-total read inside a
// transaction
type txHookStore struct {
	*repositories.MemoryStore
	afterTotals func()
}

func (h *txHookStore) RunInTx(ctx context.Context, fn func(tx repositories.SettlementTx) error) error {
	return h.MemoryStore.RunInTx(ctx, func(tx repositories.SettlementTx) error {
		return fn(&hookTx{SettlementTx: tx, store: h})
	})
}

type hookTx struct {
	repositories.SettlementTx
	store *txHookStore
}

func (t *hookTx) ProducedTotals(ctx context.Context, ids []int) (map[int]int, error) {
	totals, err := t.SettlementTx.ProducedTotals(ctx, ids)
	if fn := t.store.afterTotals; fn != nil {
		t.store.afterTotals = nil
		fn()
	}
	return totals, err
}

func TestCompleteCuttingProgressSurvivesConcurrentSettlement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := f.newBatch(t, "B-200", 0)

	settled := make(chan error, 1)
	hooked := &txHookStore{MemoryStore: f.store}
	hooked.afterTotals = func() {
		// runs once the cutting transaction lets go of the batch
		go func() {
			_, err := f.svc.Settle(ctx, &models.SettleRequest{
				EmployeeID: f.employee.ID,
				Rows:       []models.SettlementRow{row(batch.ID, "Stitching", 150, "10")},
			})
			settled <- err
		}()
	}

	if _, _, err := NewBatchService(hooked).CompleteCutting(ctx, batch.ID, 200); err != nil {
		t.Fatalf("CompleteCutting: %v", err)
	}
	if err := <-settled; err != nil {
		t.Fatalf("Settle: %v", err)
	}

	stored, err := f.store.GetBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	produced := f.produced(t, batch.ID)
	fresh := RecomputeProgress(stored, produced)
	if produced != 150 || !fresh.Equal(dec("83.75")) {
		t.Fatalf("produced=%d fresh=%s", produced, fresh)
	}
	if !stored.OverallProgress.Equal(fresh) {
		t.Fatalf("stored progress %s drifted from recomputed %s", stored.OverallProgress, fresh)
	}
}

func TestCompleteCuttingFailureKeepsBatchOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := f.newBatch(t, "B-300", 0)

	failing := &cuttingFaultStore{MemoryStore: f.store, err: errors.New("connection reset")}
	if _, _, err := NewBatchService(failing).CompleteCutting(ctx, batch.ID, 300); err == nil {
		t.Fatal("expected failure")
	}
	stored, _ := f.store.GetBatch(ctx, batch.ID)
	if stored.CuttingCompleted || stored.CutQuantity != 0 || !stored.OverallProgress.IsZero() {
		t.Fatalf("failed cutting left %+v", stored)
	}
}

// cuttingFaultStore fails the progress write after the freeze
type cuttingFaultStore struct {
	*repositories.MemoryStore
	err error
}

func (c *cuttingFaultStore) RunInTx(ctx context.Context, fn func(tx repositories.SettlementTx) error) error {
	return c.MemoryStore.RunInTx(ctx, func(tx repositories.SettlementTx) error {
		return fn(&progressFaultTx{SettlementTx: tx, err: c.err})
	})
}

type progressFaultTx struct {
	repositories.SettlementTx
	err error
}

func (t *progressFaultTx) UpdateBatchProgress(ctx context.Context, id int, progress decimal.Decimal, status models.BatchStatus) error {
	return t.err
}

func TestDeleteEmployeeRefusedWhileReferenced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewEmployeeService(f.store)

	free, err := svc.CreateEmployee(ctx, &models.CreateEmployeeRequest{
		Name: "Temp", EmploymentType: models.EmploymentDirect, RateType: models.RateDaily,
	})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	if err := svc.DeleteEmployee(ctx, free.ID); err != nil {
		t.Fatalf("DeleteEmployee: %v", err)
	}
	if _, err := svc.GetEmployee(ctx, free.ID); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	f.newAdvance(t, f.employee.ID, "50", 1)
	if err := svc.DeleteEmployee(ctx, f.employee.ID); !errors.Is(err, ErrEmployeeInUse) {
		t.Fatalf("expected in use, got %v", err)
	}

	updated, err := svc.UpdateEmployee(ctx, f.employee.ID, &models.UpdateEmployeeRequest{
		Name: "Ravi Kumar", EmploymentType: models.EmploymentDirect, RateType: models.RatePiece, IsActive: false,
	})
	if err != nil || updated.Name != "Ravi Kumar" || updated.IsActive {
		t.Fatalf("UpdateEmployee = %+v, %v", updated, err)
	}
}
