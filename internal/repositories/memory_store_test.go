package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"garment-backend/internal/models"

	"github.com/shopspring/decimal"
)

func seed(t *testing.T) (*MemoryStore, *models.Employee, *models.Batch, *models.Advance) {
	t.Helper()
	ctx := context.Background()
	m := NewMemoryStore()

	e := &models.Employee{Name: "Ravi", EmploymentType: models.EmploymentContract, RateType: models.RatePiece}
	if err := m.CreateEmployee(ctx, e); err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	b := &models.Batch{BatchNumber: "B-1"}
	if err := m.CreateBatch(ctx, b); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	a := &models.Advance{EmployeeID: e.ID, AdvanceDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(100), PaymentMode: models.PaymentModeCash}
	if err := m.CreateAdvance(ctx, a); err != nil {
		t.Fatalf("CreateAdvance: %v", err)
	}
	return m, e, b, a
}

func TestRunInTxDiscardsOnError(t *testing.T) {
	m, e, b, a := seed(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := m.RunInTx(ctx, func(tx SettlementTx) error {
		s := &models.Settlement{EmployeeID: e.ID, SettlementDate: time.Now()}
		if err := tx.InsertSettlement(ctx, s); err != nil {
			return err
		}
		if err := tx.InsertEntries(ctx, []models.ProductionEntry{{BatchID: b.ID, EmployeeID: e.ID, Quantity: 5, SettlementID: s.ID}}); err != nil {
			return err
		}
		if err := tx.MarkAdvancesSettled(ctx, []int{a.ID}, s.ID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunInTx: %v", err)
	}

	if totals, _ := m.ProducedTotals(ctx, []int{b.ID}); totals[b.ID] != 0 {
		t.Fatalf("entries leaked from failed tx: %v", totals)
	}
	if unsettled, _ := m.UnsettledAdvances(ctx, e.ID); len(unsettled) != 1 {
		t.Fatalf("advance settled by failed tx: %+v", unsettled)
	}
	if list, _ := m.ListSettlementsByEmployee(ctx, e.ID); len(list) != 0 {
		t.Fatalf("settlement leaked: %+v", list)
	}
}

func TestRunInTxCancelledContext(t *testing.T) {
	m, e, _, _ := seed(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := m.RunInTx(ctx, func(tx SettlementTx) error {
		cancel()
		return tx.InsertSettlement(ctx, &models.Settlement{EmployeeID: e.ID})
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunInTx: %v", err)
	}
	if list, _ := m.ListSettlementsByEmployee(context.Background(), e.ID); len(list) != 0 {
		t.Fatalf("settlement committed after cancel: %+v", list)
	}
}

func TestMarkAdvancesSettledTwice(t *testing.T) {
	m, e, _, a := seed(t)
	ctx := context.Background()

	var first int
	err := m.RunInTx(ctx, func(tx SettlementTx) error {
		s := &models.Settlement{EmployeeID: e.ID}
		if err := tx.InsertSettlement(ctx, s); err != nil {
			return err
		}
		first = s.ID
		return tx.MarkAdvancesSettled(ctx, []int{a.ID}, s.ID)
	})
	if err != nil {
		t.Fatalf("first settle: %v", err)
	}

	err = m.RunInTx(ctx, func(tx SettlementTx) error {
		s := &models.Settlement{EmployeeID: e.ID}
		if err := tx.InsertSettlement(ctx, s); err != nil {
			return err
		}
		return tx.MarkAdvancesSettled(ctx, []int{a.ID}, s.ID)
	})
	if !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("second settle: %v", err)
	}

	linked, _ := m.ListAdvancesBySettlement(ctx, first)
	if len(linked) != 1 || !linked[0].IsSettled || *linked[0].SettlementID != first {
		t.Fatalf("advance link = %+v", linked)
	}
}

func TestRollbackDoesNotAdvanceSequence(t *testing.T) {
	m, e, _, _ := seed(t)
	ctx := context.Background()

	var numbers []string
	for i := 0; i < 2; i++ {
		err := m.RunInTx(ctx, func(tx SettlementTx) error {
			s := &models.Settlement{EmployeeID: e.ID}
			if err := tx.InsertSettlement(ctx, s); err != nil {
				return err
			}
			numbers = append(numbers, s.SettlementNumber)
			if i == 0 {
				return errors.New("rolled back")
			}
			return nil
		})
		if i == 1 && err != nil {
			t.Fatalf("RunInTx: %v", err)
		}
	}
	// a rolled back staged copy does not advance the live sequence
	if numbers[0] != "STL-000001" || numbers[1] != "STL-000001" {
		t.Fatalf("numbers = %v", numbers)
	}
}

func TestBatchConstraints(t *testing.T) {
	m, _, b, _ := seed(t)
	ctx := context.Background()

	if err := m.CreateBatch(ctx, &models.Batch{BatchNumber: "b-1"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate batch number: %v", err)
	}
	other := &models.Batch{BatchNumber: "B-2"}
	if err := m.CreateBatch(ctx, other); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if _, err := completeCutting(m, b.ID, 50); err != nil {
		t.Fatalf("CompleteCutting: %v", err)
	}
	if _, err := completeCutting(m, b.ID, 60); !errors.Is(err, ErrCuttingFrozen) {
		t.Fatalf("second CompleteCutting: %v", err)
	}
	if _, err := completeCutting(m, 999, 60); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing batch: %v", err)
	}
	// a freeze inside a failed transaction is not kept
	err := m.RunInTx(ctx, func(tx SettlementTx) error {
		if _, err := tx.CompleteCutting(ctx, other.ID, 10); err != nil {
			return err
		}
		return errors.New("rolled back")
	})
	if err == nil {
		t.Fatal("expected rollback error")
	}
	if got, _ := m.GetBatch(ctx, other.ID); got.CuttingCompleted {
		t.Fatalf("rolled back freeze was kept: %+v", got)
	}
	got, _ := m.GetBatch(ctx, b.ID)
	if got.CutQuantity != 50 || !got.CuttingCompleted {
		t.Fatalf("batch after freeze %+v", got)
	}
}

func completeCutting(m *MemoryStore, id, cut int) (*models.Batch, error) {
	var b *models.Batch
	err := m.RunInTx(context.Background(), func(tx SettlementTx) error {
		var err error
		b, err = tx.CompleteCutting(context.Background(), id, cut)
		return err
	})
	return b, err
}

func TestCreateAdvanceRejectsUnknownBatch(t *testing.T) {
	m, e, b, _ := seed(t)
	ctx := context.Background()

	missing := 999
	a := &models.Advance{EmployeeID: e.ID, AdvanceDate: time.Now(), Amount: decimal.NewFromInt(10), PaymentMode: models.PaymentModeCash, BatchID: &missing}
	if err := m.CreateAdvance(ctx, a); !errors.Is(err, ErrInUse) {
		t.Fatalf("unknown batch: %v", err)
	}
	a.BatchID = &b.ID
	if err := m.CreateAdvance(ctx, a); err != nil {
		t.Fatalf("known batch: %v", err)
	}
}
