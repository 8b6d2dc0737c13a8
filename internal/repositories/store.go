package repositories

import (
	"context"
	"errors"

	"garment-backend/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrInUse          = errors.New("record is still referenced")
	ErrDuplicate      = errors.New("record already exists")
	ErrCuttingFrozen  = errors.New("cutting already completed, cut quantity is frozen")
	ErrAlreadySettled = errors.New("advance already settled")
)

type EmployeeStore interface {
	CreateEmployee(ctx context.Context, e *models.Employee) error
	GetEmployee(ctx context.Context, id int) (*models.Employee, error)
	ListEmployees(ctx context.Context) ([]*models.Employee, error)
	UpdateEmployee(ctx context.Context, e *models.Employee) error
	// DeleteEmployee fails with ErrInUse while entries, advances or settlements reference it
	DeleteEmployee(ctx context.Context, id int) error
}

type BatchStore interface {
	CreateBatch(ctx context.Context, b *models.Batch) error
	GetBatch(ctx context.Context, id int) (*models.Batch, error)
	ListBatches(ctx context.Context) ([]*models.Batch, error)
	UpdateBatchProgress(ctx context.Context, id int, progress decimal.Decimal, status models.BatchStatus) error
	// ProducedTotals sums entry quantities per batch across all employees and departments
	ProducedTotals(ctx context.Context, batchIDs []int) (map[int]int, error)
	ListEntriesByBatch(ctx context.Context, batchID int) ([]models.ProductionEntry, error)
}

// BatchTxStore is a BatchStore whose cutting completion runs in a transaction
// together with the progress it produces.
type BatchTxStore interface {
	BatchStore
	RunInTx(ctx context.Context, fn func(tx SettlementTx) error) error
}

type AdvanceStore interface {
	CreateAdvance(ctx context.Context, a *models.Advance) error
	ListAdvancesByEmployee(ctx context.Context, employeeID int) ([]models.Advance, error)
	// UnsettledAdvances returns the employee's open advances, oldest first
	UnsettledAdvances(ctx context.Context, employeeID int) ([]models.Advance, error)
}

// SettlementStore runs settlement writes atomically. Nothing done through the
// SettlementTx is visible to other callers unless fn returns nil.
type SettlementStore interface {
	RunInTx(ctx context.Context, fn func(tx SettlementTx) error) error
	GetSettlement(ctx context.Context, id int) (*models.Settlement, error)
	ListSettlementsByEmployee(ctx context.Context, employeeID int) ([]models.Settlement, error)
	ListEntriesBySettlement(ctx context.Context, settlementID int) ([]models.ProductionEntry, error)
	ListAdvancesBySettlement(ctx context.Context, settlementID int) ([]models.Advance, error)
}

// SettlementTx is the write side of a settlement transaction.
// Lock* methods hold their rows until the transaction ends.
type SettlementTx interface {
	LockBatches(ctx context.Context, ids []int) (map[int]*models.Batch, error)
	ProducedTotals(ctx context.Context, batchIDs []int) (map[int]int, error)
	LockUnsettledAdvances(ctx context.Context, employeeID int) ([]models.Advance, error)
	InsertSettlement(ctx context.Context, s *models.Settlement) error
	InsertEntries(ctx context.Context, entries []models.ProductionEntry) error
	// MarkAdvancesSettled marks exactly ids, all of which must still be unsettled,
	// otherwise it fails with ErrAlreadySettled and marks nothing.
	MarkAdvancesSettled(ctx context.Context, ids []int, settlementID int) error
	UpdateBatchProgress(ctx context.Context, id int, progress decimal.Decimal, status models.BatchStatus) error
	// CompleteCutting sets the cut quantity and freezes it, holding the batch row
	// until the transaction ends. Fails with ErrCuttingFrozen the second time.
	CompleteCutting(ctx context.Context, id int, cutQuantity int) (*models.Batch, error)

	LockSettlement(ctx context.Context, id int) (*models.Settlement, error)
	EntriesForSettlement(ctx context.Context, settlementID int) ([]models.ProductionEntry, error)
	DeleteEntriesForSettlement(ctx context.Context, settlementID int) error
	UnsettleAdvances(ctx context.Context, settlementID int) (int, error)
	DeleteSettlement(ctx context.Context, id int) error
}

// Store is everything the services need from persistence
type Store interface {
	EmployeeStore
	BatchStore
	AdvanceStore
	SettlementStore
}
