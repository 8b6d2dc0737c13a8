package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"garment-backend/internal/cache"
	"garment-backend/internal/models"
	"garment-backend/internal/repositories"
	"garment-backend/internal/timeutil"
)

var (
	ErrCuttingAlreadyComplete = errors.New("cutting already completed, cut quantity is frozen")
	ErrDuplicateBatch         = errors.New("batch number already exists")
)

type BatchService struct {
	Repo repositories.BatchTxStore
}

func NewBatchService(repo repositories.BatchTxStore) *BatchService {
	return &BatchService{Repo: repo}
}

func (s *BatchService) CreateBatch(ctx context.Context, req *models.CreateBatchRequest) (*models.Batch, error) {
	batch := &models.Batch{
		BatchNumber: strings.TrimSpace(req.BatchNumber),
		StyleName:   strings.TrimSpace(req.StyleName),
		Colors:      strings.TrimSpace(req.Colors),
	}
	if batch.BatchNumber == "" {
		return nil, fmt.Errorf("%w: batch_number is required", ErrInvalidInput)
	}

	if err := s.Repo.CreateBatch(ctx, batch); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateBatch
		}
		return nil, err
	}
	return batch, nil
}

func (s *BatchService) GetBatch(ctx context.Context, id int) (*models.Batch, error) {
	b, err := s.Repo.GetBatch(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrBatchNotFound
	}
	return b, err
}

func (s *BatchService) ListBatches(ctx context.Context) ([]*models.Batch, error) {
	batches, err := s.Repo.ListBatches(ctx)
	if batches == nil && err == nil {
		batches = []*models.Batch{}
	}
	return batches, err
}

// CompleteCutting freezes the cut quantity and gives the batch its cutting
// points. The freeze, the produced total and the progress write share one
// transaction, so a settlement cannot slip in between them.
func (s *BatchService) CompleteCutting(ctx context.Context, id int, cutQuantity int) (*models.Batch, models.BatchProgressUpdate, error) {
	var update models.BatchProgressUpdate
	if cutQuantity <= 0 {
		return nil, update, fmt.Errorf("%w: cut_quantity must be greater than 0", ErrInvalidInput)
	}

	var batch *models.Batch
	err := s.Repo.RunInTx(ctx, func(tx repositories.SettlementTx) error {
		b, err := tx.CompleteCutting(ctx, id, cutQuantity)
		if err != nil {
			return err
		}
		totals, err := tx.ProducedTotals(ctx, []int{id})
		if err != nil {
			return err
		}
		b.OverallProgress = RecomputeProgress(b, totals[id])
		b.Status = ProgressStatus(b, b.OverallProgress)
		if err := tx.UpdateBatchProgress(ctx, id, b.OverallProgress, b.Status); err != nil {
			return err
		}
		batch = b
		update = models.BatchProgressUpdate{
			BatchID:         b.ID,
			BatchNumber:     b.BatchNumber,
			CutQuantity:     b.CutQuantity,
			Produced:        totals[id],
			OverallProgress: b.OverallProgress,
			Status:          b.Status,
			Cause:           "cutting",
			At:              timeutil.Now(),
		}
		return nil
	})
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil, update, ErrBatchNotFound
	case errors.Is(err, repositories.ErrCuttingFrozen):
		return nil, update, ErrCuttingAlreadyComplete
	case err != nil:
		return nil, update, err
	}

	cache.InvalidateBatchCaches(ctx, id)
	return batch, update, nil
}

// Capacity reports how much is left to produce, served from cache when possible
func (s *BatchService) Capacity(ctx context.Context, id int) (*models.BatchCapacity, error) {
	key := cache.BatchCapacityKey(id)
	var capacity models.BatchCapacity
	if cache.GetJSON(ctx, key, &capacity) {
		return &capacity, nil
	}

	batch, err := s.GetBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	totals, err := s.Repo.ProducedTotals(ctx, []int{id})
	if err != nil {
		return nil, err
	}

	capacity = models.BatchCapacity{
		BatchID:          batch.ID,
		BatchNumber:      batch.BatchNumber,
		CuttingCompleted: batch.CuttingCompleted,
		CutQuantity:      batch.CutQuantity,
		Produced:         totals[id],
		Remaining:        RemainingCapacity(batch, totals[id]),
		OverallProgress:  batch.OverallProgress,
	}
	cache.SetJSON(ctx, key, capacity, cache.SummaryTTL)
	return &capacity, nil
}

func (s *BatchService) ListEntries(ctx context.Context, id int) ([]models.ProductionEntry, error) {
	if _, err := s.GetBatch(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.Repo.ListEntriesByBatch(ctx, id)
	if entries == nil && err == nil {
		entries = []models.ProductionEntry{}
	}
	return entries, err
}
