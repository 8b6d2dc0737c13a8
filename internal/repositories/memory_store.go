package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"garment-backend/internal/models"

	"github.com/shopspring/decimal"
)

// MemoryStore keeps everything in process. Transactions work on a staged copy
// of the tables that replaces the live one only when the callback succeeds.
type MemoryStore struct {
	mu   sync.RWMutex
	data *memoryTables
}

type memoryTables struct {
	employees   map[int]models.Employee
	batches     map[int]models.Batch
	entries     map[int]models.ProductionEntry
	advances    map[int]models.Advance
	settlements map[int]models.Settlement

	nextID        int
	settlementSeq int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: &memoryTables{
		employees:   make(map[int]models.Employee),
		batches:     make(map[int]models.Batch),
		entries:     make(map[int]models.ProductionEntry),
		advances:    make(map[int]models.Advance),
		settlements: make(map[int]models.Settlement),
	}}
}

var _ Store = (*MemoryStore)(nil)

func (t *memoryTables) clone() *memoryTables {
	c := &memoryTables{
		employees:     make(map[int]models.Employee, len(t.employees)),
		batches:       make(map[int]models.Batch, len(t.batches)),
		entries:       make(map[int]models.ProductionEntry, len(t.entries)),
		advances:      make(map[int]models.Advance, len(t.advances)),
		settlements:   make(map[int]models.Settlement, len(t.settlements)),
		nextID:        t.nextID,
		settlementSeq: t.settlementSeq,
	}
	for k, v := range t.employees {
		c.employees[k] = v
	}
	for k, v := range t.batches {
		c.batches[k] = v
	}
	for k, v := range t.entries {
		c.entries[k] = v
	}
	for k, v := range t.advances {
		c.advances[k] = v
	}
	for k, v := range t.settlements {
		c.settlements[k] = v
	}
	return c
}

func (t *memoryTables) id() int {
	t.nextID++
	return t.nextID
}

// ============================================
// Employees
// ============================================

func (m *MemoryStore) CreateEmployee(ctx context.Context, e *models.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	e.ID = m.data.id()
	e.CreatedAt, e.UpdatedAt = now, now
	m.data.employees[e.ID] = *e
	return nil
}

func (m *MemoryStore) GetEmployee(ctx context.Context, id int) (*models.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data.employees[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *MemoryStore) ListEmployees(ctx context.Context) ([]*models.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	employees := make([]*models.Employee, 0, len(m.data.employees))
	for _, e := range m.data.employees {
		e := e
		employees = append(employees, &e)
	}
	sort.Slice(employees, func(i, j int) bool {
		if employees[i].Name != employees[j].Name {
			return employees[i].Name < employees[j].Name
		}
		return employees[i].ID < employees[j].ID
	})
	return employees, nil
}

func (m *MemoryStore) UpdateEmployee(ctx context.Context, e *models.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.data.employees[e.ID]
	if !ok {
		return ErrNotFound
	}
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now()
	m.data.employees[e.ID] = *e
	return nil
}

func (m *MemoryStore) DeleteEmployee(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data.employees[id]; !ok {
		return ErrNotFound
	}
	for _, e := range m.data.entries {
		if e.EmployeeID == id {
			return ErrInUse
		}
	}
	for _, a := range m.data.advances {
		if a.EmployeeID == id {
			return ErrInUse
		}
	}
	for _, s := range m.data.settlements {
		if s.EmployeeID == id {
			return ErrInUse
		}
	}
	delete(m.data.employees, id)
	return nil
}

// ============================================
// Batches
// ============================================

func (m *MemoryStore) CreateBatch(ctx context.Context, b *models.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.data.batches {
		if strings.EqualFold(existing.BatchNumber, b.BatchNumber) {
			return ErrDuplicate
		}
	}
	now := time.Now()
	b.ID = m.data.id()
	b.CutQuantity = 0
	b.CuttingCompleted = false
	b.OverallProgress = decimal.Zero
	b.Status = models.BatchStatusCutting
	b.CreatedAt, b.UpdatedAt = now, now
	m.data.batches[b.ID] = *b
	return nil
}

func (m *MemoryStore) GetBatch(ctx context.Context, id int) (*models.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.data.batches[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (m *MemoryStore) ListBatches(ctx context.Context) ([]*models.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	batches := make([]*models.Batch, 0, len(m.data.batches))
	for _, b := range m.data.batches {
		b := b
		batches = append(batches, &b)
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].ID > batches[j].ID })
	return batches, nil
}

func (m *MemoryStore) UpdateBatchProgress(ctx context.Context, id int, progress decimal.Decimal, status models.BatchStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.updateBatchProgress(id, progress, status)
}

func (m *MemoryStore) ProducedTotals(ctx context.Context, batchIDs []int) (map[int]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.producedTotals(batchIDs), nil
}

func (m *MemoryStore) ListEntriesByBatch(ctx context.Context, batchID int) ([]models.ProductionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.entriesWhere(func(e models.ProductionEntry) bool { return e.BatchID == batchID }), nil
}

func (t *memoryTables) updateBatchProgress(id int, progress decimal.Decimal, status models.BatchStatus) error {
	b, ok := t.batches[id]
	if !ok {
		return ErrNotFound
	}
	b.OverallProgress = progress
	b.Status = status
	b.UpdatedAt = time.Now()
	t.batches[id] = b
	return nil
}

func (t *memoryTables) producedTotals(batchIDs []int) map[int]int {
	totals := make(map[int]int, len(batchIDs))
	for _, id := range batchIDs {
		totals[id] = 0
	}
	for _, e := range t.entries {
		if _, ok := totals[e.BatchID]; ok {
			totals[e.BatchID] += e.Quantity
		}
	}
	return totals
}

func (t *memoryTables) entriesWhere(match func(models.ProductionEntry) bool) []models.ProductionEntry {
	var entries []models.ProductionEntry
	for _, e := range t.entries {
		if match(e) {
			e.BatchNumber = t.batches[e.BatchID].BatchNumber
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// ============================================
// Advances
// ============================================

func (m *MemoryStore) CreateAdvance(ctx context.Context, a *models.Advance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data.employees[a.EmployeeID]; !ok {
		return ErrInUse
	}
	if a.BatchID != nil {
		if _, ok := m.data.batches[*a.BatchID]; !ok {
			return ErrInUse
		}
	}
	a.ID = m.data.id()
	a.IsSettled = false
	a.SettlementID = nil
	a.CreatedAt = time.Now()
	m.data.advances[a.ID] = *a
	return nil
}

func (m *MemoryStore) ListAdvancesByEmployee(ctx context.Context, employeeID int) ([]models.Advance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	advances := m.data.advancesWhere(func(a models.Advance) bool { return a.EmployeeID == employeeID })
	// newest first
	for i, j := 0, len(advances)-1; i < j; i, j = i+1, j-1 {
		advances[i], advances[j] = advances[j], advances[i]
	}
	return advances, nil
}

func (m *MemoryStore) UnsettledAdvances(ctx context.Context, employeeID int) ([]models.Advance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.unsettled(employeeID), nil
}

func (m *MemoryStore) ListAdvancesBySettlement(ctx context.Context, settlementID int) ([]models.Advance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.advancesWhere(func(a models.Advance) bool {
		return a.SettlementID != nil && *a.SettlementID == settlementID
	}), nil
}

func (t *memoryTables) unsettled(employeeID int) []models.Advance {
	return t.advancesWhere(func(a models.Advance) bool { return a.EmployeeID == employeeID && !a.IsSettled })
}

// advancesWhere returns matches ordered oldest first
func (t *memoryTables) advancesWhere(match func(models.Advance) bool) []models.Advance {
	var advances []models.Advance
	for _, a := range t.advances {
		if match(a) {
			advances = append(advances, a)
		}
	}
	sort.Slice(advances, func(i, j int) bool {
		if !advances[i].AdvanceDate.Equal(advances[j].AdvanceDate) {
			return advances[i].AdvanceDate.Before(advances[j].AdvanceDate)
		}
		return advances[i].ID < advances[j].ID
	})
	return advances
}

// ============================================
// Settlements
// ============================================

func (m *MemoryStore) RunInTx(ctx context.Context, fn func(tx SettlementTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := m.data.clone()
	if err := fn(&memorySettlementTx{t: staged}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.data = staged
	return nil
}

func (m *MemoryStore) GetSettlement(ctx context.Context, id int) (*models.Settlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.settlement(id)
}

func (m *MemoryStore) ListSettlementsByEmployee(ctx context.Context, employeeID int) ([]models.Settlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var settlements []models.Settlement
	for _, s := range m.data.settlements {
		if s.EmployeeID == employeeID {
			s.EmployeeName = m.data.employees[s.EmployeeID].Name
			settlements = append(settlements, s)
		}
	}
	sort.Slice(settlements, func(i, j int) bool {
		if !settlements[i].SettlementDate.Equal(settlements[j].SettlementDate) {
			return settlements[i].SettlementDate.After(settlements[j].SettlementDate)
		}
		return settlements[i].ID > settlements[j].ID
	})
	return settlements, nil
}

func (m *MemoryStore) ListEntriesBySettlement(ctx context.Context, settlementID int) ([]models.ProductionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.entriesWhere(func(e models.ProductionEntry) bool { return e.SettlementID == settlementID }), nil
}

func (t *memoryTables) settlement(id int) (*models.Settlement, error) {
	s, ok := t.settlements[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.EmployeeName = t.employees[s.EmployeeID].Name
	return &s, nil
}

// memorySettlementTx writes to the staged tables. The store mutex is held for
// the whole transaction, so the Lock* methods only need to read.
type memorySettlementTx struct {
	t *memoryTables
}

func (tx *memorySettlementTx) LockBatches(ctx context.Context, ids []int) (map[int]*models.Batch, error) {
	batches := make(map[int]*models.Batch, len(ids))
	for _, id := range ids {
		if b, ok := tx.t.batches[id]; ok {
			b := b
			batches[id] = &b
		}
	}
	return batches, nil
}

func (tx *memorySettlementTx) ProducedTotals(ctx context.Context, batchIDs []int) (map[int]int, error) {
	return tx.t.producedTotals(batchIDs), nil
}

func (tx *memorySettlementTx) LockUnsettledAdvances(ctx context.Context, employeeID int) ([]models.Advance, error) {
	return tx.t.unsettled(employeeID), nil
}

func (tx *memorySettlementTx) InsertSettlement(ctx context.Context, s *models.Settlement) error {
	if _, ok := tx.t.employees[s.EmployeeID]; !ok {
		return ErrInUse
	}
	tx.t.settlementSeq++
	s.ID = tx.t.id()
	s.SettlementNumber = FormatSettlementNumber(tx.t.settlementSeq)
	s.CreatedAt = time.Now()
	tx.t.settlements[s.ID] = *s
	return nil
}

func (tx *memorySettlementTx) InsertEntries(ctx context.Context, entries []models.ProductionEntry) error {
	for i := range entries {
		e := &entries[i]
		if _, ok := tx.t.batches[e.BatchID]; !ok {
			return ErrInUse
		}
		if _, ok := tx.t.settlements[e.SettlementID]; !ok {
			return ErrInUse
		}
		e.ID = tx.t.id()
		e.CreatedAt = time.Now()
		tx.t.entries[e.ID] = *e
	}
	return nil
}

func (tx *memorySettlementTx) MarkAdvancesSettled(ctx context.Context, ids []int, settlementID int) error {
	for _, id := range ids {
		a, ok := tx.t.advances[id]
		if !ok || a.IsSettled {
			return ErrAlreadySettled
		}
	}
	for _, id := range ids {
		a := tx.t.advances[id]
		sid := settlementID
		a.IsSettled = true
		a.SettlementID = &sid
		tx.t.advances[id] = a
	}
	return nil
}

func (tx *memorySettlementTx) UpdateBatchProgress(ctx context.Context, id int, progress decimal.Decimal, status models.BatchStatus) error {
	return tx.t.updateBatchProgress(id, progress, status)
}

func (tx *memorySettlementTx) CompleteCutting(ctx context.Context, id int, cutQuantity int) (*models.Batch, error) {
	b, ok := tx.t.batches[id]
	if !ok {
		return nil, ErrNotFound
	}
	if b.CuttingCompleted {
		return nil, ErrCuttingFrozen
	}
	b.CutQuantity = cutQuantity
	b.CuttingCompleted = true
	b.Status = models.BatchStatusProduction
	b.UpdatedAt = time.Now()
	tx.t.batches[id] = b
	return &b, nil
}

func (tx *memorySettlementTx) LockSettlement(ctx context.Context, id int) (*models.Settlement, error) {
	return tx.t.settlement(id)
}

func (tx *memorySettlementTx) EntriesForSettlement(ctx context.Context, settlementID int) ([]models.ProductionEntry, error) {
	return tx.t.entriesWhere(func(e models.ProductionEntry) bool { return e.SettlementID == settlementID }), nil
}

func (tx *memorySettlementTx) DeleteEntriesForSettlement(ctx context.Context, settlementID int) error {
	for id, e := range tx.t.entries {
		if e.SettlementID == settlementID {
			delete(tx.t.entries, id)
		}
	}
	return nil
}

func (tx *memorySettlementTx) UnsettleAdvances(ctx context.Context, settlementID int) (int, error) {
	n := 0
	for id, a := range tx.t.advances {
		if a.SettlementID != nil && *a.SettlementID == settlementID {
			a.IsSettled = false
			a.SettlementID = nil
			tx.t.advances[id] = a
			n++
		}
	}
	return n, nil
}

func (tx *memorySettlementTx) DeleteSettlement(ctx context.Context, id int) error {
	if _, ok := tx.t.settlements[id]; !ok {
		return ErrNotFound
	}
	for _, e := range tx.t.entries {
		if e.SettlementID == id {
			return ErrInUse
		}
	}
	for _, a := range tx.t.advances {
		if a.SettlementID != nil && *a.SettlementID == id {
			return ErrInUse
		}
	}
	delete(tx.t.settlements, id)
	return nil
}
