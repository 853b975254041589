// Package qctest provides an in-memory qc.Store for tests.
package qctest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xelth-com/cotaqc/internal/models"
	"github.com/xelth-com/cotaqc/internal/services/qc"
)

// Store keeps every table in maps guarded by one mutex.
type Store struct {
	mu           sync.Mutex
	clock        time.Time
	drawings     map[string]models.Drawing
	dimensions   map[string]models.Dimension
	workOrders   map[string]models.WorkOrder
	samples      map[string]models.Sample
	measurements map[string]models.Measurement
}

var _ qc.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		clock:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		drawings:     map[string]models.Drawing{},
		dimensions:   map[string]models.Dimension{},
		workOrders:   map[string]models.WorkOrder{},
		samples:      map[string]models.Sample{},
		measurements: map[string]models.Measurement{},
	}
}

// tick returns a strictly increasing timestamp so ordering is deterministic.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func newID() string { return uuid.NewString() }

func (s *Store) ListDrawings(_ context.Context, archived bool) ([]models.Drawing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Drawing{}
	for _, d := range s.drawings {
		if d.Archived == archived {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *Store) GetDrawing(_ context.Context, id string) (*models.Drawing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drawings[id]
	if !ok {
		return nil, qc.ErrNotFound
	}
	d.Dimensions = s.dimensionsOf(id)
	return &d, nil
}

func (s *Store) CreateDrawing(_ context.Context, d *models.Drawing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.drawings {
		if e.Code == d.Code {
			return qc.ErrDuplicate
		}
	}
	d.ID = newID()
	d.CreatedAt = s.tick()
	d.UpdatedAt = d.CreatedAt
	stored := *d
	stored.Dimensions = nil
	s.drawings[d.ID] = stored
	return nil
}

func (s *Store) SetDrawingArchived(_ context.Context, id string, archived bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drawings[id]
	if !ok {
		return qc.ErrNotFound
	}
	d.Archived = archived
	d.UpdatedAt = s.tick()
	s.drawings[id] = d
	return nil
}

func (s *Store) CountDrawingReferences(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, wo := range s.workOrders {
		if wo.DrawingID != nil && *wo.DrawingID == id {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteDrawing(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drawings[id]; !ok {
		return 0, qc.ErrNotFound
	}
	var detached int64
	for k, wo := range s.workOrders {
		if wo.DrawingID != nil && *wo.DrawingID == id {
			wo.DrawingID = nil
			s.workOrders[k] = wo
			detached++
		}
	}
	for k, d := range s.dimensions {
		if d.DrawingID == id {
			s.deleteDimensionLocked(k)
		}
	}
	delete(s.drawings, id)
	return detached, nil
}

func (s *Store) CountDrawings(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.drawings)), nil
}

func (s *Store) dimensionsOf(drawingIDs ...string) []models.Dimension {
	want := map[string]bool{}
	for _, id := range drawingIDs {
		want[id] = true
	}
	out := []models.Dimension{}
	for _, d := range s.dimensions {
		if want[d.DrawingID] {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DrawingID != out[j].DrawingID {
			return out[i].DrawingID < out[j].DrawingID
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func (s *Store) ListDimensions(_ context.Context, drawingIDs ...string) ([]models.Dimension, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dimensionsOf(drawingIDs...), nil
}

func (s *Store) GetDimension(_ context.Context, id string) (*models.Dimension, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dimensions[id]
	if !ok {
		return nil, qc.ErrNotFound
	}
	return &d, nil
}

func (s *Store) labelTaken(d *models.Dimension) bool {
	for _, e := range s.dimensions {
		if e.ID != d.ID && e.DrawingID == d.DrawingID && strings.EqualFold(e.Label, d.Label) {
			return true
		}
	}
	return false
}

func (s *Store) CreateDimension(_ context.Context, d *models.Dimension) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drawings[d.DrawingID]; !ok {
		return qc.ErrNotFound
	}
	if s.labelTaken(d) {
		return qc.ErrDuplicate
	}
	d.ID = newID()
	d.CreatedAt = s.tick()
	d.UpdatedAt = d.CreatedAt
	s.dimensions[d.ID] = *d
	return nil
}

func (s *Store) UpdateDimension(_ context.Context, d *models.Dimension) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dimensions[d.ID]; !ok {
		return qc.ErrNotFound
	}
	if s.labelTaken(d) {
		return qc.ErrDuplicate
	}
	d.UpdatedAt = s.tick()
	s.dimensions[d.ID] = *d
	return nil
}

func (s *Store) DeleteDimension(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dimensions[id]; !ok {
		return qc.ErrNotFound
	}
	s.deleteDimensionLocked(id)
	return nil
}

func (s *Store) deleteDimensionLocked(id string) {
	for k, m := range s.measurements {
		if m.DimensionID == id {
			delete(s.measurements, k)
		}
	}
	delete(s.dimensions, id)
}

func (s *Store) withDrawing(wo models.WorkOrder) models.WorkOrder {
	wo.Drawing = nil
	if wo.DrawingID != nil {
		if d, ok := s.drawings[*wo.DrawingID]; ok {
			wo.Drawing = &d
		}
	}
	return wo
}

func (s *Store) ListWorkOrders(_ context.Context, f qc.WorkOrderFilter) ([]models.WorkOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.WorkOrder{}
	for _, wo := range s.workOrders {
		if f.Status == "" || wo.Status == f.Status {
			out = append(out, s.withDrawing(wo))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) GetWorkOrder(_ context.Context, id string) (*models.WorkOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wo, ok := s.workOrders[id]
	if !ok {
		return nil, qc.ErrNotFound
	}
	wo = s.withDrawing(wo)
	return &wo, nil
}

func (s *Store) insertSamplesLocked(woID string, indices []int) []models.Sample {
	out := make([]models.Sample, 0, len(indices))
	for _, idx := range indices {
		smp := models.Sample{ID: newID(), WorkOrderID: woID, Index: idx, CreatedAt: s.tick()}
		s.samples[smp.ID] = smp
		out = append(out, smp)
	}
	return out
}

func (s *Store) CreateWorkOrder(_ context.Context, wo *models.WorkOrder, indices []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if wo.DrawingID != nil {
		if _, ok := s.drawings[*wo.DrawingID]; !ok {
			return qc.ErrNotFound
		}
	}
	wo.ID = newID()
	wo.CreatedAt = s.tick()
	wo.UpdatedAt = wo.CreatedAt
	stored := *wo
	stored.Drawing = nil
	stored.Samples = nil
	s.workOrders[wo.ID] = stored
	wo.Samples = s.insertSamplesLocked(wo.ID, indices)
	return nil
}

func (s *Store) GenerateSamples(_ context.Context, workOrderID string, indices []int, qty, freq int, origin string) ([]models.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wo, ok := s.workOrders[workOrderID]
	if !ok {
		return nil, qc.ErrNotFound
	}
	for _, smp := range s.samples {
		if smp.WorkOrderID == workOrderID {
			return nil, qc.ErrSamplesExist
		}
	}
	out := s.insertSamplesLocked(workOrderID, indices)
	wo.Qty, wo.Freq, wo.PlanOrigin = &qty, &freq, &origin
	wo.UpdatedAt = s.tick()
	s.workOrders[workOrderID] = wo
	return out, nil
}

func (s *Store) ListSamples(_ context.Context, workOrderIDs ...string) ([]models.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := map[string]bool{}
	for _, id := range workOrderIDs {
		want[id] = true
	}
	out := []models.Sample{}
	for _, smp := range s.samples {
		if want[smp.WorkOrderID] {
			out = append(out, smp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WorkOrderID != out[j].WorkOrderID {
			return out[i].WorkOrderID < out[j].WorkOrderID
		}
		return out[i].Index < out[j].Index
	})
	return out, nil
}

func (s *Store) GetSample(_ context.Context, id string) (*models.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	smp, ok := s.samples[id]
	if !ok {
		return nil, qc.ErrNotFound
	}
	return &smp, nil
}

func (s *Store) CompleteWorkOrder(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wo, ok := s.workOrders[id]
	if !ok {
		return qc.ErrNotFound
	}
	if wo.Status != models.StatusOpen {
		return qc.ErrAlreadyCompleted
	}
	if err := s.checkCellsLocked(wo); err != nil {
		return err
	}
	wo.Status = models.StatusCompleted
	wo.CompletedAt = &at
	wo.UpdatedAt = s.tick()
	s.workOrders[id] = wo
	return nil
}

func (s *Store) checkCellsLocked(wo models.WorkOrder) error {
	if wo.DrawingID == nil {
		return fmt.Errorf("%w: desenho sem cotas", qc.ErrIncomplete)
	}
	samples := map[string]bool{}
	for _, smp := range s.samples {
		if smp.WorkOrderID == wo.ID {
			samples[smp.ID] = true
		}
	}
	dims := map[string]bool{}
	for _, d := range s.dimensions {
		if d.DrawingID == *wo.DrawingID {
			dims[d.ID] = true
		}
	}
	cells := 0
	for _, m := range s.measurements {
		if samples[m.SampleID] && dims[m.DimensionID] {
			cells++
		}
	}
	switch {
	case len(samples) == 0:
		return fmt.Errorf("%w: nenhuma amostra", qc.ErrIncomplete)
	case len(dims) == 0:
		return fmt.Errorf("%w: desenho sem cotas", qc.ErrIncomplete)
	case cells < len(samples)*len(dims):
		return fmt.Errorf("%w: %d de %d medições", qc.ErrIncomplete, cells, len(samples)*len(dims))
	}
	return nil
}

// openOrderOfLocked refuses measurement writes once the owning OP is completed.
func (s *Store) openOrderOfLocked(sampleID string) error {
	smp, ok := s.samples[sampleID]
	if !ok {
		return qc.ErrNotFound
	}
	if wo, ok := s.workOrders[smp.WorkOrderID]; ok && wo.Status != models.StatusOpen {
		return qc.ErrWorkOrderClosed
	}
	return nil
}

func (s *Store) CountWorkOrders(_ context.Context, status string, completedSince *time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, wo := range s.workOrders {
		if status != "" && wo.Status != status {
			continue
		}
		if completedSince != nil && (wo.CompletedAt == nil || wo.CompletedAt.Before(*completedSince)) {
			continue
		}
		n++
	}
	return n, nil
}

func (s *Store) ListMeasurements(_ context.Context, sampleIDs ...string) ([]models.Measurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := map[string]bool{}
	for _, id := range sampleIDs {
		want[id] = true
	}
	out := []models.Measurement{}
	for _, m := range s.measurements {
		if want[m.SampleID] {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (s *Store) GetMeasurement(_ context.Context, id string) (*models.Measurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.measurements[id]
	if !ok {
		return nil, qc.ErrNotFound
	}
	return &m, nil
}

func (s *Store) UpsertMeasurement(_ context.Context, m *models.Measurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.openOrderOfLocked(m.SampleID); err != nil {
		return err
	}
	if _, ok := s.dimensions[m.DimensionID]; !ok {
		return qc.ErrNotFound
	}
	now := s.tick()
	for k, e := range s.measurements {
		if e.SampleID == m.SampleID && e.DimensionID == m.DimensionID {
			e.Value = m.Value
			e.UpdatedAt = now
			s.measurements[k] = e
			*m = e
			return nil
		}
	}
	m.ID = newID()
	m.CreatedAt = now
	m.UpdatedAt = now
	s.measurements[m.ID] = *m
	return nil
}

func (s *Store) DeleteMeasurement(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.measurements[id]
	if !ok {
		return qc.ErrNotFound
	}
	if err := s.openOrderOfLocked(m.SampleID); err != nil {
		return err
	}
	delete(s.measurements, id)
	return nil
}
