package qc

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/cotaqc/internal/models"
	"github.com/xelth-com/cotaqc/internal/quality"
)

// Derived sample states.
const (
	SamplePending   = "pendente"
	SampleCompleted = "concluida"
)

// CreateWorkOrderInput is the manager's new-OP form.
type CreateWorkOrderInput struct {
	Code      string `json:"code" validate:"required,max=64"`
	DrawingID string `json:"drawingId" validate:"required,uuid"`
	Qty       *int   `json:"qty" validate:"omitempty,gt=0"`
	Freq      *int   `json:"freq" validate:"omitempty,gt=0"`
}

// WorkOrderSummary is one row of the work order lists.
type WorkOrderSummary struct {
	ID          string         `json:"id"`
	Code        string         `json:"code"`
	Status      string         `json:"status"`
	DrawingID   *string        `json:"drawingId"`
	DrawingCode string         `json:"drawingCode,omitempty"`
	DrawingName string         `json:"drawingName,omitempty"`
	Plan        quality.Plan   `json:"plan"`
	Totals      quality.Totals `json:"totals"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

// Cell is one (sample, dimension) entry of the matrix.
type Cell struct {
	DimensionID   string           `json:"dimensionId"`
	MeasurementID string           `json:"measurementId,omitempty"`
	Value         *decimal.Decimal `json:"value,omitempty"`
	Display       string           `json:"display,omitempty"`
	Verdict       quality.Verdict  `json:"verdict,omitempty"`
}

// SampleRow is a sample with its cells in dimension label order.
type SampleRow struct {
	ID       string `json:"id"`
	Index    int    `json:"index"`
	Status   string `json:"status"`
	Measured int    `json:"measured"`
	Cells    []Cell `json:"cells"`
}

// WorkOrderDetail is everything the inspection screens show for one OP.
type WorkOrderDetail struct {
	WorkOrder       models.WorkOrder           `json:"workOrder"`
	Drawing         *models.Drawing            `json:"drawing"`
	Plan            quality.Plan               `json:"plan"`
	Totals          quality.Totals             `json:"totals"`
	Dimensions      []quality.DimensionSummary `json:"dimensions"`
	Quality         quality.QualitySummary     `json:"quality"`
	Samples         []SampleRow                `json:"samples"`
	ReadyToComplete bool                       `json:"readyToComplete"`

	Matrix *quality.Matrix `json:"-"`
}

type orderData struct {
	wo      *models.WorkOrder
	dims    []models.Dimension
	samples []models.Sample
	matrix  *quality.Matrix
}

func (s *Service) loadOrder(ctx context.Context, id string) (*orderData, error) {
	wo, err := s.store.GetWorkOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	od := &orderData{wo: wo}

	if wo.DrawingID != nil {
		if od.dims, err = s.store.ListDimensions(ctx, *wo.DrawingID); err != nil {
			return nil, err
		}
	}
	if od.samples, err = s.store.ListSamples(ctx, wo.ID); err != nil {
		return nil, err
	}
	sampleIDs := make([]string, len(od.samples))
	for i, smp := range od.samples {
		sampleIDs[i] = smp.ID
	}
	var meas []models.Measurement
	if len(sampleIDs) > 0 {
		if meas, err = s.store.ListMeasurements(ctx, sampleIDs...); err != nil {
			return nil, err
		}
	}
	od.matrix = buildMatrix(od.samples, od.dims, meas)
	return od, nil
}

func buildMatrix(samples []models.Sample, dims []models.Dimension, meas []models.Measurement) *quality.Matrix {
	srefs := make([]quality.SampleRef, len(samples))
	for i, smp := range samples {
		srefs[i] = smp.Ref()
	}
	drefs := make([]quality.DimensionRef, len(dims))
	for i, d := range dims {
		drefs[i] = d.Ref()
	}
	readings := make([]quality.Reading, len(meas))
	for i, m := range meas {
		readings[i] = m.Reading()
	}
	return quality.NewMatrix(srefs, drefs, readings)
}

func sampleIndices(samples []models.Sample) []int {
	out := make([]int, len(samples))
	for i, smp := range samples {
		out[i] = smp.Index
	}
	return out
}

func planOf(wo *models.WorkOrder, samples []models.Sample) quality.Plan {
	return quality.ResolvePlan(wo.Qty, wo.Freq, wo.PlanOrigin, sampleIndices(samples))
}

// CreateWorkOrder opens an OP against an active drawing. When both qty and freq
// are given the samples are generated right away.
func (s *Service) CreateWorkOrder(ctx context.Context, in CreateWorkOrderInput) (*models.WorkOrder, error) {
	in.Code = strings.TrimSpace(in.Code)
	if err := s.check(in); err != nil {
		return nil, err
	}

	d, err := s.store.GetDrawing(ctx, in.DrawingID)
	if err != nil {
		return nil, err
	}
	if d.Archived {
		return nil, ErrDrawingArchived
	}

	wo := &models.WorkOrder{
		Code:      in.Code,
		Status:    models.StatusOpen,
		DrawingID: &d.ID,
		Qty:       in.Qty,
		Freq:      in.Freq,
	}
	if in.Qty != nil || in.Freq != nil {
		origin := string(quality.OriginManager)
		wo.PlanOrigin = &origin
	}

	var indices []int
	if in.Qty != nil && in.Freq != nil {
		indices = quality.GenerateIndices(*in.Qty, *in.Freq)
	}

	if err := s.store.CreateWorkOrder(ctx, wo, indices); err != nil {
		return nil, fmt.Errorf("create work order: %w", err)
	}

	log.Printf("📋 OP %s opened on drawing %s (%d samples)", wo.Code, d.Code, len(indices))
	s.events.Publish(EventWorkOrderCreated, map[string]string{"id": wo.ID, "code": wo.Code})
	return wo, nil
}

// GenerateSamples lets the operator declare qty/freq on an OP without samples.
func (s *Service) GenerateSamples(ctx context.Context, workOrderID string, qty, freq int) ([]models.Sample, error) {
	wo, err := s.store.GetWorkOrder(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	if !wo.IsOpen() {
		return nil, ErrWorkOrderClosed
	}

	indices := quality.GenerateIndices(qty, freq)
	if len(indices) == 0 {
		return nil, ErrEmptyPlan
	}

	samples, err := s.store.GenerateSamples(ctx, wo.ID, indices, qty, freq, string(quality.OriginOperator))
	if err != nil {
		return nil, err
	}

	log.Printf("🧪 OP %s: operator generated samples %v", wo.Code, indices)
	s.events.Publish(EventSamplesGenerated, map[string]interface{}{"id": wo.ID, "indices": indices})
	return samples, nil
}

// ListWorkOrders returns list rows with plan and progress, newest first.
func (s *Service) ListWorkOrders(ctx context.Context, f WorkOrderFilter) ([]WorkOrderSummary, error) {
	orders, err := s.store.ListWorkOrders(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []WorkOrderSummary{}, nil
	}

	orderIDs := make([]string, 0, len(orders))
	drawingSet := map[string]struct{}{}
	for _, wo := range orders {
		orderIDs = append(orderIDs, wo.ID)
		if wo.DrawingID != nil {
			drawingSet[*wo.DrawingID] = struct{}{}
		}
	}
	drawingIDs := make([]string, 0, len(drawingSet))
	for id := range drawingSet {
		drawingIDs = append(drawingIDs, id)
	}
	sort.Strings(drawingIDs)

	var dims []models.Dimension
	if len(drawingIDs) > 0 {
		if dims, err = s.store.ListDimensions(ctx, drawingIDs...); err != nil {
			return nil, err
		}
	}
	samples, err := s.store.ListSamples(ctx, orderIDs...)
	if err != nil {
		return nil, err
	}
	sampleIDs := make([]string, len(samples))
	for i, smp := range samples {
		sampleIDs[i] = smp.ID
	}
	var meas []models.Measurement
	if len(sampleIDs) > 0 {
		if meas, err = s.store.ListMeasurements(ctx, sampleIDs...); err != nil {
			return nil, err
		}
	}

	dimsByDrawing := map[string][]models.Dimension{}
	for _, d := range dims {
		dimsByDrawing[d.DrawingID] = append(dimsByDrawing[d.DrawingID], d)
	}
	samplesByOrder := map[string][]models.Sample{}
	orderOfSample := map[string]string{}
	for _, smp := range samples {
		samplesByOrder[smp.WorkOrderID] = append(samplesByOrder[smp.WorkOrderID], smp)
		orderOfSample[smp.ID] = smp.WorkOrderID
	}
	measByOrder := map[string][]models.Measurement{}
	for _, m := range meas {
		oid := orderOfSample[m.SampleID]
		measByOrder[oid] = append(measByOrder[oid], m)
	}

	out := make([]WorkOrderSummary, 0, len(orders))
	for i := range orders {
		wo := &orders[i]
		var woDims []models.Dimension
		if wo.DrawingID != nil {
			woDims = dimsByDrawing[*wo.DrawingID]
		}
		m := buildMatrix(samplesByOrder[wo.ID], woDims, measByOrder[wo.ID])

		row := WorkOrderSummary{
			ID:          wo.ID,
			Code:        wo.Code,
			Status:      wo.Status,
			DrawingID:   wo.DrawingID,
			Plan:        planOf(wo, samplesByOrder[wo.ID]),
			Totals:      m.Completeness(),
			CreatedAt:   wo.CreatedAt,
			CompletedAt: wo.CompletedAt,
		}
		if wo.Drawing != nil {
			row.DrawingCode = wo.Drawing.Code
			row.DrawingName = wo.Drawing.Name
		}
		out = append(out, row)
	}
	return out, nil
}

// WorkOrderDetail assembles plan, progress, per-dimension quality and the matrix.
func (s *Service) WorkOrderDetail(ctx context.Context, id string) (*WorkOrderDetail, error) {
	od, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	m := od.matrix

	det := &WorkOrderDetail{
		WorkOrder:       *od.wo,
		Drawing:         od.wo.Drawing,
		Plan:            planOf(od.wo, od.samples),
		Totals:          m.Completeness(),
		Dimensions:      m.SummarizeDimensions(),
		Quality:         m.Quality(),
		ReadyToComplete: od.wo.IsOpen() && m.CheckComplete() == nil,
		Matrix:          m,
	}
	det.WorkOrder.Drawing = nil
	if det.Drawing != nil {
		dcopy := *det.Drawing
		dcopy.Dimensions = od.dims
		det.Drawing = &dcopy
	}

	det.Samples = make([]SampleRow, 0, len(m.Samples))
	for _, smp := range m.Samples {
		row := SampleRow{
			ID:       smp.ID,
			Index:    smp.Index,
			Status:   SamplePending,
			Measured: m.MeasuredCount(smp.ID),
			Cells:    make([]Cell, 0, len(m.Dimensions)),
		}
		if m.SampleComplete(smp.ID) {
			row.Status = SampleCompleted
		}
		for _, d := range m.Dimensions {
			c := Cell{DimensionID: d.ID}
			if r, ok := m.Reading(smp.ID, d.ID); ok {
				v := r.Value
				c.MeasurementID = r.ID
				c.Value = &v
				c.Display = quality.FormatEntry(v)
				c.Verdict = d.Spec.Evaluate(v)
			}
			row.Cells = append(row.Cells, c)
		}
		det.Samples = append(det.Samples, row)
	}
	return det, nil
}

// CompleteWorkOrder closes an OP once every sample has every dimension measured.
func (s *Service) CompleteWorkOrder(ctx context.Context, id string) (*models.WorkOrder, error) {
	od, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if od.wo.Status == models.StatusCompleted {
		return nil, ErrAlreadyCompleted
	}
	if err := od.matrix.CheckComplete(); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.store.CompleteWorkOrder(ctx, id, now); err != nil {
		return nil, err
	}
	od.wo.Status = models.StatusCompleted
	od.wo.CompletedAt = &now
	od.wo.Drawing = nil

	log.Printf("✅ OP %s completed", od.wo.Code)
	s.events.Publish(EventWorkOrderCompleted, map[string]string{"id": id, "code": od.wo.Code})
	return od.wo, nil
}
