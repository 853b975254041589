package qc

import (
	"context"
	"errors"

	"github.com/xelth-com/cotaqc/internal/models"
	"github.com/xelth-com/cotaqc/internal/quality"
)

// RecordInput is one value keyed in on the operator pad.
type RecordInput struct {
	SampleID    string `json:"sampleId" validate:"required,uuid"`
	DimensionID string `json:"dimensionId" validate:"required,uuid"`
	Value       string `json:"value" validate:"required,max=32"`
}

// RecordResult echoes the stored value with its classification.
type RecordResult struct {
	Measurement models.Measurement `json:"measurement"`
	Display     string             `json:"display"`
	Verdict     quality.Verdict    `json:"verdict"`
	Label       string             `json:"label"`
	Spec        string             `json:"spec"`
}

// RecordMeasurement upserts the value for (sample, dimension) on an open OP.
func (s *Service) RecordMeasurement(ctx context.Context, workOrderID string, in RecordInput) (*RecordResult, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	value, err := quality.ParseLocaleDecimal(in.Value)
	if err != nil {
		return nil, invalid("value", err.Error())
	}

	wo, err := s.store.GetWorkOrder(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	if !wo.IsOpen() {
		return nil, ErrWorkOrderClosed
	}
	if wo.DrawingID == nil {
		return nil, ErrNoDrawing
	}

	smp, err := s.store.GetSample(ctx, in.SampleID)
	if err != nil {
		return nil, err
	}
	if smp.WorkOrderID != wo.ID {
		return nil, ErrForeignReference
	}
	dim, err := s.store.GetDimension(ctx, in.DimensionID)
	if err != nil {
		return nil, err
	}
	if dim.DrawingID != *wo.DrawingID {
		return nil, ErrForeignReference
	}

	m := &models.Measurement{SampleID: smp.ID, DimensionID: dim.ID, Value: value}
	if err := s.store.UpsertMeasurement(ctx, m); err != nil {
		return nil, err
	}

	spec := dim.Spec()
	res := &RecordResult{
		Measurement: *m,
		Display:     quality.FormatEntry(m.Value),
		Verdict:     spec.Evaluate(m.Value),
		Label:       dim.Label,
		Spec:        quality.SpecString(spec),
	}
	s.events.Publish(EventMeasurementSaved, map[string]interface{}{
		"workOrderId": wo.ID,
		"sampleId":    smp.ID,
		"dimensionId": dim.ID,
		"verdict":     res.Verdict,
	})
	return res, nil
}

// DeleteMeasurement clears one cell of an open OP.
func (s *Service) DeleteMeasurement(ctx context.Context, workOrderID, measurementID string) error {
	wo, err := s.store.GetWorkOrder(ctx, workOrderID)
	if err != nil {
		return err
	}
	if !wo.IsOpen() {
		return ErrWorkOrderClosed
	}
	m, err := s.store.GetMeasurement(ctx, measurementID)
	if err != nil {
		return err
	}
	smp, err := s.store.GetSample(ctx, m.SampleID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrForeignReference
		}
		return err
	}
	if smp.WorkOrderID != wo.ID {
		return ErrForeignReference
	}
	if err := s.store.DeleteMeasurement(ctx, measurementID); err != nil {
		return err
	}
	s.events.Publish(EventMeasurementDeleted, map[string]string{"workOrderId": wo.ID, "measurementId": measurementID})
	return nil
}
