package qc

import (
	"context"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/cotaqc/internal/models"
	"github.com/xelth-com/cotaqc/internal/quality"
)

// DimensionInput carries the editable fields of a dimension. Numeric fields are
// pt-BR text ("0,05"); empty means unset.
type DimensionInput struct {
	Label    string  `json:"label" validate:"omitempty,max=16"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Note     string  `json:"note" validate:"max=500"`
	Nominal  string  `json:"nominal" validate:"max=32"`
	TolPlus  string  `json:"tolPlus" validate:"max=32"`
	TolMinus string  `json:"tolMinus" validate:"max=32"`
	Unit     string  `json:"unit" validate:"max=8"`
}

func parseOptional(field, text string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(text) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := quality.ParseLocaleDecimal(text)
	if err != nil {
		return decimal.NullDecimal{}, invalid(field, err.Error())
	}
	return decimal.NewNullDecimal(d), nil
}

// apply copies validated input onto d. Position is only set by the caller.
func (in DimensionInput) apply(d *models.Dimension) error {
	var err error
	if d.Nominal, err = parseOptional("nominal", in.Nominal); err != nil {
		return err
	}
	if d.TolPlus, err = parseOptional("tolPlus", in.TolPlus); err != nil {
		return err
	}
	if d.TolMinus, err = parseOptional("tolMinus", in.TolMinus); err != nil {
		return err
	}
	d.Note = nil
	if note := strings.TrimSpace(in.Note); note != "" {
		d.Note = &note
	}
	d.Unit = strings.TrimSpace(in.Unit)
	if d.Unit == "" {
		d.Unit = quality.DefaultUnit
	}
	return nil
}

func warnNegativeTolerance(d *models.Dimension) {
	if d.Spec().HasNegativeTolerance() {
		log.Printf("⚠️  Dimension %s has a negative tolerance (+%s / -%s); band may be inverted",
			d.Label, d.TolPlus.Decimal, d.TolMinus.Decimal)
	}
}

// CreateDimension pins a new dimension on a drawing. Without a label the next
// free letter is used.
func (s *Service) CreateDimension(ctx context.Context, drawingID string, in DimensionInput) (*models.Dimension, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	if _, err := s.store.GetDrawing(ctx, drawingID); err != nil {
		return nil, err
	}

	label := strings.ToUpper(strings.TrimSpace(in.Label))
	if label == "" {
		existing, err := s.store.ListDimensions(ctx, drawingID)
		if err != nil {
			return nil, err
		}
		labels := make([]string, len(existing))
		for i, e := range existing {
			labels[i] = e.Label
		}
		label = quality.NextLabel(labels)
	}

	d := &models.Dimension{
		DrawingID: drawingID,
		Label:     label,
		X:         quality.ClampPosition(in.X),
		Y:         quality.ClampPosition(in.Y),
	}
	if err := in.apply(d); err != nil {
		return nil, err
	}
	warnNegativeTolerance(d)

	if err := s.store.CreateDimension(ctx, d); err != nil {
		return nil, err
	}
	s.events.Publish(EventDrawingChanged, map[string]string{"id": drawingID})
	return d, nil
}

// UpdateDimension replaces label, note, spec and unit. Position is kept.
func (s *Service) UpdateDimension(ctx context.Context, id string, in DimensionInput) (*models.Dimension, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	d, err := s.store.GetDimension(ctx, id)
	if err != nil {
		return nil, err
	}
	if label := strings.ToUpper(strings.TrimSpace(in.Label)); label != "" {
		d.Label = label
	}
	if err := in.apply(d); err != nil {
		return nil, err
	}
	warnNegativeTolerance(d)

	if err := s.store.UpdateDimension(ctx, d); err != nil {
		return nil, err
	}
	s.events.Publish(EventDrawingChanged, map[string]string{"id": d.DrawingID})
	return d, nil
}

// MoveDimension drags a pin; coordinates are clamped to the drawing.
func (s *Service) MoveDimension(ctx context.Context, id string, x, y float64) (*models.Dimension, error) {
	d, err := s.store.GetDimension(ctx, id)
	if err != nil {
		return nil, err
	}
	d.X = quality.ClampPosition(x)
	d.Y = quality.ClampPosition(y)
	if err := s.store.UpdateDimension(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDimension removes the dimension and, by cascade, its measurements.
func (s *Service) DeleteDimension(ctx context.Context, id string) error {
	d, err := s.store.GetDimension(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDimension(ctx, id); err != nil {
		return err
	}
	s.events.Publish(EventDrawingChanged, map[string]string{"id": d.DrawingID})
	return nil
}
