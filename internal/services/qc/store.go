package qc

import (
	"context"
	"time"

	"github.com/xelth-com/cotaqc/internal/models"
)

// WorkOrderFilter narrows ListWorkOrders.
type WorkOrderFilter struct {
	Status string
	Limit  int
}

// Store is the persistence the QC service needs. Implementations return
// ErrNotFound for missing rows and ErrDuplicate for unique violations.
type Store interface {
	ListDrawings(ctx context.Context, archived bool) ([]models.Drawing, error)
	GetDrawing(ctx context.Context, id string) (*models.Drawing, error)
	CreateDrawing(ctx context.Context, d *models.Drawing) error
	SetDrawingArchived(ctx context.Context, id string, archived bool) error
	CountDrawingReferences(ctx context.Context, id string) (int64, error)
	// DeleteDrawing detaches referencing work orders and deletes the drawing
	// with its dimensions in one transaction.
	DeleteDrawing(ctx context.Context, id string) (detached int64, err error)
	CountDrawings(ctx context.Context) (int64, error)

	ListDimensions(ctx context.Context, drawingIDs ...string) ([]models.Dimension, error)
	GetDimension(ctx context.Context, id string) (*models.Dimension, error)
	CreateDimension(ctx context.Context, d *models.Dimension) error
	UpdateDimension(ctx context.Context, d *models.Dimension) error
	DeleteDimension(ctx context.Context, id string) error

	ListWorkOrders(ctx context.Context, f WorkOrderFilter) ([]models.WorkOrder, error)
	GetWorkOrder(ctx context.Context, id string) (*models.WorkOrder, error)
	// CreateWorkOrder inserts the work order and its samples atomically.
	CreateWorkOrder(ctx context.Context, wo *models.WorkOrder, indices []int) error
	// GenerateSamples inserts samples for a work order that has none and records
	// the declared plan, atomically. Existing samples yield ErrSamplesExist.
	GenerateSamples(ctx context.Context, workOrderID string, indices []int, qty, freq int, origin string) ([]models.Sample, error)
	ListSamples(ctx context.Context, workOrderIDs ...string) ([]models.Sample, error)
	GetSample(ctx context.Context, id string) (*models.Sample, error)
	// CompleteWorkOrder re-checks that every sample has every dimension measured
	// and flips the work order to completed, atomically with respect to
	// measurement writes. Missing cells yield ErrIncomplete; a work order that is
	// no longer open yields ErrAlreadyCompleted.
	CompleteWorkOrder(ctx context.Context, id string, at time.Time) error
	CountWorkOrders(ctx context.Context, status string, completedSince *time.Time) (int64, error)

	ListMeasurements(ctx context.Context, sampleIDs ...string) ([]models.Measurement, error)
	GetMeasurement(ctx context.Context, id string) (*models.Measurement, error)
	// UpsertMeasurement writes on the (sample, dimension) key; m is refreshed.
	// Writes to a completed work order yield ErrWorkOrderClosed, as do deletes.
	UpsertMeasurement(ctx context.Context, m *models.Measurement) error
	DeleteMeasurement(ctx context.Context, id string) error
}
