package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/cotaqc/internal/models"
	"github.com/xelth-com/cotaqc/internal/services/qc"
)

func (r *Repository) ListWorkOrders(ctx context.Context, f qc.WorkOrderFilter) ([]models.WorkOrder, error) {
	orders := []models.WorkOrder{}
	q := r.db.WithContext(ctx).Preload("Drawing").Order("created_at DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	err := q.Find(&orders).Error
	return orders, translate(err)
}

func (r *Repository) GetWorkOrder(ctx context.Context, id string) (*models.WorkOrder, error) {
	var wo models.WorkOrder
	if err := r.db.WithContext(ctx).Preload("Drawing").First(&wo, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &wo, nil
}

func samplesFor(workOrderID string, indices []int) []models.Sample {
	rows := make([]models.Sample, len(indices))
	for i, idx := range indices {
		rows[i] = models.Sample{WorkOrderID: workOrderID, Index: idx}
	}
	return rows
}

// CreateWorkOrder inserts the work order and its samples in one transaction.
func (r *Repository) CreateWorkOrder(ctx context.Context, wo *models.WorkOrder, indices []int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(wo).Error; err != nil {
			return err
		}
		if len(indices) == 0 {
			return nil
		}
		rows := samplesFor(wo.ID, indices)
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		wo.Samples = rows
		return nil
	})
	return translate(err)
}

// GenerateSamples locks the work order row so two tablets cannot both pass the
// "no samples yet" check.
func (r *Repository) GenerateSamples(ctx context.Context, workOrderID string, indices []int, qty, freq int, origin string) ([]models.Sample, error) {
	var rows []models.Sample
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wo models.WorkOrder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&wo, "id = ?", workOrderID).Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Sample{}).Where("work_order_id = ?", workOrderID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return qc.ErrSamplesExist
		}

		rows = samplesFor(workOrderID, indices)
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		return tx.Model(&models.WorkOrder{}).Where("id = ?", workOrderID).Updates(map[string]interface{}{
			"qty":         qty,
			"freq":        freq,
			"plan_origin": origin,
		}).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func (r *Repository) ListSamples(ctx context.Context, workOrderIDs ...string) ([]models.Sample, error) {
	samples := []models.Sample{}
	if len(workOrderIDs) == 0 {
		return samples, nil
	}
	err := r.db.WithContext(ctx).
		Where("work_order_id IN ?", workOrderIDs).
		Order("work_order_id ASC, piece_index ASC").
		Find(&samples).Error
	return samples, translate(err)
}

func (r *Repository) GetSample(ctx context.Context, id string) (*models.Sample, error) {
	var s models.Sample
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// CompleteWorkOrder locks the work order, re-counts its cells and flips it to
// completed in one transaction. Measurement writes share-lock the same row, so
// none can land between the count and the update.
func (r *Repository) CompleteWorkOrder(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wo models.WorkOrder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&wo, "id = ?", id).Error; err != nil {
			return err
		}
		if !wo.IsOpen() {
			return qc.ErrAlreadyCompleted
		}
		if err := checkCells(tx, &wo); err != nil {
			return err
		}
		return tx.Model(&models.WorkOrder{}).Where("id = ?", id).
			Updates(map[string]interface{}{"status": models.StatusCompleted, "completed_at": at}).Error
	})
	return translate(err)
}

// checkCells fails with ErrIncomplete unless every sample of wo has a value
// for every dimension of its drawing.
func checkCells(tx *gorm.DB, wo *models.WorkOrder) error {
	if wo.DrawingID == nil {
		return fmt.Errorf("%w: desenho sem cotas", qc.ErrIncomplete)
	}
	var samples, dims, cells int64
	if err := tx.Model(&models.Sample{}).Where("work_order_id = ?", wo.ID).Count(&samples).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Dimension{}).Where("drawing_id = ?", *wo.DrawingID).Count(&dims).Error; err != nil {
		return err
	}
	err := tx.Model(&models.Measurement{}).
		Joins("JOIN samples ON samples.id = measurements.sample_id").
		Joins("JOIN dimensions ON dimensions.id = measurements.dimension_id").
		Where("samples.work_order_id = ? AND dimensions.drawing_id = ?", wo.ID, *wo.DrawingID).
		Count(&cells).Error
	if err != nil {
		return err
	}
	switch {
	case samples == 0:
		return fmt.Errorf("%w: nenhuma amostra", qc.ErrIncomplete)
	case dims == 0:
		return fmt.Errorf("%w: desenho sem cotas", qc.ErrIncomplete)
	case cells < samples*dims:
		return fmt.Errorf("%w: %d de %d medições", qc.ErrIncomplete, cells, samples*dims)
	}
	return nil
}

// lockOpenOrder share-locks the work order owning sampleID and refuses writes
// once it is completed.
func lockOpenOrder(tx *gorm.DB, sampleID string) error {
	var smp models.Sample
	if err := tx.First(&smp, "id = ?", sampleID).Error; err != nil {
		return err
	}
	var wo models.WorkOrder
	if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).First(&wo, "id = ?", smp.WorkOrderID).Error; err != nil {
		return err
	}
	if !wo.IsOpen() {
		return qc.ErrWorkOrderClosed
	}
	return nil
}

func (r *Repository) CountWorkOrders(ctx context.Context, status string, completedSince *time.Time) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.WorkOrder{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if completedSince != nil {
		q = q.Where("completed_at >= ?", *completedSince)
	}
	err := q.Count(&n).Error
	return n, translate(err)
}
