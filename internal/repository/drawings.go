package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/xelth-com/cotaqc/internal/models"
	"github.com/xelth-com/cotaqc/internal/services/qc"
)

func (r *Repository) ListDrawings(ctx context.Context, archived bool) ([]models.Drawing, error) {
	drawings := []models.Drawing{}
	err := r.db.WithContext(ctx).
		Where("archived = ?", archived).
		Order("updated_at DESC").
		Find(&drawings).Error
	return drawings, translate(err)
}

// GetDrawing loads the drawing with its dimensions ordered by label.
func (r *Repository) GetDrawing(ctx context.Context, id string) (*models.Drawing, error) {
	var d models.Drawing
	err := r.db.WithContext(ctx).
		Preload("Dimensions", func(db *gorm.DB) *gorm.DB { return db.Order("label ASC") }).
		First(&d, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *Repository) CreateDrawing(ctx context.Context, d *models.Drawing) error {
	return translate(r.db.WithContext(ctx).Omit("Dimensions").Create(d).Error)
}

func (r *Repository) SetDrawingArchived(ctx context.Context, id string, archived bool) error {
	res := r.db.WithContext(ctx).Model(&models.Drawing{}).Where("id = ?", id).Update("archived", archived)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return qc.ErrNotFound
	}
	return nil
}

func (r *Repository) CountDrawingReferences(ctx context.Context, id string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.WorkOrder{}).Where("drawing_id = ?", id).Count(&n).Error
	return n, translate(err)
}

// DeleteDrawing nulls drawing_id on referencing work orders and deletes the
// drawing; dimensions and their measurements go by FK cascade.
func (r *Repository) DeleteDrawing(ctx context.Context, id string) (int64, error) {
	var detached int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.WorkOrder{}).Where("drawing_id = ?", id).Update("drawing_id", nil)
		if res.Error != nil {
			return res.Error
		}
		detached = res.RowsAffected

		res = tx.Delete(&models.Drawing{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return qc.ErrNotFound
		}
		return nil
	})
	return detached, translate(err)
}

func (r *Repository) CountDrawings(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Drawing{}).Count(&n).Error
	return n, translate(err)
}

func (r *Repository) ListDimensions(ctx context.Context, drawingIDs ...string) ([]models.Dimension, error) {
	dims := []models.Dimension{}
	if len(drawingIDs) == 0 {
		return dims, nil
	}
	err := r.db.WithContext(ctx).
		Where("drawing_id IN ?", drawingIDs).
		Order("drawing_id ASC, label ASC").
		Find(&dims).Error
	return dims, translate(err)
}

func (r *Repository) GetDimension(ctx context.Context, id string) (*models.Dimension, error) {
	var d models.Dimension
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *Repository) CreateDimension(ctx context.Context, d *models.Dimension) error {
	return translate(r.db.WithContext(ctx).Create(d).Error)
}

// UpdateDimension saves every column, including ones cleared to NULL.
func (r *Repository) UpdateDimension(ctx context.Context, d *models.Dimension) error {
	res := r.db.WithContext(ctx).Model(d).Select("*").Omit("id", "drawing_id", "created_at").Updates(d)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return qc.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteDimension(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Dimension{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return qc.ErrNotFound
	}
	return nil
}
