package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/cotaqc/internal/models"
)

func (r *Repository) ListMeasurements(ctx context.Context, sampleIDs ...string) ([]models.Measurement, error) {
	meas := []models.Measurement{}
	if len(sampleIDs) == 0 {
		return meas, nil
	}
	err := r.db.WithContext(ctx).
		Where("sample_id IN ?", sampleIDs).
		Order("updated_at ASC").
		Find(&meas).Error
	return meas, translate(err)
}

func (r *Repository) GetMeasurement(ctx context.Context, id string) (*models.Measurement, error) {
	var m models.Measurement
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// UpsertMeasurement writes on (sample_id, dimension_id); the last write wins.
// The owning work order must still be open.
func (r *Repository) UpsertMeasurement(ctx context.Context, m *models.Measurement) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOpenOrder(tx, m.SampleID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).
			Clauses(
				clause.OnConflict{
					Columns:   []clause.Column{{Name: "sample_id"}, {Name: "dimension_id"}},
					DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
				},
				clause.Returning{},
			).
			Create(m).Error
	})
	return translate(err)
}

func (r *Repository) DeleteMeasurement(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Measurement
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return err
		}
		if err := lockOpenOrder(tx, m.SampleID); err != nil {
			return err
		}
		return tx.Delete(&models.Measurement{}, "id = ?", id).Error
	})
	return translate(err)
}
