package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm/clause"

	"github.com/xelth-com/cotaqc/internal/models"
)

func (r *Repository) FindAccountByEmail(ctx context.Context, email string) (*models.UserAuth, error) {
	var u models.UserAuth
	err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *Repository) FindAccountByID(ctx context.Context, id string) (*models.UserAuth, error) {
	var u models.UserAuth
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *Repository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	return translate(r.db.WithContext(ctx).Model(&models.UserAuth{}).Where("id = ?", id).Update("last_login", at).Error)
}

// SaveAccount inserts the account or updates password, name, role and status
// of an existing one with the same email.
func (r *Repository) SaveAccount(ctx context.Context, u *models.UserAuth) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"password", "name", "role", "is_active", "updated_at"}),
	}, clause.Returning{}).Create(u).Error
	return translate(err)
}
