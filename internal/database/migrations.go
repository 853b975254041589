package database

import (
	"log"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/xelth-com/cotaqc/internal/models"
)

// Migrate applies the versioned schema migrations.
func (db *DB) Migrate() error {
	return Migrations(db.DB)
}

// Migrations runs every pending migration against db.
func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20250301_create_accounts",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.UserAuth{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("user_auths")
			},
		},
		{
			ID: "20250301_create_drawings",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Drawing{}, &models.Dimension{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("dimensions", "drawings")
			},
		},
		{
			ID: "20250301_create_work_orders",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.WorkOrder{}, &models.Sample{}, &models.Measurement{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("measurements", "samples", "work_orders")
			},
		},
		{
			ID: "20250315_work_order_checks",
			Migrate: func(tx *gorm.DB) error {
				stmts := []string{
					"ALTER TABLE work_orders DROP CONSTRAINT IF EXISTS chk_work_orders_status",
					"ALTER TABLE work_orders ADD CONSTRAINT chk_work_orders_status CHECK (status IN ('aberta','concluida'))",
					"ALTER TABLE work_orders DROP CONSTRAINT IF EXISTS chk_work_orders_plan",
					"ALTER TABLE work_orders ADD CONSTRAINT chk_work_orders_plan CHECK ((qty IS NULL OR qty > 0) AND (freq IS NULL OR freq > 0))",
					"ALTER TABLE samples DROP CONSTRAINT IF EXISTS chk_samples_piece_index",
					"ALTER TABLE samples ADD CONSTRAINT chk_samples_piece_index CHECK (piece_index > 0)",
				}
				for _, s := range stmts {
					if err := tx.Exec(s).Error; err != nil {
						return err
					}
				}
				return nil
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return err
	}
	log.Println("✅ Database migrations applied")
	return nil
}
