package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/xelth-com/cotaqc/internal/quality"
	"github.com/xelth-com/cotaqc/internal/services/qc"
)

// Postgres error codes the handlers should never see as 500s.
const (
	pgInvalidTextRepresentation = "22P02"
	pgNumericValueOutOfRange    = "22003"
)

// Repository is the gorm-backed qc.Store plus account lookups.
type Repository struct {
	db *gorm.DB
}

var _ qc.Store = (*Repository)(nil)

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// translate maps gorm errors onto the service sentinels. The connection must
// be opened with TranslateError so unique violations surface as ErrDuplicatedKey.
// A malformed id reads as a missing row.
func translate(err error) error {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return qc.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return qc.ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return qc.ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRepresentation:
		return qc.ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == pgNumericValueOutOfRange:
		return &qc.ValidationError{Field: "value", Message: quality.ErrOutOfRange.Error()}
	}
	return err
}
