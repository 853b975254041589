package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/xelth-com/cotaqc/internal/quality"
)

// ImageMeta describes the uploaded drawing image.
type ImageMeta struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	ThumbPath   string `json:"thumbPath,omitempty"`
	ThumbURL    string `json:"thumbUrl,omitempty"`
}

// Drawing is a technical drawing that dimensions are pinned onto.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type Drawing struct {
	ID          string                        `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Code        string                        `gorm:"not null;uniqueIndex" json:"code"`
	Name        string                        `gorm:"not null" json:"name"`
	Description *string                       `gorm:"type:text" json:"description,omitempty"`
	ImagePath   string                        `gorm:"not null" json:"imagePath"`
	ImageURL    string                        `gorm:"not null" json:"imageUrl"`
	ImageMeta   datatypes.JSONType[ImageMeta] `json:"imageMeta"`
	Archived    bool                          `gorm:"not null;default:false;index" json:"archived"`
	CreatedAt   time.Time                     `json:"createdAt"`
	UpdatedAt   time.Time                     `json:"updatedAt"`

	Dimensions []Dimension `gorm:"foreignKey:DrawingID;constraint:OnDelete:CASCADE" json:"dimensions,omitempty"`
}

// TableName specifies the table name for Drawing model
func (Drawing) TableName() string {
	return "drawings"
}

// Dimension is a critical dimension ("cota") pinned at a relative position on a drawing.
type Dimension struct {
	ID        string              `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	DrawingID string              `gorm:"type:uuid;not null;uniqueIndex:idx_dimension_label" json:"drawingId"`
	Label     string              `gorm:"not null;uniqueIndex:idx_dimension_label" json:"label"`
	X         float64             `gorm:"not null" json:"x"`
	Y         float64             `gorm:"not null" json:"y"`
	Note      *string             `gorm:"type:text" json:"note,omitempty"`
	Nominal   decimal.NullDecimal `gorm:"type:numeric(14,4)" json:"nominal"`
	TolPlus   decimal.NullDecimal `gorm:"type:numeric(14,4)" json:"tolPlus"`
	TolMinus  decimal.NullDecimal `gorm:"type:numeric(14,4)" json:"tolMinus"`
	Unit      string              `gorm:"not null;default:'mm'" json:"unit"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// TableName specifies the table name for Dimension model
func (Dimension) TableName() string {
	return "dimensions"
}

// Spec returns the tolerance spec used for evaluation.
func (d Dimension) Spec() quality.Spec {
	return quality.Spec{
		Nominal:  d.Nominal,
		TolPlus:  d.TolPlus,
		TolMinus: d.TolMinus,
		Unit:     d.Unit,
	}
}

// Ref converts the dimension for the aggregation engine.
func (d Dimension) Ref() quality.DimensionRef {
	return quality.DimensionRef{ID: d.ID, Label: d.Label, Spec: d.Spec()}
}
