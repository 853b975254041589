package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/cotaqc/internal/quality"
)

// Work order states. A completed work order never reopens.
const (
	StatusOpen      = "aberta"
	StatusCompleted = "concluida"
)

// WorkOrder is a production order ("OP") inspected against one drawing.
type WorkOrder struct {
	ID          string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Code        string     `gorm:"not null;index" json:"code"`
	Status      string     `gorm:"not null;default:'aberta';index" json:"status"`
	DrawingID   *string    `gorm:"type:uuid;index" json:"drawingId"`
	Qty         *int       `json:"qty"`
	Freq        *int       `json:"freq"`
	PlanOrigin  *string    `gorm:"column:plan_origin" json:"planOrigin"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `gorm:"index" json:"completedAt,omitempty"`

	Drawing *Drawing `gorm:"foreignKey:DrawingID;constraint:OnDelete:SET NULL" json:"drawing,omitempty"`
	Samples []Sample `gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE" json:"samples,omitempty"`
}

// TableName specifies the table name for WorkOrder model
func (WorkOrder) TableName() string {
	return "work_orders"
}

// IsOpen reports whether measurements may still be recorded.
func (w WorkOrder) IsOpen() bool {
	return w.Status == StatusOpen
}

// Sample is one sampled piece of a work order.
type Sample struct {
	ID          string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	WorkOrderID string    `gorm:"type:uuid;not null;uniqueIndex:idx_sample_piece" json:"workOrderId"`
	Index       int       `gorm:"column:piece_index;not null;uniqueIndex:idx_sample_piece" json:"index"`
	CreatedAt   time.Time `json:"createdAt"`

	Measurements []Measurement `gorm:"foreignKey:SampleID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Sample model
func (Sample) TableName() string {
	return "samples"
}

// Ref converts the sample for the aggregation engine.
func (s Sample) Ref() quality.SampleRef {
	return quality.SampleRef{ID: s.ID, Index: s.Index}
}

// Measurement is the value read for one dimension of one sample.
// (sample_id, dimension_id) is unique; writes upsert on it.
type Measurement struct {
	ID          string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	SampleID    string          `gorm:"type:uuid;not null;uniqueIndex:idx_measurement_cell" json:"sampleId"`
	DimensionID string          `gorm:"type:uuid;not null;uniqueIndex:idx_measurement_cell;index" json:"dimensionId"`
	Value       decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"value"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`

	Dimension *Dimension `gorm:"foreignKey:DimensionID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Measurement model
func (Measurement) TableName() string {
	return "measurements"
}

// Reading converts the measurement for the aggregation engine.
func (m Measurement) Reading() quality.Reading {
	return quality.Reading{ID: m.ID, SampleID: m.SampleID, DimensionID: m.DimensionID, Value: m.Value}
}
