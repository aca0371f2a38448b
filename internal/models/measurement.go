package models

import "time"

// MeasurementEntry holds the planned and the measured value of one item
// in one period. ActualValue stays NULL until the period is measured.
type MeasurementEntry struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ProjectID uint `gorm:"index;not null" json:"project_id"`
	ItemID    uint `gorm:"uniqueIndex:idx_item_period;not null" json:"item_id"`
	Period    int  `gorm:"uniqueIndex:idx_item_period;not null" json:"period"`

	PlannedValue  float64    `gorm:"type:numeric(15,2);not null;default:0" json:"planned_value"`
	ActualValue   *float64   `gorm:"type:numeric(15,2)" json:"actual_value"`
	PlannedCumPct float64    `json:"planned_cum_pct"`
	ActualCumPct  *float64   `json:"actual_cum_pct"`
	MeasuredAt    *time.Time `json:"measured_at"`

	UpdatedAt time.Time `json:"-"`
}

func (MeasurementEntry) TableName() string { return "medicoes" }

// WeightingFactor overrides the IMR factor of one period of a project.
type WeightingFactor struct {
	ID        uint    `gorm:"primaryKey" json:"-"`
	ProjectID uint    `gorm:"uniqueIndex:idx_factor_period;not null" json:"project_id"`
	Period    int     `gorm:"uniqueIndex:idx_factor_period;not null" json:"period"`
	Value     float64 `gorm:"not null;default:1" json:"value"`
}

func (WeightingFactor) TableName() string { return "imr_fatores" }
