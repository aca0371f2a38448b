package models

import (
	"time"

	"gorm.io/gorm"
)

// Project is a construction contract ("obra").
type Project struct {
	gorm.Model
	UserID uint `gorm:"index" json:"user_id"`
	User   User `json:"-"`

	Name           string  `gorm:"size:255;not null" json:"name"`
	ContractNumber string  `gorm:"size:50" json:"contract_number"`
	ServiceOrder   string  `gorm:"size:50" json:"service_order"`
	Client         string  `gorm:"size:255" json:"client"`     // contratante
	Contractor     string  `gorm:"size:255" json:"contractor"` // contratada
	TotalValue     float64 `gorm:"type:numeric(15,2);not null;default:0" json:"total_value"`

	PlannedStart  *time.Time `json:"planned_start"`
	PlannedEnd    *time.Time `json:"planned_end"`
	PlannedMonths int        `json:"planned_months"`
	ActualMonths  *int       `json:"actual_months"`
	NumPeriods    int        `gorm:"not null" json:"num_periods"`

	Items []LineItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (Project) TableName() string { return "obras" }

// LineItem is one service of the contract with its planned total.
type LineItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	ProjectID    uint    `gorm:"index;not null" json:"project_id"`
	Position     int     `gorm:"not null" json:"position"`
	Description  string  `gorm:"size:255;not null" json:"description"`
	PlannedValue float64 `gorm:"type:numeric(15,2);not null;default:0" json:"planned_value"`

	Entries []MeasurementEntry `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"entries,omitempty"`
}

func (LineItem) TableName() string { return "itens_obra" }
