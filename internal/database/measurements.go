package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/meljneres/sistema-obras/internal/models"
	"github.com/meljneres/sistema-obras/internal/performance"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PeriodItem is one row of the measurement form of a period.
type PeriodItem struct {
	ItemID       uint       `json:"item_id"`
	Position     int        `json:"position"`
	Description  string     `json:"description"`
	ItemTotal    float64    `json:"item_total"`
	PlannedValue float64    `json:"planned_value"`
	ActualValue  *float64   `json:"actual_value"`
	MeasuredAt   *time.Time `json:"measured_at"`
}

// SubmitMeasurement records the actual values of a period, keyed by item
// id. Submitting the same period again overwrites the previous values.
// Nothing is written when any item or the period is rejected.
func SubmitMeasurement(db *gorm.DB, projectID uint, period int, values map[uint]float64, at time.Time) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load project %d: %w", projectID, err)
		}
		if period < 1 || period > project.NumPeriods {
			return fmt.Errorf("%w: %d (1..%d)", ErrInvalidPeriod, period, project.NumPeriods)
		}

		owned, err := itemSet(tx, projectID)
		if err != nil {
			return err
		}
		for itemID := range values {
			if _, ok := owned[itemID]; !ok {
				return fmt.Errorf("%w: %d", ErrForeignItem, itemID)
			}
		}

		for itemID, v := range values {
			if err := upsertEntry(tx, projectID, itemID, period, map[string]interface{}{
				"actual_value": v,
				"measured_at":  at,
			}); err != nil {
				return err
			}
		}
		return refreshPercentages(tx, projectID, project.TotalValue)
	})
	if err != nil {
		return err
	}

	zap.L().Info("measurement recorded",
		zap.Uint("project_id", projectID),
		zap.Int("period", period),
		zap.Int("items", len(values)),
	)
	return nil
}

// PeriodItems lists every item of the project with its entry for period.
func PeriodItems(db *gorm.DB, projectID uint, period int) ([]PeriodItem, error) {
	var project models.Project
	if err := db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load project %d: %w", projectID, err)
	}
	if period < 1 || period > project.NumPeriods {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPeriod, period)
	}

	var rows []PeriodItem
	err := db.Table("itens_obra AS i").
		Select(`i.id AS item_id, i.position, i.description, i.planned_value AS item_total,
			COALESCE(m.planned_value, 0) AS planned_value, m.actual_value, m.measured_at`).
		Joins("LEFT JOIN medicoes m ON m.item_id = i.id AND m.period = ?", period).
		Where("i.project_id = ?", projectID).
		Order("i.position asc").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load period %d items: %w", period, err)
	}
	return rows, nil
}

type periodSum struct {
	Period  int
	Planned float64
	Actual  *float64
}

// PeriodTotals sums every item per period. Actual is nil for a period
// where no item has a recorded value. Periods without entries are
// returned with zero planned value.
func PeriodTotals(db *gorm.DB, projectID uint) ([]performance.PeriodRecord, error) {
	var project models.Project
	if err := db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load project %d: %w", projectID, err)
	}

	var sums []periodSum
	err := db.Model(&models.MeasurementEntry{}).
		Select("period, COALESCE(SUM(planned_value), 0) AS planned, SUM(actual_value) AS actual").
		Where("project_id = ?", projectID).
		Group("period").
		Order("period asc").
		Scan(&sums).Error
	if err != nil {
		return nil, fmt.Errorf("sum periods: %w", err)
	}

	byPeriod := make(map[int]periodSum, len(sums))
	for _, s := range sums {
		byPeriod[s.Period] = s
	}

	records := make([]performance.PeriodRecord, 0, project.NumPeriods)
	for p := 1; p <= project.NumPeriods; p++ {
		s := byPeriod[p]
		records = append(records, performance.PeriodRecord{
			Period:  p,
			Planned: s.Planned,
			Actual:  s.Actual,
		})
	}
	return records, nil
}
