package database

import (
	"errors"
	"fmt"

	"github.com/meljneres/sistema-obras/internal/models"
	"github.com/meljneres/sistema-obras/internal/performance"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WeightingFactor returns the factor of a period, 1.0 when none is stored.
func WeightingFactor(db *gorm.DB, projectID uint, period int) (float64, error) {
	var f models.WeightingFactor
	err := db.Where("project_id = ? AND period = ?", projectID, period).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return performance.DefaultFactor, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load factor: %w", err)
	}
	return f.Value, nil
}

// WeightingFactors returns only the stored overrides of a project.
func WeightingFactors(db *gorm.DB, projectID uint) (map[int]float64, error) {
	var rows []models.WeightingFactor
	if err := db.Where("project_id = ?", projectID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load factors: %w", err)
	}
	out := make(map[int]float64, len(rows))
	for _, r := range rows {
		out[r.Period] = r.Value
	}
	return out, nil
}

func SetWeightingFactor(db *gorm.DB, projectID uint, period int, value float64) error {
	var project models.Project
	if err := db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load project %d: %w", projectID, err)
	}
	if period < 1 || period > project.NumPeriods {
		return fmt.Errorf("%w: %d", ErrInvalidPeriod, period)
	}

	f := models.WeightingFactor{ProjectID: projectID, Period: period, Value: value}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "period"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&f).Error
	if err != nil {
		return fmt.Errorf("save factor: %w", err)
	}

	zap.L().Info("weighting factor set",
		zap.Uint("project_id", projectID),
		zap.Int("period", period),
		zap.Float64("value", value),
	)
	return nil
}
