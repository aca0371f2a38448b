package database

import (
	"fmt"
	"time"

	"github.com/meljneres/sistema-obras/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ImportedName        = "Obra Importada"
	importedDescription = "Serviços importados"
)

// ImportInput is a schedule read from a spreadsheet: one planned and one
// actual value per period. A nil actual means the period was not measured.
type ImportInput struct {
	Planned []float64
	Actual  []*float64
}

// ImportProject stores a spreadsheet schedule as a single-item project.
// The total value is the last non-zero planned value.
func ImportProject(db *gorm.DB, userID uint, in ImportInput) (*models.Project, error) {
	n := len(in.Planned)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty schedule", ErrInvalidPeriod)
	}

	planned := make(map[int]float64, n)
	for i, v := range in.Planned {
		planned[i+1] = v
	}
	now := time.Now().UTC()
	start := now.Truncate(24 * time.Hour)

	var project *models.Project
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		project, err = CreateProject(tx, userID, CreateProjectInput{
			ProjectFields: ProjectFields{
				Name:          ImportedName,
				TotalValue:    lastNonZero(in.Planned),
				PlannedStart:  &start,
				PlannedMonths: n,
				NumPeriods:    n,
			},
			Items: []ItemInput{{Description: importedDescription, Planned: planned}},
		})
		if err != nil {
			return err
		}

		var item models.LineItem
		if err := tx.Where("project_id = ?", project.ID).First(&item).Error; err != nil {
			return fmt.Errorf("load imported item: %w", err)
		}
		for i, v := range in.Actual {
			if v == nil || i >= n {
				continue
			}
			if err := upsertEntry(tx, project.ID, item.ID, i+1, map[string]interface{}{
				"actual_value": *v,
				"measured_at":  now,
			}); err != nil {
				return err
			}
		}
		return refreshPercentages(tx, project.ID, project.TotalValue)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("project imported", zap.Uint("project_id", project.ID), zap.Int("periods", n))
	return project, nil
}

func lastNonZero(values []float64) float64 {
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] != 0 {
			return values[i]
		}
	}
	return 0
}
