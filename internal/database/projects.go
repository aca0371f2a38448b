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

// ItemInput is one line item with its planned value per period.
type ItemInput struct {
	Description string
	Planned     map[int]float64
}

type ProjectFields struct {
	Name           string
	ContractNumber string
	ServiceOrder   string
	Client         string
	Contractor     string
	TotalValue     float64
	PlannedStart   *time.Time
	PlannedEnd     *time.Time
	PlannedMonths  int
	NumPeriods     int
}

type CreateProjectInput struct {
	ProjectFields
	Items []ItemInput
}

type UpdateProjectInput struct {
	ProjectFields
	ActualMonths *int
	// new descriptions keyed by item id; items left out keep theirs
	Descriptions map[uint]string
}

//
// READ
//

func GetProject(db *gorm.DB, id uint) (*models.Project, error) {
	var p models.Project
	err := db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Items.Entries", func(db *gorm.DB) *gorm.DB { return db.Order("period asc") }).
		First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load project %d: %w", id, err)
	}
	return &p, nil
}

// ListProjects returns the projects of ownerID, or every project when
// ownerID is 0.
func ListProjects(db *gorm.DB, ownerID uint) ([]models.Project, error) {
	q := db.Order("name asc")
	if ownerID != 0 {
		q = q.Where("user_id = ?", ownerID)
	}
	var projects []models.Project
	if err := q.Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

//
// CREATE
//

// CreateProject stores the project, its items and one entry per item and
// period in a single transaction. Actual values start NULL.
func CreateProject(db *gorm.DB, userID uint, in CreateProjectInput) (*models.Project, error) {
	var project models.Project

	err := db.Transaction(func(tx *gorm.DB) error {
		project = models.Project{UserID: userID}
		applyFields(&project, in.ProjectFields)
		if err := tx.Create(&project).Error; err != nil {
			return fmt.Errorf("create project: %w", err)
		}

		for i, it := range in.Items {
			if err := createItem(tx, project.ID, i+1, it, in.NumPeriods); err != nil {
				return err
			}
		}
		return refreshPercentages(tx, project.ID, project.TotalValue)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("project created",
		zap.Uint("project_id", project.ID),
		zap.Uint("user_id", userID),
		zap.Int("items", len(in.Items)),
		zap.Int("periods", in.NumPeriods),
	)
	return &project, nil
}

func createItem(tx *gorm.DB, projectID uint, position int, in ItemInput, numPeriods int) error {
	item := models.LineItem{
		ProjectID:   projectID,
		Position:    position,
		Description: in.Description,
	}
	entries := make([]models.MeasurementEntry, 0, numPeriods)
	for p := 1; p <= numPeriods; p++ {
		v := in.Planned[p]
		item.PlannedValue += v
		entries = append(entries, models.MeasurementEntry{
			ProjectID:    projectID,
			Period:       p,
			PlannedValue: v,
		})
	}

	if err := tx.Create(&item).Error; err != nil {
		return fmt.Errorf("create item %q: %w", in.Description, err)
	}
	for i := range entries {
		entries[i].ItemID = item.ID
	}
	if len(entries) > 0 {
		if err := tx.Create(&entries).Error; err != nil {
			return fmt.Errorf("create entries of item %q: %w", in.Description, err)
		}
	}
	return nil
}

func applyFields(p *models.Project, f ProjectFields) {
	p.Name = f.Name
	p.ContractNumber = f.ContractNumber
	p.ServiceOrder = f.ServiceOrder
	p.Client = f.Client
	p.Contractor = f.Contractor
	p.TotalValue = f.TotalValue
	p.PlannedStart = f.PlannedStart
	p.PlannedEnd = f.PlannedEnd
	p.PlannedMonths = f.PlannedMonths
	p.NumPeriods = f.NumPeriods
}

//
// UPDATE
//

// UpdateProject rewrites the header of a project. Changing the number of
// periods adds empty entries or drops trailing ones; dropping a period
// that already has measured values fails with ErrMeasured.
func UpdateProject(db *gorm.DB, id uint, in UpdateProjectInput) (*models.Project, error) {
	var project models.Project

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&project, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load project %d: %w", id, err)
		}
		oldPeriods := project.NumPeriods

		applyFields(&project, in.ProjectFields)
		project.ActualMonths = in.ActualMonths
		if err := tx.Save(&project).Error; err != nil {
			return fmt.Errorf("save project: %w", err)
		}

		for itemID, desc := range in.Descriptions {
			res := tx.Model(&models.LineItem{}).
				Where("id = ? AND project_id = ?", itemID, id).
				Update("description", desc)
			if res.Error != nil {
				return fmt.Errorf("update item %d: %w", itemID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: %d", ErrForeignItem, itemID)
			}
		}

		if err := resizePeriods(tx, id, oldPeriods, project.NumPeriods); err != nil {
			return err
		}
		if err := syncItemTotals(tx, id); err != nil {
			return err
		}
		return refreshPercentages(tx, id, project.TotalValue)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("project updated", zap.Uint("project_id", id))
	return &project, nil
}

func resizePeriods(tx *gorm.DB, projectID uint, from, to int) error {
	switch {
	case to < from:
		var measured int64
		if err := tx.Model(&models.MeasurementEntry{}).
			Where("project_id = ? AND period > ? AND actual_value IS NOT NULL", projectID, to).
			Count(&measured).Error; err != nil {
			return fmt.Errorf("check measured periods: %w", err)
		}
		if measured > 0 {
			return fmt.Errorf("%w: cannot drop periods after %d", ErrMeasured, to)
		}
		if err := tx.Where("project_id = ? AND period > ?", projectID, to).
			Delete(&models.MeasurementEntry{}).Error; err != nil {
			return fmt.Errorf("drop entries: %w", err)
		}
		if err := tx.Where("project_id = ? AND period > ?", projectID, to).
			Delete(&models.WeightingFactor{}).Error; err != nil {
			return fmt.Errorf("drop factors: %w", err)
		}

	case to > from:
		var items []models.LineItem
		if err := tx.Where("project_id = ?", projectID).Find(&items).Error; err != nil {
			return fmt.Errorf("load items: %w", err)
		}
		var entries []models.MeasurementEntry
		for _, it := range items {
			for p := from + 1; p <= to; p++ {
				entries = append(entries, models.MeasurementEntry{
					ProjectID: projectID,
					ItemID:    it.ID,
					Period:    p,
				})
			}
		}
		if len(entries) > 0 {
			if err := tx.Create(&entries).Error; err != nil {
				return fmt.Errorf("add entries: %w", err)
			}
		}
	}
	return nil
}

// UpdatePlannedValues overwrites planned values given as
// {item id: {period: value}}. Item totals follow the new values.
func UpdatePlannedValues(db *gorm.DB, projectID uint, grid map[uint]map[int]float64) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load project %d: %w", projectID, err)
		}

		owned, err := itemSet(tx, projectID)
		if err != nil {
			return err
		}

		for itemID, periods := range grid {
			if _, ok := owned[itemID]; !ok {
				return fmt.Errorf("%w: %d", ErrForeignItem, itemID)
			}
			for period, value := range periods {
				if period < 1 || period > project.NumPeriods {
					return fmt.Errorf("%w: %d", ErrInvalidPeriod, period)
				}
				if err := upsertEntry(tx, projectID, itemID, period, map[string]interface{}{
					"planned_value": value,
				}); err != nil {
					return err
				}
			}
		}

		if err := syncItemTotals(tx, projectID); err != nil {
			return err
		}
		return refreshPercentages(tx, projectID, project.TotalValue)
	})
	if err != nil {
		return err
	}

	zap.L().Info("planned values updated", zap.Uint("project_id", projectID), zap.Int("items", len(grid)))
	return nil
}

//
// HELPERS
//

func itemSet(tx *gorm.DB, projectID uint) (map[uint]struct{}, error) {
	var ids []uint
	if err := tx.Model(&models.LineItem{}).
		Where("project_id = ?", projectID).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// upsertEntry updates the (item, period) entry, creating it when missing.
func upsertEntry(tx *gorm.DB, projectID, itemID uint, period int, fields map[string]interface{}) error {
	res := tx.Model(&models.MeasurementEntry{}).
		Where("item_id = ? AND period = ?", itemID, period).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update entry item=%d period=%d: %w", itemID, period, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	entry := models.MeasurementEntry{ProjectID: projectID, ItemID: itemID, Period: period}
	if v, ok := fields["planned_value"].(float64); ok {
		entry.PlannedValue = v
	}
	if v, ok := fields["actual_value"].(float64); ok {
		entry.ActualValue = &v
	}
	if v, ok := fields["measured_at"].(time.Time); ok {
		entry.MeasuredAt = &v
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("create entry item=%d period=%d: %w", itemID, period, err)
	}
	return nil
}

// syncItemTotals sets each item's planned total to the sum of its entries.
func syncItemTotals(tx *gorm.DB, projectID uint) error {
	err := tx.Exec(`
		UPDATE itens_obra
		SET planned_value = (
			SELECT COALESCE(SUM(m.planned_value), 0)
			FROM medicoes m
			WHERE m.item_id = itens_obra.id
		)
		WHERE project_id = ?`, projectID).Error
	if err != nil {
		return fmt.Errorf("sync item totals: %w", err)
	}
	return nil
}

// refreshPercentages recomputes the stored cumulative percentages of every
// entry of the project. An entry's percentages are the item's running
// share of the project total, so summing them over the items of a period
// gives the project-level figure. The actual percentage stays NULL until
// the item has its first recorded actual and carries forward after it.
func refreshPercentages(tx *gorm.DB, projectID uint, totalValue float64) error {
	var entries []models.MeasurementEntry
	if err := tx.Where("project_id = ?", projectID).
		Order("item_id asc, period asc").
		Find(&entries).Error; err != nil {
		return fmt.Errorf("load entries: %w", err)
	}

	byItem := map[uint][]models.MeasurementEntry{}
	for _, e := range entries {
		byItem[e.ItemID] = append(byItem[e.ItemID], e)
	}

	for _, itemEntries := range byItem {
		records := make([]performance.PeriodRecord, 0, len(itemEntries))
		for _, e := range itemEntries {
			records = append(records, performance.PeriodRecord{
				Period:  e.Period,
				Planned: e.PlannedValue,
				Actual:  e.ActualValue,
			})
		}

		progress := performance.Accumulate(totalValue, records)
		byPeriod := make(map[int]performance.PeriodProgress, len(progress))
		for _, p := range progress {
			byPeriod[p.Period] = p
		}

		measured := false
		for _, e := range itemEntries {
			row := byPeriod[e.Period]
			if e.ActualValue != nil {
				measured = true
			}
			var actualPct interface{}
			if measured {
				actualPct = row.ActualCumPct
			}
			if err := tx.Model(&models.MeasurementEntry{}).
				Where("id = ?", e.ID).
				Updates(map[string]interface{}{
					"planned_cum_pct": row.PlannedCumPct,
					"actual_cum_pct":  actualPct,
				}).Error; err != nil {
				return fmt.Errorf("update percentages of entry %d: %w", e.ID, err)
			}
		}
	}
	return nil
}
