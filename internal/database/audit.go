package database

import (
	"github.com/meljneres/sistema-obras/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateAuditLog records an action. Failures are logged, never returned.
func CreateAuditLog(db *gorm.DB, userID uint, entity string, entityID uint, action, details string) {
	if db == nil || userID == 0 {
		return
	}
	record := models.AuditLog{
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}
	if err := db.Create(&record).Error; err != nil {
		zap.L().Warn("failed to write audit log", zap.String("entity", entity), zap.Error(err))
	}
}

// ListAuditLogs returns the latest entries, newest first. A non-zero
// projectID restricts the list to that project.
func ListAuditLogs(db *gorm.DB, projectID uint, limit int) ([]models.AuditLog, error) {
	q := db.Preload("User").Order("created_at desc, id desc").Limit(limit)
	if projectID != 0 {
		q = q.Where("entity_id = ? AND entity IN ?", projectID, []string{EntityProject, EntityMeasurement, EntityFactor})
	}
	var logs []models.AuditLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

const (
	EntityProject     = "obra"
	EntityMeasurement = "medicao"
	EntityFactor      = "fator"
)
