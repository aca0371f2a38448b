package database

import (
	"fmt"
	"time"

	"github.com/meljneres/sistema-obras/internal/config"
	"github.com/meljneres/sistema-obras/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(cfg *config.Config) error {
	var err error

	const maxAttempts = 10
	for i := 1; i <= maxAttempts; i++ {
		zap.L().Info("connecting to DB", zap.String("driver", cfg.DBDriver), zap.Int("attempt", i))

		DB, err = Open(cfg.DBDriver, cfg.DBDSN, cfg.LogLevel == "debug")
		if err == nil {
			zap.L().Info("connected to DB")
			break
		}

		zap.L().Warn("failed to connect to DB", zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return fmt.Errorf("connect to db after %d attempts: %w", maxAttempts, err)
	}

	if err := Migrate(DB); err != nil {
		return err
	}

	createDefaultAdmin(DB, cfg.AdminUsername, cfg.AdminPassword)
	if cfg.SeedDemo {
		seedDemo(DB)
	}
	return nil
}

// Open connects to postgres or to a sqlite file.
func Open(driver, dsn string, verbose bool) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Silent)
	if verbose {
		gormLogger = logger.Default.LogMode(logger.Info)
	}
	gcfg := &gorm.Config{Logger: gormLogger}

	switch driver {
	case "postgres":
		db, err := gorm.Open(postgres.Open(dsn), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, nil

	case "sqlite":
		db, err := gorm.Open(sqlite.Open(dsn), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql db: %w", err)
		}
		// single writer; pragmas below are per connection
		sqlDB.SetMaxOpenConns(1)
		_, _ = sqlDB.Exec("PRAGMA foreign_keys = ON;")
		_, _ = sqlDB.Exec("PRAGMA journal_mode = WAL;")
		return db, nil
	}
	return nil, fmt.Errorf("unknown db driver %q", driver)
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.LineItem{},
		&models.MeasurementEntry{},
		&models.WeightingFactor{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// admin comes from config only, never from the register form
func createDefaultAdmin(db *gorm.DB, username, password string) {
	var count int64
	if err := db.Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		zap.L().Error("failed to check admin user", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	if _, err := CreateUser(db, username, password, models.RoleAdmin); err != nil {
		zap.L().Error("failed to create default admin", zap.Error(err))
		return
	}
	zap.L().Info("created default admin user", zap.String("username", username))
}

// CreateUser stores a user with a bcrypt hash of password.
func CreateUser(db *gorm.DB, username, password string, role models.UserRole) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}
