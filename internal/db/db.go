package db

import (
	"errors"
	"fmt"
	"time"
	"yatube/internal/config"
	"yatube/internal/logger"
	"yatube/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured database and migrates the schema.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	}

	l := logger.L()
	l.Info().Str("driver", cfg.Driver).Msg("database connection established")

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	if cfg.Seed {
		if err := SeedGroups(gdb); err != nil {
			return nil, err
		}
	}
	return gdb, nil
}

// Migrate creates or updates every table the application owns.
func Migrate(gdb *gorm.DB) error {
	err := gdb.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// SeedGroups creates the default groups on an empty database.
func SeedGroups(gdb *gorm.DB) error {
	l := logger.L()

	var count int64
	if err := gdb.Model(&models.Group{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count groups: %w", err)
	}
	if count > 0 {
		l.Debug().Int64("groups", count).Msg("groups already seeded, skipping")
		return nil
	}

	groups := []models.Group{
		{Title: "Котики", Slug: "cats", Description: "Всё о котах"},
		{Title: "Путешествия", Slug: "travel", Description: "Куда поехать и что посмотреть"},
		{Title: "Программирование", Slug: "dev", Description: "Код, инструменты и байки"},
	}
	for _, g := range groups {
		if err := gdb.Create(&g).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return fmt.Errorf("failed to create group %s: %w", g.Slug, err)
		}
	}
	l.Info().Int("groups", len(groups)).Msg("initial groups created")
	return nil
}
