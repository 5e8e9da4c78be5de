// database/database.go
package database

import (
	"fmt"
	"strings"
	"time"

	"seikatsu-backend/models"

	"github.com/glebarez/sqlite"
	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Open connects to postgres or sqlite depending on driver. All timestamps are UTC.
func Open(driver, dsn string, log logrus.FieldLogger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	log.WithField("driver", driver).Info("database connected")
	return db, nil
}

// GormConfig is shared by Open and the test helpers
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Error),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates or updates every table the service owns
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.UserStats{},
		&models.Category{},
		&models.CategoryLevel{},
		&models.Journal{},
		&models.Task{},
		&models.MarketItem{},
		&models.Purchase{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Seed inserts the default categories (General first, so it gets id 1) and the market catalog.
// Existing rows are left untouched.
func Seed(db *gorm.DB) error {
	names := append([]string{models.GeneralCategoryName}, models.DefaultCategories...)
	for _, name := range names {
		if _, err := EnsureCategory(db, name); err != nil {
			return err
		}
	}

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.DefaultMarketItems).Error; err != nil {
		return fmt.Errorf("failed to seed market items: %w", err)
	}
	return nil
}

var titleCaser = cases.Title(language.English)

// NormalizeCategoryName trims and title-cases a category name ("deep  work" -> "Deep Work")
func NormalizeCategoryName(name string) string {
	return titleCaser.String(strings.Join(strings.Fields(name), " "))
}

// EnsureCategory returns the category named name, creating it if needed
func EnsureCategory(db *gorm.DB, name string) (*models.Category, error) {
	name = NormalizeCategoryName(name)
	if name == "" {
		return nil, fmt.Errorf("category name is empty")
	}
	cat := models.Category{Name: name, Slug: slug.Make(name)}
	if err := db.Where(models.Category{Name: name}).FirstOrCreate(&cat).Error; err != nil {
		return nil, fmt.Errorf("failed to ensure category %s: %w", name, err)
	}
	return &cat, nil
}
