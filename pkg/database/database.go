// Package database opens the gorm connection shared by the server and the CLIs.
package database

import (
	"fmt"
	"strings"

	"oracle/models"
	"oracle/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Open picks the gorm driver from the URL: postgres URLs/DSNs use Postgres, anything else
// is a SQLite path (an optional sqlite:// prefix is stripped).
func Open(url string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"), strings.Contains(url, "host="):
		dialector = postgres.Open(url)
	default:
		path := strings.TrimPrefix(url, "sqlite:///")
		path = strings.TrimPrefix(path, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("empty sqlite path in %q", url)
		}
		dialector = sqlite.Open(path)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Migrate runs AutoMigrate per model so one failure doesn't block the others.
func Migrate(db *gorm.DB, log *logger.Logger) error {
	var firstErr error
	for _, m := range []interface{}{&models.User{}, &models.Dataset{}} {
		if err := db.AutoMigrate(m); err != nil {
			log.Warn("migration warning", "model", fmt.Sprintf("%T", m), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// UpsertDataset records a stored file in the index, refreshing the row when the
// user already has a file of that name.
func UpsertDataset(db *gorm.DB, ds *models.Dataset) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "file_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"store_key", "row_count", "product_count", "size_bytes", "updated_at"}),
	}).Create(ds).Error
}

// DeleteDataset drops the index row of a user's file, if any.
func DeleteDataset(db *gorm.DB, userID uint, fileName string) error {
	return db.Where("user_id = ? AND file_name = ?", userID, fileName).Delete(&models.Dataset{}).Error
}

// UserIDByEmail resolves an account id for CLI tools.
func UserIDByEmail(db *gorm.DB, email string) (uint, error) {
	var user models.User
	if err := db.Select("id").Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return 0, fmt.Errorf("user %q: %w", email, err)
	}
	return user.ID, nil
}
