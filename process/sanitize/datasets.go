// Package sanitize reconciles the dataset index with the content store.
package sanitize

import (
	"context"
	"errors"
	"fmt"

	"oracle/models"
	"oracle/pkg/store"

	"gorm.io/gorm"
)

// FindOrphans returns index rows whose stored file no longer exists.
func FindOrphans(ctx context.Context, db *gorm.DB, st store.Store) ([]models.Dataset, error) {
	var all []models.Dataset
	if err := db.WithContext(ctx).Order("id").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	var orphans []models.Dataset
	for _, d := range all {
		_, err := st.Load(ctx, d.StoreKey)
		switch {
		case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrInvalidKey):
			orphans = append(orphans, d)
		case err != nil:
			return nil, fmt.Errorf("check %s: %w", d.StoreKey, err)
		}
	}
	return orphans, nil
}

// Prune deletes orphaned index rows unless dryRun is set. It returns the orphans found.
func Prune(ctx context.Context, db *gorm.DB, st store.Store, dryRun bool) ([]models.Dataset, error) {
	orphans, err := FindOrphans(ctx, db, st)
	if err != nil || dryRun || len(orphans) == 0 {
		return orphans, err
	}
	ids := make([]uint, len(orphans))
	for i, d := range orphans {
		ids[i] = d.ID
	}
	if err := db.WithContext(ctx).Delete(&models.Dataset{}, ids).Error; err != nil {
		return nil, fmt.Errorf("delete orphans: %w", err)
	}
	return orphans, nil
}
