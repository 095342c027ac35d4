// Package ingest feeds CSV files dropped into an inbox directory into a user's datasets.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"oracle/models"
	"oracle/pkg/database"
	"oracle/pkg/logger"
	"oracle/pkg/sales"
	"oracle/pkg/store"

	"github.com/fsnotify/fsnotify"
	"gorm.io/gorm"
)

// settle is how long a file must go without events before it is ingested.
const settle = 300 * time.Millisecond

// Watcher ingests inbox files for one user.
type Watcher struct {
	Dir    string
	UserID uint
	Store  store.Store
	DB     *gorm.DB
	Log    *logger.Logger
}

// ProcessFile validates and stores one inbox file under the user's key and refreshes the
// dataset index. The inbox copy is removed on success and kept on failure.
func (w *Watcher) ProcessFile(ctx context.Context, name string) error {
	path := filepath.Join(w.Dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	key := store.Key(w.UserID, name)
	products, ds, err := sales.Ingest(ctx, w.Store, key, data)
	if err != nil {
		if errors.Is(err, sales.ErrValidation) {
			if derr := database.DeleteDataset(w.DB, w.UserID, name); derr != nil {
				w.Log.Warn("dataset index cleanup failed", "file", name, "error", derr)
			}
		}
		return fmt.Errorf("ingest %s: %w", name, err)
	}
	entry := models.Dataset{
		UserID:       w.UserID,
		FileName:     name,
		StoreKey:     key,
		RowCount:     len(ds.Records),
		ProductCount: len(products),
		SizeBytes:    int64(len(data)),
	}
	if err := database.UpsertDataset(w.DB, &entry); err != nil {
		return fmt.Errorf("index %s: %w", name, err)
	}
	if err := os.Remove(path); err != nil {
		w.Log.Warn("inbox cleanup failed", "file", name, "error", err)
	}
	w.Log.Info("ingested", "file", name, "rows", len(ds.Records), "products", len(products))
	return nil
}

// Scan ingests the CSV files already sitting in the inbox.
func (w *Watcher) Scan(ctx context.Context) {
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		w.Log.Warn("inbox scan failed", "dir", w.Dir, "error", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() || !isCSV(e.Name()) {
			continue
		}
		if err := w.ProcessFile(ctx, e.Name()); err != nil {
			w.Log.Warn("ingest failed", "file", e.Name(), "error", err)
		}
	}
}

// Watch ingests new or rewritten CSV files once they stop changing. It blocks until ctx is done.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(w.Dir); err != nil {
		return err
	}
	w.Log.Info("watching inbox (debounced)", "dir", w.Dir, "user_id", w.UserID)

	pending := map[string]time.Time{}
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if !isCSV(name) {
				continue
			}
			pending[name] = time.Now()
		case now := <-ticker.C:
			for name, t := range pending {
				if now.Sub(t) > settle {
					delete(pending, name)
					if err := w.ProcessFile(ctx, name); err != nil {
						w.Log.Warn("ingest failed", "file", name, "error", err)
					}
				}
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.Log.Warn("watch error", "error", err)
		}
	}
}

func isCSV(name string) bool {
	return !strings.HasPrefix(name, ".") && sales.CheckFilename(name) == nil
}
