package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"oracle/pkg/database"
	"oracle/pkg/logger"
	"oracle/pkg/store"
	"oracle/process/ingest"

	"github.com/joho/godotenv"
)

func main() {
	dir := flag.String("dir", "inbox", "directory to watch for CSV files")
	email := flag.String("email", "", "account that owns ingested files")
	once := flag.Bool("once", false, "ingest what is already in the directory and exit")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "usage: cmd_ingest_watch -email user@example.com [-dir inbox] [-once]")
		os.Exit(2)
	}
	_ = godotenv.Load()

	log, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "sqlite:///./oracle.db"
	}
	db, err := database.Open(dbURL)
	if err != nil {
		log.Fatal("database", "error", err)
	}
	userID, err := database.UserIDByEmail(db, *email)
	if err != nil {
		log.Fatal("user lookup", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	st, err := store.New(ctx, store.Config{
		Mode:   os.Getenv("STORAGE_MODE"),
		Dir:    uploadDir,
		Bucket: os.Getenv("GCS_BUCKET"),
		Prefix: os.Getenv("GCS_PREFIX"),
	})
	if err != nil {
		log.Fatal("content store", "error", err)
	}
	if err := os.MkdirAll(*dir, 0755); err != nil {
		log.Fatal("inbox", "error", err)
	}

	w := &ingest.Watcher{Dir: *dir, UserID: userID, Store: st, DB: db, Log: log.With("user", *email)}
	w.Scan(ctx)
	if *once {
		return
	}
	if err := w.Watch(ctx); err != nil {
		log.Fatal("watch", "error", err)
	}
}
