package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"oracle/pkg/database"
	"oracle/pkg/store"
	"oracle/process/sanitize"

	"github.com/joho/godotenv"
)

func main() {
	dryRun := flag.Bool("dry-run", true, "only list orphaned dataset rows")
	yes := flag.Bool("yes", false, "confirm deletion (required with --dry-run=false)")
	flag.Parse()

	_ = godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "sqlite:///./oracle.db"
	}
	db, err := database.Open(dbURL)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	ctx := context.Background()
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
		log.Fatalf("content store: %v", err)
	}

	if !*dryRun && !*yes {
		fmt.Println("Destructive operation. Pass --yes to confirm execution. Aborting.")
		return
	}
	orphans, err := sanitize.Prune(ctx, db, st, *dryRun)
	if err != nil {
		log.Fatalf("prune: %v", err)
	}
	for _, d := range orphans {
		fmt.Printf(" - id=%d user=%d file=%s key=%s\n", d.ID, d.UserID, d.FileName, d.StoreKey)
	}
	if *dryRun {
		fmt.Printf("%d orphaned rows; dry-run enabled, nothing deleted. Use --dry-run=false --yes to execute.\n", len(orphans))
		return
	}
	fmt.Printf("deleted %d orphaned rows\n", len(orphans))
}
