package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"oracle/pkg/database"
	"oracle/pkg/forecast"
	"oracle/pkg/store"
	"oracle/process/report"

	"github.com/joho/godotenv"
)

func main() {
	email := flag.String("email", "", "account email")
	file := flag.String("file", "", "uploaded file name, e.g. sales.csv")
	product := flag.String("product", "", "product id to forecast")
	asCSV := flag.Bool("csv", false, "write the full export CSV instead of a summary")
	flag.Parse()

	if *email == "" || *file == "" || *product == "" {
		fmt.Fprintln(os.Stderr, "usage: cmd_forecast_report -email user@example.com -file sales.csv -product SKU [-csv]")
		os.Exit(2)
	}
	_ = godotenv.Load()

	db, err := database.Open(envOr("DATABASE_URL", "sqlite:///./oracle.db"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx := context.Background()
	st, err := store.New(ctx, store.Config{
		Mode:   envOr("STORAGE_MODE", "local"),
		Dir:    envOr("UPLOAD_DIR", "uploads"),
		Bucket: os.Getenv("GCS_BUCKET"),
		Prefix: os.Getenv("GCS_PREFIX"),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	model, err := forecast.NewForecaster(forecast.Config{
		Mode:    envOr("FORECAST_MODE", "local"),
		URL:     os.Getenv("FORECAST_URL"),
		Timeout: 2 * time.Minute,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	opts := report.Options{Email: *email, FileName: *file, ProductID: *product, CSV: *asCSV}
	if err := report.RunForecastReport(ctx, db, st, forecast.NewPipeline(model), opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "report:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
