// Package forecast turns one product's sales history into a demand forecast,
// a trend insight and export files. The model itself sits behind Forecaster.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

const (
	// MinHistory is the fewest rows a product needs before it can be forecast.
	MinHistory = 30
	// Horizon is the number of future days requested from the model.
	Horizon = 30
	// InsightWindow is the tail length averaged on both sides of the insight.
	InsightWindow = 7
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrInsufficientData = errors.New("not enough data")
)

// Observation is one historical (date, units sold) pair.
type Observation struct {
	DS civil.Date `json:"ds"`
	Y  float64    `json:"y"`
}

// Point is one model output row. DS marshals as YYYY-MM-DD.
type Point struct {
	DS        civil.Date `json:"ds"`
	YHat      float64    `json:"yhat"`
	YHatLower float64    `json:"yhat_lower"`
	YHatUpper float64    `json:"yhat_upper"`
}

// Forecaster fits a model to history (ascending by date) and returns one Point for every
// distinct history date followed by one Point for each of the next periods days.
type Forecaster interface {
	Forecast(ctx context.Context, history []Observation, periods int) ([]Point, error)
}

// Config selects a Forecaster backend.
type Config struct {
	Mode    string // "local" (default) or "remote"
	URL     string // remote model service base URL
	Timeout time.Duration
}

// NewForecaster builds the backend selected by cfg.Mode.
func NewForecaster(cfg Config) (Forecaster, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "", "local":
		return NewLocalModel(), nil
	case "remote":
		return NewRemoteModel(cfg.URL, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unsupported forecast mode %q", cfg.Mode)
	}
}
