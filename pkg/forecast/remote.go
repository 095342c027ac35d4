package forecast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"oracle/pkg/sales"
)

// RemoteModel delegates fitting to a model service (e.g. a Prophet sidecar) over HTTP.
//
//	POST {base}/forecast
//	{"history":[{"ds":"2024-01-01","y":10}],"periods":30,"daily_seasonality":true}
//	-> {"forecast":[{"ds":"2024-01-01","yhat":..,"yhat_lower":..,"yhat_upper":..}]}
type RemoteModel struct {
	client *resty.Client
}

type remoteRequest struct {
	History          []Observation `json:"history"`
	Periods          int           `json:"periods"`
	DailySeasonality bool          `json:"daily_seasonality"`
}

type remotePoint struct {
	DS        string  `json:"ds"`
	YHat      float64 `json:"yhat"`
	YHatLower float64 `json:"yhat_lower"`
	YHatUpper float64 `json:"yhat_upper"`
}

type remoteResponse struct {
	Forecast []remotePoint `json:"forecast"`
}

func NewRemoteModel(baseURL string, timeout time.Duration) (*RemoteModel, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("missing forecast service URL")
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &RemoteModel{client: client}, nil
}

func (m *RemoteModel) Forecast(ctx context.Context, history []Observation, periods int) ([]Point, error) {
	var out remoteResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(remoteRequest{History: history, Periods: periods, DailySeasonality: true}).
		SetResult(&out).
		Post("/forecast")
	if err != nil {
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("forecast service returned %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	points := make([]Point, len(out.Forecast))
	for i, rp := range out.Forecast {
		d, err := sales.ParseDate(rp.DS)
		if err != nil {
			return nil, fmt.Errorf("forecast row %d: %w", i, err)
		}
		points[i] = Point{DS: d, YHat: rp.YHat, YHatLower: rp.YHatLower, YHatUpper: rp.YHatUpper}
	}
	return points, nil
}
