package forecast

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"oracle/pkg/sales"
)

// ExportHeader is the header row of a forecast export.
var ExportHeader = []string{"date", "predicted_sales", "predicted_sales_lower_bound", "predicted_sales_upper_bound"}

// Result is the response shape of a forecast request.
type Result struct {
	ProductID  string        `json:"product_id"`
	Insight    string        `json:"insight"`
	Historical []Observation `json:"historical_data"`
	Forecast   []Point       `json:"forecast_data"`
}

// Pipeline runs forecasts for products of a dataset. Nothing is cached between calls.
type Pipeline struct {
	Model Forecaster
}

func NewPipeline(model Forecaster) *Pipeline {
	return &Pipeline{Model: model}
}

// History isolates productID (exact match) as a (date, units) sequence in file order.
func History(ds *sales.Dataset, productID string) ([]Observation, error) {
	rows := ds.ForProduct(productID)
	if len(rows) == 0 {
		return nil, ErrProductNotFound
	}
	if len(rows) < MinHistory {
		return nil, fmt.Errorf("%w: %d rows for %q, need %d", ErrInsufficientData, len(rows), productID, MinHistory)
	}
	out := make([]Observation, len(rows))
	for i, r := range rows {
		out[i] = Observation{DS: r.Date, Y: r.UnitsSold}
	}
	return out, nil
}

// byDate returns an ascending copy of history; equal dates keep their file order.
func byDate(history []Observation) []Observation {
	out := make([]Observation, len(history))
	copy(out, history)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DS.Before(out[j].DS) })
	return out
}

// Full returns the product history in file order and the model's complete output
// (history dates plus Horizon). The model is fitted on a date-sorted copy.
func (p *Pipeline) Full(ctx context.Context, ds *sales.Dataset, productID string) ([]Observation, []Point, error) {
	history, err := History(ds, productID)
	if err != nil {
		return nil, nil, err
	}

	ctx, span := otel.Tracer("oracle/forecast").Start(ctx, "forecast.fit", trace.WithAttributes(
		attribute.String("product_id", productID),
		attribute.Int("rows", len(history)),
	))
	defer span.End()

	points, err := p.Model.Forecast(ctx, byDate(history), Horizon)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, fmt.Errorf("forecast %q: %w", productID, err)
	}
	if len(points) < Horizon {
		return nil, nil, fmt.Errorf("forecast %q: model returned %d rows, want at least %d", productID, len(points), Horizon)
	}
	return history, points, nil
}

// Run forecasts productID and returns the history, the future horizon and an insight.
func (p *Pipeline) Run(ctx context.Context, ds *sales.Dataset, productID string) (*Result, error) {
	history, points, err := p.Full(ctx, ds, productID)
	if err != nil {
		return nil, err
	}
	return &Result{
		ProductID:  productID,
		Insight:    Insight(productID, history, points),
		Historical: history,
		Forecast:   points[len(points)-Horizon:],
	}, nil
}

// Export writes every row of a fresh forecast (history and horizon) as CSV.
func (p *Pipeline) Export(ctx context.Context, ds *sales.Dataset, productID string, w io.Writer) error {
	_, points, err := p.Full(ctx, ds, productID)
	if err != nil {
		return err
	}
	return WriteCSV(w, points)
}

// ExportXLSX is Export as a single-sheet workbook.
func (p *Pipeline) ExportXLSX(ctx context.Context, ds *sales.Dataset, productID string, w io.Writer) error {
	_, points, err := p.Full(ctx, ds, productID)
	if err != nil {
		return err
	}
	return WriteXLSX(w, points)
}

// WriteCSV writes points under ExportHeader.
func WriteCSV(w io.Writer, points []Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, pt := range points {
		if err := cw.Write([]string{pt.DS.String(), formatFloat(pt.YHat), formatFloat(pt.YHatLower), formatFloat(pt.YHatUpper)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes points to a sheet named "forecast".
func WriteXLSX(w io.Writer, points []Point) error {
	const sheet = "forecast"
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	for col, h := range ExportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for i, pt := range points {
		row := []interface{}{pt.DS.String(), pt.YHat, pt.YHatLower, pt.YHatUpper}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
