// Package report prints a forecast for one product of a stored dataset.
package report

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"oracle/pkg/database"
	"oracle/pkg/forecast"
	"oracle/pkg/sales"
	"oracle/pkg/store"

	"gorm.io/gorm"
)

// Options selects the dataset and product to report on.
type Options struct {
	Email     string
	FileName  string
	ProductID string
	CSV       bool // write the full export CSV instead of the summary table
}

// RunForecastReport loads the user's stored file, forecasts the product and writes either the
// insight and horizon table or the export CSV to w.
func RunForecastReport(ctx context.Context, db *gorm.DB, st store.Store, p *forecast.Pipeline, opts Options, w io.Writer) error {
	userID, err := database.UserIDByEmail(db, opts.Email)
	if err != nil {
		return err
	}
	ds, err := sales.Load(ctx, st, store.Key(userID, opts.FileName))
	if err != nil {
		return fmt.Errorf("load %s: %w", opts.FileName, err)
	}
	if opts.CSV {
		return p.Export(ctx, ds, opts.ProductID, w)
	}

	res, err := p.Run(ctx, ds, opts.ProductID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Forecast for user=%s file=%s product=%s\n", opts.Email, opts.FileName, res.ProductID)
	fmt.Fprintf(w, "  history=%d rows, horizon=%d days\n", len(res.Historical), len(res.Forecast))
	fmt.Fprintf(w, "  %s\n\n", res.Insight)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "date\tyhat\tlower\tupper\t")
	for _, pt := range res.Forecast {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t\n", pt.DS, pt.YHat, pt.YHatLower, pt.YHatUpper)
	}
	return tw.Flush()
}
