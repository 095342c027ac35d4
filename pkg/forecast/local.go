package forecast

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"cloud.google.com/go/civil"
)

// LocalModel is an in-process additive model: linear trend plus day-of-week effects,
// fitted by least squares with a few backfitting passes. Bounds are a normal interval
// around yhat from the residual spread, widening with distance past the last observation.
type LocalModel struct {
	// IntervalWidth is the coverage of [yhat_lower, yhat_upper]. Defaults to 0.8.
	IntervalWidth float64
	// Weekly enables the day-of-week component.
	Weekly bool
}

func NewLocalModel() *LocalModel {
	return &LocalModel{IntervalWidth: 0.8, Weekly: true}
}

const backfitPasses = 5

func (m *LocalModel) Forecast(ctx context.Context, history []Observation, periods int) ([]Point, error) {
	if len(history) == 0 {
		return nil, errors.New("empty history")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	origin := history[0].DS
	for _, o := range history {
		if o.DS.Before(origin) {
			origin = o.DS
		}
	}
	xs := make([]float64, len(history))
	ys := make([]float64, len(history))
	for i, o := range history {
		xs[i] = float64(o.DS.DaysSince(origin))
		ys[i] = o.Y
	}

	var season [7]float64
	var intercept, slope float64
	resid := make([]float64, len(ys))
	for pass := 0; pass < backfitPasses; pass++ {
		for i := range ys {
			resid[i] = ys[i] - season[weekday(origin, xs[i])]
		}
		intercept, slope = linearFit(xs, resid)
		if !m.Weekly {
			break
		}
		season = weekdayEffects(origin, xs, ys, intercept, slope)
	}

	sse := 0.0
	for i := range ys {
		e := ys[i] - (intercept + slope*xs[i] + season[weekday(origin, xs[i])])
		sse += e * e
	}
	dof := len(ys) - 2
	if dof < 1 {
		dof = 1
	}
	sd := math.Sqrt(sse / float64(dof))
	z := math.Sqrt2 * math.Erfinv(m.width())

	dates := distinctDates(history)
	last := dates[len(dates)-1]
	for i := 1; i <= periods; i++ {
		dates = append(dates, last.AddDays(i))
	}

	n := float64(len(ys))
	out := make([]Point, len(dates))
	for i, d := range dates {
		x := float64(d.DaysSince(origin))
		yhat := intercept + slope*x + season[weekday(origin, x)]
		spread := z * sd
		if ahead := d.DaysSince(last); ahead > 0 {
			spread *= math.Sqrt(1 + float64(ahead)/n)
		}
		out[i] = Point{DS: d, YHat: yhat, YHatLower: yhat - spread, YHatUpper: yhat + spread}
	}
	return out, nil
}

func (m *LocalModel) width() float64 {
	if m.IntervalWidth <= 0 || m.IntervalWidth >= 1 {
		return 0.8
	}
	return m.IntervalWidth
}

// linearFit is ordinary least squares of y on x. A degenerate x gives a flat line at the mean.
func linearFit(xs, ys []float64) (intercept, slope float64) {
	n := float64(len(xs))
	var sumX, sumY, sumXY, sumX2 float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumX2 += xs[i] * xs[i]
	}
	den := n*sumX2 - sumX*sumX
	if den == 0 {
		return sumY / n, 0
	}
	slope = (n*sumXY - sumX*sumY) / den
	intercept = (sumY - slope*sumX) / n
	return intercept, slope
}

// weekdayEffects averages the detrended values per weekday and centers them on zero.
func weekdayEffects(origin civil.Date, xs, ys []float64, intercept, slope float64) [7]float64 {
	var sum [7]float64
	var cnt [7]int
	for i := range ys {
		w := weekday(origin, xs[i])
		sum[w] += ys[i] - (intercept + slope*xs[i])
		cnt[w]++
	}
	var eff [7]float64
	mean, seen := 0.0, 0
	for w := range eff {
		if cnt[w] > 0 {
			eff[w] = sum[w] / float64(cnt[w])
			mean += eff[w]
			seen++
		}
	}
	if seen == 0 {
		return eff
	}
	mean /= float64(seen)
	for w := range eff {
		if cnt[w] > 0 {
			eff[w] -= mean
		}
	}
	return eff
}

func weekday(origin civil.Date, x float64) int {
	return int(origin.AddDays(int(x)).In(time.UTC).Weekday())
}

func distinctDates(history []Observation) []civil.Date {
	seen := make(map[civil.Date]struct{}, len(history))
	var out []civil.Date
	for _, o := range history {
		if _, ok := seen[o.DS]; ok {
			continue
		}
		seen[o.DS] = struct{}{}
		out = append(out, o.DS)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
