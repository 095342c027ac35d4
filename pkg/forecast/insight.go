package forecast

import (
	"fmt"
	"math"
	"strconv"
)

// Insight compares the mean of the last InsightWindow history values with the mean yhat of
// the last InsightWindow rows of the full model output and phrases the trend.
func Insight(productID string, history []Observation, full []Point) string {
	histVals := make([]float64, len(history))
	for i, o := range history {
		histVals[i] = o.Y
	}
	fcstVals := make([]float64, len(full))
	for i, p := range full {
		fcstVals[i] = p.YHat
	}
	change := ChangePercent(tailMean(histVals, InsightWindow), tailMean(fcstVals, InsightWindow))
	return fmt.Sprintf("Product '%s' %s", productID, describeChange(change))
}

// ChangePercent is the relative change from histAvg to fcstAvg in percent. A zero or undefined
// histAvg gives +Inf when fcstAvg is positive and 0 otherwise.
func ChangePercent(histAvg, fcstAvg float64) float64 {
	if math.IsNaN(histAvg) || histAvg == 0 {
		if fcstAvg > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return (fcstAvg - histAvg) / histAvg * 100
}

func describeChange(change float64) string {
	switch {
	case change > 15:
		return fmt.Sprintf("shows a strong upward trend. Sales are predicted to increase by approximately %s%% over the next month. Consider increasing stock to meet expected demand.", percent(change))
	case change > 5:
		return fmt.Sprintf("shows a modest upward trend, with a predicted increase of around %s%%. Ensure stock levels are adequate.", percent(change))
	case change < -15:
		return fmt.Sprintf("shows a significant downward trend, with sales predicted to decrease by %s%%. Consider running promotions or reducing inventory.", percent(math.Abs(change)))
	case change < -5:
		return fmt.Sprintf("shows a modest downward trend, with a predicted decrease of around %s%%. Monitor sales closely.", percent(math.Abs(change)))
	default:
		return "is predicted to remain stable. Maintain current inventory and marketing strategies."
	}
}

func percent(v float64) string {
	if math.IsInf(v, 0) {
		return "inf"
	}
	return strconv.FormatFloat(v, 'f', 0, 64)
}

// tailMean averages the last n values; NaN when there are none.
func tailMean(vals []float64, n int) float64 {
	if len(vals) > n {
		vals = vals[len(vals)-n:]
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
