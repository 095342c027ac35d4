// Package analysis aggregates a sales dataset into revenue and best-seller views.
package analysis

import (
	"sort"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"oracle/pkg/sales"
)

// TopN is the number of products reported by Analyze.
const TopN = 5

type RevenuePoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

type TopProduct struct {
	ProductID string  `json:"product_id"`
	UnitsSold float64 `json:"units_sold"`
}

type Summary struct {
	RevenueOverTime []RevenuePoint `json:"revenue_over_time"`
	TopProducts     []TopProduct   `json:"top_products"`
}

// Analyze computes revenue per date (ascending) and the TopN products by units sold.
func Analyze(ds *sales.Dataset) Summary {
	return Summary{
		RevenueOverTime: RevenueOverTime(ds),
		TopProducts:     TopProducts(ds, TopN),
	}
}

// RevenueOverTime sums units*price per calendar date.
func RevenueOverTime(ds *sales.Dataset) []RevenuePoint {
	totals := make(map[civil.Date]decimal.Decimal)
	var dates []civil.Date
	for _, r := range ds.Records {
		cur, ok := totals[r.Date]
		if !ok {
			dates = append(dates, r.Date)
		}
		totals[r.Date] = cur.Add(r.Revenue())
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]RevenuePoint, 0, len(dates))
	for _, d := range dates {
		out = append(out, RevenuePoint{Date: d.String(), Revenue: totals[d].InexactFloat64()})
	}
	return out
}

// TopProducts ranks products by summed units, descending. Ties keep first-encounter order.
func TopProducts(ds *sales.Dataset, n int) []TopProduct {
	index := make(map[string]int)
	var out []TopProduct
	for _, r := range ds.Records {
		i, ok := index[r.ProductID]
		if !ok {
			i = len(out)
			index[r.ProductID] = i
			out = append(out, TopProduct{ProductID: r.ProductID})
		}
		out[i].UnitsSold += r.UnitsSold
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UnitsSold > out[j].UnitsSold })
	if len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []TopProduct{}
	}
	return out
}
