package sales

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Required columns of an uploaded sales file.
const (
	ColDate      = "date"
	ColProductID = "product_id"
	ColUnitsSold = "units_sold"
	ColPrice     = "price"
)

var requiredColumns = []string{ColDate, ColProductID, ColUnitsSold, ColPrice}

// Record is one row of an uploaded dataset.
type Record struct {
	Date      civil.Date
	ProductID string
	UnitsSold float64
	Price     decimal.Decimal
}

// Revenue is units sold times price.
func (r Record) Revenue() decimal.Decimal {
	return decimal.NewFromFloat(r.UnitsSold).Mul(r.Price)
}

// Dataset is a parsed upload in file order. Columns holds the header as found.
type Dataset struct {
	Columns []string
	Records []Record
}

// Products returns the distinct product ids in order of first appearance.
func (ds *Dataset) Products() []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range ds.Records {
		if _, ok := seen[r.ProductID]; ok {
			continue
		}
		seen[r.ProductID] = struct{}{}
		out = append(out, r.ProductID)
	}
	return out
}

// ForProduct returns the records whose product id equals id exactly, in file order.
func (ds *Dataset) ForProduct(id string) []Record {
	var out []Record
	for _, r := range ds.Records {
		if r.ProductID == id {
			out = append(out, r)
		}
	}
	return out
}
