package sales

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// CheckFilename accepts only names ending in ".csv" (case-sensitive).
func CheckFilename(name string) error {
	if !strings.HasSuffix(name, ".csv") {
		return ErrInvalidFileType
	}
	return nil
}

// Parse reads a sales CSV. The header must contain the required columns; other columns are ignored.
// A missing column yields a *ValidationError, an unreadable cell a *FormatError.
func Parse(data []byte) (*Dataset, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // row width is checked per required column

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ValidationError{Msg: "No columns to parse from file"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Columns: header}
	line := 1
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		if isBlank(row) {
			continue
		}
		rec, err := parseRow(row, idx, line)
		if err != nil {
			return nil, err
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(requiredColumns))
	for i, h := range header {
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			quoted := make([]string, len(header))
			for i, h := range header {
				quoted[i] = "'" + h + "'"
			}
			return nil, &ValidationError{Msg: fmt.Sprintf("Missing required columns. Found: [%s]", strings.Join(quoted, ", "))}
		}
	}
	return idx, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseRow(row []string, idx map[string]int, line int) (Record, error) {
	cell := func(col string) (string, error) {
		i := idx[col]
		if i >= len(row) {
			return "", &FormatError{Line: line, Column: col, Err: errors.New("missing value")}
		}
		return strings.TrimSpace(row[i]), nil
	}

	var rec Record
	v, err := cell(ColDate)
	if err != nil {
		return rec, err
	}
	if rec.Date, err = ParseDate(v); err != nil {
		return rec, &FormatError{Line: line, Column: ColDate, Err: err}
	}

	if rec.ProductID, err = cell(ColProductID); err != nil {
		return rec, err
	}

	if v, err = cell(ColUnitsSold); err != nil {
		return rec, err
	}
	if rec.UnitsSold, err = strconv.ParseFloat(v, 64); err != nil {
		return rec, &FormatError{Line: line, Column: ColUnitsSold, Err: err}
	}

	if v, err = cell(ColPrice); err != nil {
		return rec, err
	}
	if rec.Price, err = decimal.NewFromString(v); err != nil {
		return rec, &FormatError{Line: line, Column: ColPrice, Err: err}
	}
	return rec, nil
}

// ParseDate accepts YYYY-MM-DD, YYYY/MM/DD and timestamps whose first ten characters are a date.
func ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > 10 && (s[10] == 'T' || s[10] == ' ') {
		s = s[:10]
	}
	if d, err := civil.ParseDate(s); err == nil {
		return d, nil
	}
	if t, err := time.Parse("2006/01/02", s); err == nil {
		return civil.DateOf(t), nil
	}
	return civil.Date{}, fmt.Errorf("invalid date %q", s)
}
