package sales

import (
	"context"
	"errors"
	"fmt"

	"oracle/pkg/store"
)

const negativeValuesMsg = "'units_sold' and 'price' cannot contain negative values."

// Validate enforces the non-negative units and price invariant.
func Validate(ds *Dataset) error {
	for _, r := range ds.Records {
		if r.UnitsSold < 0 || r.Price.IsNegative() {
			return &ValidationError{Msg: negativeValuesMsg}
		}
	}
	return nil
}

// Ingest stores data under key and then validates it. On any validation failure the
// just written content is deleted and the returned error matches ErrValidation; a failed
// delete is joined into it.
// On success it returns the distinct product ids and the parsed dataset.
func Ingest(ctx context.Context, s store.Store, key string, data []byte) ([]string, *Dataset, error) {
	if err := s.Save(ctx, key, data); err != nil {
		return nil, nil, err
	}
	ds, err := Parse(data)
	if err == nil {
		err = Validate(ds)
	}
	if err != nil {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			err = &ValidationError{Msg: err.Error()}
		}
		if derr := s.Delete(ctx, key); derr != nil && !errors.Is(derr, store.ErrNotFound) {
			err = errors.Join(err, fmt.Errorf("remove rejected %s: %w", key, derr))
		}
		return nil, nil, err
	}
	return ds.Products(), ds, nil
}

// Load reads and parses a stored dataset. A missing key returns store.ErrNotFound.
func Load(ctx context.Context, s store.Store, key string) (*Dataset, error) {
	b, err := s.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}
