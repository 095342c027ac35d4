package sales

import (
	"errors"
	"fmt"
)

// ErrValidation matches every upload rejection caused by the file's content.
var ErrValidation = errors.New("csv validation failed")

// ErrInvalidFileType is returned for filenames without a ".csv" suffix.
var ErrInvalidFileType = errors.New("invalid file type")

// ValidationError describes why a dataset was rejected.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// FormatError reports a cell that could not be parsed. Line is 1-based and counts the header.
type FormatError struct {
	Line   int
	Column string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: column %q: %v", e.Line, e.Column, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
