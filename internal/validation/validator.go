// Package validation provides input validation utilities for table
// operations: column existence, length consistency, positivity and range
// checks, composed through a common Validator interface.
package validation

import (
	"fmt"
	"math"

	"github.com/paveg/tablescope/internal/errors"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// ColumnProvider interface for types that provide column information
type ColumnProvider interface {
	HasColumn(name string) bool
	Columns() []string
	Len() int
	Width() int
}

// ColumnValidator validates column existence
type ColumnValidator struct {
	t       ColumnProvider
	columns []string
	op      string
}

// NewColumnValidator creates a validator for column operations
func NewColumnValidator(t ColumnProvider, op string, columns ...string) *ColumnValidator {
	return &ColumnValidator{
		t:       t,
		columns: columns,
		op:      op,
	}
}

// Validate checks that every column exists in the table
func (v *ColumnValidator) Validate() error {
	for _, column := range v.columns {
		if !v.t.HasColumn(column) {
			return errors.NewColumnNotFoundErrorWithSuggestions(v.op, column, v.t.Columns())
		}
	}
	return nil
}

// LengthValidator validates array length consistency
type LengthValidator struct {
	expected int
	actual   int
	op       string
	context  string
}

// NewLengthValidator creates a validator for length consistency
func NewLengthValidator(expected, actual int, op, context string) *LengthValidator {
	return &LengthValidator{
		expected: expected,
		actual:   actual,
		op:       op,
		context:  context,
	}
}

// Validate checks if lengths match
func (v *LengthValidator) Validate() error {
	if v.expected != v.actual {
		message := fmt.Sprintf("%s: expected length %d, got %d", v.context, v.expected, v.actual)
		return errors.NewValidationError(v.op, "", message)
	}
	return nil
}

// PositiveValidator checks that a parameter is a finite number > 0.
// Failures are reported with the given error kind.
type PositiveValidator struct {
	value float64
	name  string
	op    string
	kind  errors.Kind
}

// NewPositiveValidator creates a validator for a strictly positive parameter
func NewPositiveValidator(value float64, name, op string, kind errors.Kind) *PositiveValidator {
	return &PositiveValidator{value: value, name: name, op: op, kind: kind}
}

// Validate checks value > 0 and finite
func (v *PositiveValidator) Validate() error {
	if math.IsNaN(v.value) || math.IsInf(v.value, 0) || v.value <= 0 {
		return &errors.Error{
			Op:      v.op,
			Message: fmt.Sprintf("%s must be a positive finite number, got %v", v.name, v.value),
			Kind:    v.kind,
		}
	}
	return nil
}

// RangeValidator checks that [lo, hi] is a finite, non-inverted interval.
type RangeValidator struct {
	lo, hi float64
	op     string
}

// NewRangeValidator creates a validator for an evaluation range
func NewRangeValidator(lo, hi float64, op string) *RangeValidator {
	return &RangeValidator{lo: lo, hi: hi, op: op}
}

// Validate checks lo <= hi with both ends finite
func (v *RangeValidator) Validate() error {
	for _, x := range []float64{v.lo, v.hi} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return errors.NewInvalidInputError(v.op, fmt.Sprintf("range bounds must be finite, got [%v, %v]", v.lo, v.hi))
		}
	}
	if v.hi < v.lo {
		return errors.NewInvalidInputError(v.op, fmt.Sprintf("max %v is less than min %v", v.hi, v.lo))
	}
	return nil
}

// NonEmptyValidator checks that a sample has at least one element.
type NonEmptyValidator struct {
	n  int
	op string
}

// NewNonEmptyValidator creates a validator for sample size
func NewNonEmptyValidator(n int, op string) *NonEmptyValidator {
	return &NonEmptyValidator{n: n, op: op}
}

// Validate checks n > 0
func (v *NonEmptyValidator) Validate() error {
	if v.n == 0 {
		return errors.NewInvalidInputError(v.op, "sample is empty")
	}
	return nil
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Convenience validation functions

// ValidateColumns is a convenience function for column validation
func ValidateColumns(t ColumnProvider, op string, columns ...string) error {
	return NewColumnValidator(t, op, columns...).Validate()
}

// ValidateLength is a convenience function for length validation
func ValidateLength(expected, actual int, op, context string) error {
	return NewLengthValidator(expected, actual, op, context).Validate()
}

// ValidateRange is a convenience function for range validation
func ValidateRange(lo, hi float64, op string) error {
	return NewRangeValidator(lo, hi, op).Validate()
}
