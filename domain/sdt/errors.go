package sdt

import (
	"errors"
	"fmt"
)

// Construction errors. Every failure returned by New, Add and Scale wraps one of these.
var (
	ErrInvalidTrialCount = errors.New("invalid trial count")
	ErrDegenerateRate    = errors.New("degenerate rate")
)

var errNothingToPool = fmt.Errorf("%w: no blocks to pool", ErrDegenerateRate)

func newInvalidTrialCountError(field string, value float64) error {
	return fmt.Errorf("%w: %s must be a finite non-negative number, got %v", ErrInvalidTrialCount, field, value)
}

func newDegenerateRateError(rate string, numerator, other string) error {
	return fmt.Errorf("%w: %s is undefined because %s + %s == 0", ErrDegenerateRate, rate, numerator, other)
}

// IsInvalidTrialCount reports whether err was caused by a negative or non-numeric count.
func IsInvalidTrialCount(err error) bool {
	return errors.Is(err, ErrInvalidTrialCount)
}

// IsDegenerateRate reports whether err was caused by a zero rate denominator.
func IsDegenerateRate(err error) bool {
	return errors.Is(err, ErrDegenerateRate)
}
