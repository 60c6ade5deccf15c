// Package clock provides an injectable time source.
// Ledger cutoffs and session timestamps must be deterministic in tests,
// so services never call time.Now directly.
package clock

import "time"

// Clock is the time source used by domain services.
type Clock interface {
	Now() time.Time
}

// System returns wall-clock time in UTC.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed always returns the same instant. For tests.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }

// NewFixed creates a Fixed clock at t.
func NewFixed(t time.Time) Fixed { return Fixed{T: t} }
