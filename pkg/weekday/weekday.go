// Package weekday converts between the calendar's native weekday numbering
// (time.Weekday, Sunday=0) and the stored availability numbering (Monday=0).
//
// Every place that derives a weekday for availability rules must go through
// this package.
package weekday

import (
	"errors"
	"time"
)

// Internal is a weekday in the stored convention: 0=Monday .. 6=Sunday.
type Internal int

const (
	Monday Internal = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var ErrOutOfRange = errors.New("weekday must be between 0 (Monday) and 6 (Sunday)")

// FromNative maps a Sunday=0 weekday to the Monday=0 convention.
func FromNative(d time.Weekday) Internal {
	if d == time.Sunday {
		return Sunday
	}
	return Internal(d - 1)
}

// ToNative maps a Monday=0 weekday back to time.Weekday.
func ToNative(w Internal) time.Weekday {
	if w == Sunday {
		return time.Sunday
	}
	return time.Weekday(w + 1)
}

// Of returns the stored weekday of t in t's location.
func Of(t time.Time) Internal {
	return FromNative(t.Weekday())
}

// Valid reports whether w is within 0..6.
func (w Internal) Valid() bool {
	return w >= Monday && w <= Sunday
}

// Parse validates a raw integer weekday.
func Parse(n int) (Internal, error) {
	w := Internal(n)
	if !w.Valid() {
		return 0, ErrOutOfRange
	}
	return w, nil
}

func (w Internal) String() string {
	if !w.Valid() {
		return "invalid"
	}
	return ToNative(w).String()
}
