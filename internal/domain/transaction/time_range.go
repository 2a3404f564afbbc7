package transaction

import "time"

// TimeRange filters transactions by occurred_at. Both bounds are inclusive
// when present; a nil bound is open.
type TimeRange struct {
	from *time.Time
	to   *time.Time
}

// Unbounded matches every instant
func Unbounded() TimeRange {
	return TimeRange{}
}

// AtLeast matches instants at or after from
func AtLeast(from time.Time) TimeRange {
	return TimeRange{from: &from}
}

// AtMost matches instants at or before to
func AtMost(to time.Time) TimeRange {
	return TimeRange{to: &to}
}

// Closed matches instants between from and to, both included.
// Closed(t, t) matches exactly t.
func Closed(from, to time.Time) TimeRange {
	return TimeRange{from: &from, to: &to}
}

// RangeFromBounds builds a range from optional query bounds and rejects
// inverted or equal bounds with ErrInvalidRange
func RangeFromBounds(from, to *time.Time) (TimeRange, error) {
	switch {
	case from != nil && to != nil:
		if !from.Before(*to) {
			return TimeRange{}, ErrInvalidRange{From: *from, To: *to}
		}
		return Closed(*from, *to), nil
	case from != nil:
		return AtLeast(*from), nil
	case to != nil:
		return AtMost(*to), nil
	default:
		return Unbounded(), nil
	}
}

// From returns the lower bound, if any
func (r TimeRange) From() (time.Time, bool) {
	if r.from == nil {
		return time.Time{}, false
	}
	return *r.from, true
}

// To returns the upper bound, if any
func (r TimeRange) To() (time.Time, bool) {
	if r.to == nil {
		return time.Time{}, false
	}
	return *r.to, true
}

// Contains reports whether t lies within the range
func (r TimeRange) Contains(t time.Time) bool {
	if r.from != nil && t.Before(*r.from) {
		return false
	}
	if r.to != nil && t.After(*r.to) {
		return false
	}
	return true
}
