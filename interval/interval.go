package interval

// =============================================================================
// INTERVAL - Closed [From, To] day interval, optionally open-ended
// =============================================================================

// Interval is a closed interval of calendar days. A zero To means the
// interval has no upper bound (an active contract, a career entitlement).
type Interval struct {
	From Date
	To   Date
}

// Closed builds a bounded interval. From must not be after To.
func Closed(from, to Date) Interval {
	return Interval{From: from, To: to}
}

// OpenEnded builds an interval with no upper bound.
func OpenEnded(from Date) Interval {
	return Interval{From: from}
}

// Year covers one calendar year.
func Year(year int) Interval {
	return Closed(StartOfYear(year), EndOfYear(year))
}

func (i Interval) IsOpen() bool { return i.To.IsZero() }

func (i Interval) IsValid() bool {
	if i.From.IsZero() {
		return false
	}
	return i.IsOpen() || i.From.BeforeOrEqual(i.To)
}

// Contains reports whether the day falls inside the interval.
func (i Interval) Contains(d Date) bool {
	if d.Before(i.From) {
		return false
	}
	return i.IsOpen() || d.BeforeOrEqual(i.To)
}

// Overlaps reports whether the two intervals share at least one day.
func (i Interval) Overlaps(other Interval) bool {
	_, ok := i.Intersect(other)
	return ok
}

// Intersect returns the common part of two intervals.
func (i Interval) Intersect(other Interval) (Interval, bool) {
	from := Max(i.From, other.From)

	var to Date
	switch {
	case i.IsOpen() && other.IsOpen():
		return OpenEnded(from), true
	case i.IsOpen():
		to = other.To
	case other.IsOpen():
		to = i.To
	default:
		to = Min(i.To, other.To)
	}

	if from.After(to) {
		return Interval{}, false
	}
	return Closed(from, to), true
}

// DayCount returns the number of days in a bounded interval, inclusive of
// both ends. Open-ended intervals have no day count and return -1.
func (i Interval) DayCount() int {
	if i.IsOpen() {
		return -1
	}
	return DaysBetween(i.From, i.To) + 1
}

func (i Interval) Equal(other Interval) bool {
	return i.From.Equal(other.From) && i.To.Equal(other.To)
}

func (i Interval) String() string {
	if i.IsOpen() {
		return "[" + i.From.String() + ", +inf)"
	}
	return "[" + i.From.String() + ", " + i.To.String() + "]"
}

// Days lists every day of a bounded interval in ascending order.
func (i Interval) Days() []Date {
	if i.IsOpen() {
		return nil
	}
	var days []Date
	for d := i.From; d.BeforeOrEqual(i.To); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}
