package units

import "fmt"

// Kind discriminates the two shapes an aggregate result can take.
type Kind int

const (
	// KindNumeric is a measurement: a float64 tagged with a unit and group.
	KindNumeric Kind = iota
	// KindTimestamp is a point in time, always unix epoch seconds.
	KindTimestamp
)

// Value is a tagged union: either a numeric measurement carrying its unit and
// unit group, or a raw timestamp. Values are passed and returned by value;
// there is no shared state behind one.
type Value struct {
	Kind  Kind
	Num   float64
	TS    int64
	Unit  string
	Group Group
}

// Numeric builds a measurement value.
func Numeric(v float64, unit string, group Group) Value {
	return Value{Kind: KindNumeric, Num: v, Unit: unit, Group: group}
}

// Timestamp builds a point-in-time value (unix epoch seconds).
func Timestamp(ts int64) Value {
	return Value{Kind: KindTimestamp, TS: ts, Unit: UnixEpoch, Group: GroupTime}
}

func (v Value) String() string {
	if v.Kind == KindTimestamp {
		return fmt.Sprintf("%d (%s)", v.TS, v.Unit)
	}
	return fmt.Sprintf("%g %s", v.Num, v.Unit)
}
