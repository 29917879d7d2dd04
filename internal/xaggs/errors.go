package xaggs

import "fmt"

// UnknownAggregateError means the aggregate name is not one this engine
// implements. It is the "not mine" signal: callers holding several
// aggregators fall through to the next one instead of failing the request.
type UnknownAggregateError struct {
	Name string
}

func (e *UnknownAggregateError) Error() string {
	return fmt.Sprintf("unknown aggregate %q", e.Name)
}

// UnknownTypeError means the observation type is not part of the archive
// schema.
type UnknownTypeError struct {
	ObsType string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown observation type %q", e.ObsType)
}

// UnsupportedSpanError means a historical aggregate was requested over a
// span that does not denote exactly one calendar day. This family only
// composes with single-day reporting contexts.
type UnsupportedSpanError struct {
	AggType string
	Span    Span
}

func (e *UnsupportedSpanError) Error() string {
	return fmt.Sprintf("%s requires a single-day span, got [%d, %d)", e.AggType, e.Span.Start, e.Span.Stop)
}

// MissingArgumentError means a threshold aggregate was requested without
// its threshold value.
type MissingArgumentError struct {
	AggType string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("%s requires a threshold argument", e.AggType)
}

// NoDataError means the archive holds no records for the requested calendar
// day in any year. It is an explicit failure: rendering must show "no
// value", never a fabricated zero or timestamp.
type NoDataError struct {
	ObsType string
	Month   int
	Day     int
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no archive data for %s on %02d-%02d", e.ObsType, e.Month, e.Day)
}
