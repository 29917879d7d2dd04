package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/tkeffer/weewx-xaggs/internal/units"
	"github.com/tkeffer/weewx-xaggs/internal/xaggs"
)

const dateLayout = "2006-01-02"

// parseSpanQuery builds the aggregation span from the request. A single
// date=YYYY-MM-DD selects that local calendar day; otherwise start= and
// end= give a half-open [start, end) range of local midnights.
func parseSpanQuery(r *http.Request) (xaggs.Span, error) {
	q := r.URL.Query()

	if s := q.Get("date"); s != "" {
		day, err := time.ParseInLocation(dateLayout, s, time.Local)
		if err != nil {
			return xaggs.Span{}, errors.New("invalid 'date' (expected YYYY-MM-DD)")
		}
		return xaggs.Span{
			Start: day.Unix(),
			Stop:  day.AddDate(0, 0, 1).Unix(),
		}, nil
	}

	startStr, endStr := q.Get("start"), q.Get("end")
	if startStr == "" || endStr == "" {
		return xaggs.Span{}, errors.New("missing 'date' or 'start'/'end'")
	}
	start, err := time.ParseInLocation(dateLayout, startStr, time.Local)
	if err != nil {
		return xaggs.Span{}, errors.New("invalid 'start' (expected YYYY-MM-DD)")
	}
	end, err := time.ParseInLocation(dateLayout, endStr, time.Local)
	if err != nil {
		return xaggs.Span{}, errors.New("invalid 'end' (expected YYYY-MM-DD)")
	}
	if !start.Before(end) {
		return xaggs.Span{}, errors.New("'start' must be before 'end'")
	}
	return xaggs.Span{Start: start.Unix(), Stop: end.Unix()}, nil
}

// parseOptionsQuery builds aggregation options from threshold= and unit=.
// Both or neither must be present.
func parseOptionsQuery(r *http.Request) (*xaggs.Options, error) {
	q := r.URL.Query()

	thresholdStr, unit := q.Get("threshold"), q.Get("unit")
	if thresholdStr == "" && unit == "" {
		return nil, nil
	}
	if thresholdStr == "" || unit == "" {
		return nil, errors.New("'threshold' and 'unit' must be given together")
	}

	n, err := strconv.ParseFloat(thresholdStr, 64)
	if err != nil {
		return nil, errors.New("invalid 'threshold' (expected number)")
	}
	group, ok := units.UnitGroup(unit)
	if !ok {
		return nil, fmt.Errorf("unknown unit %q", unit)
	}

	v := units.Numeric(n, unit, group)
	return &xaggs.Options{Threshold: &v}, nil
}
