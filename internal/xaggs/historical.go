package xaggs

import (
	"fmt"
	"time"

	"github.com/tkeffer/weewx-xaggs/internal/modules/archive/repository"
	"github.com/tkeffer/weewx-xaggs/internal/units"
)

// Historical computes statistics over the Calendar-Day Group: every archive
// day, in any year, sharing the requested date's month and day.
//
// Aggregates and their semantics:
//
//	historical_min, historical_max          pooled extremum across all years
//	historical_mintime, historical_maxtime  timestamp of the pooled extremum;
//	                                        ties across years resolve to the
//	                                        earliest year
//	historical_min_avg, historical_max_avg  per-year extremum first, then
//	                                        averaged across years
//	historical_avg                          weighted pooled average of all
//	                                        records in the group
type Historical struct {
	repo repository.ArchiveRepository
}

// NewHistorical returns a Historical aggregator over repo.
func NewHistorical(repo repository.ArchiveRepository) *Historical {
	return &Historical{repo: repo}
}

type historicalCalc func(h *Historical, obsType string, month, day int) (units.Value, bool, error)

func scalarCalc(stat repository.DayStat) historicalCalc {
	return func(h *Historical, obsType string, month, day int) (units.Value, bool, error) {
		v, ok, err := h.repo.CalendarDayScalar(obsType, month, day, stat)
		if err != nil || !ok {
			return units.Value{}, false, err
		}
		return units.Numeric(v, "", ""), true, nil
	}
}

func extremumTimeCalc(max bool) historicalCalc {
	return func(h *Historical, obsType string, month, day int) (units.Value, bool, error) {
		ts, ok, err := h.repo.CalendarDayExtremumTime(obsType, month, day, max)
		if err != nil || !ok {
			return units.Value{}, false, err
		}
		return units.Timestamp(ts), true, nil
	}
}

func weightedAvgCalc() historicalCalc {
	return func(h *Historical, obsType string, month, day int) (units.Value, bool, error) {
		wsum, sumtime, ok, err := h.repo.CalendarDayWeightedSum(obsType, month, day)
		if err != nil || !ok || sumtime == 0 {
			return units.Value{}, false, err
		}
		return units.Numeric(wsum/sumtime, "", ""), true, nil
	}
}

// historicalCalcs is the closed dispatch table from aggregate name to
// calculator. Names outside this table are not this aggregator's business.
var historicalCalcs = map[string]historicalCalc{
	"historical_min":     scalarCalc(repository.StatMin),
	"historical_max":     scalarCalc(repository.StatMax),
	"historical_min_avg": scalarCalc(repository.StatMinAvg),
	"historical_max_avg": scalarCalc(repository.StatMaxAvg),
	"historical_mintime": extremumTimeCalc(false),
	"historical_maxtime": extremumTimeCalc(true),
	"historical_avg":     weightedAvgCalc(),
}

// GetAggregate implements Aggregator.
func (h *Historical) GetAggregate(obsType string, span Span, aggType string, opt *Options) (units.Value, error) {
	calc, ok := historicalCalcs[aggType]
	if !ok {
		return units.Value{}, &UnknownAggregateError{Name: aggType}
	}
	if _, ok := units.ObsGroup(obsType); !ok {
		return units.Value{}, &UnknownTypeError{ObsType: obsType}
	}
	if opt != nil && opt.Threshold != nil {
		return units.Value{}, fmt.Errorf("%s takes no threshold argument", aggType)
	}

	month, day, err := h.calendarDay(obsType, span, aggType)
	if err != nil {
		return units.Value{}, err
	}

	system, ok, err := h.repo.UnitSystem()
	if err != nil {
		return units.Value{}, err
	}
	if !ok {
		return units.Value{}, &NoDataError{ObsType: obsType, Month: month, Day: day}
	}

	v, ok, err := calc(h, obsType, month, day)
	if err != nil {
		return units.Value{}, mapObsError(obsType, err)
	}
	if !ok {
		return units.Value{}, &NoDataError{ObsType: obsType, Month: month, Day: day}
	}

	if v.Kind == units.KindTimestamp {
		return v, nil
	}
	unit, group, err := units.ResultUnit(units.System(system), obsType, aggType)
	if err != nil {
		return units.Value{}, err
	}
	return units.Numeric(v.Num, unit, group), nil
}

// calendarDay validates that span denotes exactly one local calendar day and
// returns that day's month and day-of-month. Span boundaries must be local
// midnights, except that the archive's own first and last timestamps are
// accepted as ragged edges.
func (h *Historical) calendarDay(obsType string, span Span, aggType string) (month, day int, err error) {
	first, okFirst, err := h.repo.FirstTimestamp()
	if err != nil {
		return 0, 0, err
	}
	last, okLast, err := h.repo.LastTimestamp()
	if err != nil {
		return 0, 0, err
	}
	if !okFirst || !okLast {
		t := time.Unix(span.Start, 0).Local()
		return 0, 0, &NoDataError{ObsType: obsType, Month: int(t.Month()), Day: t.Day()}
	}

	if !isStartOfDay(span.Start) && span.Start != first {
		return 0, 0, &UnsupportedSpanError{AggType: aggType, Span: span}
	}
	if !isStartOfDay(span.Stop) && span.Stop != last {
		return 0, 0, &UnsupportedSpanError{AggType: aggType, Span: span}
	}

	startDay := dayOf(span.Start)
	stopDay := dayOf(span.Stop)
	if !startDay.AddDate(0, 0, 1).Equal(stopDay) {
		return 0, 0, &UnsupportedSpanError{AggType: aggType, Span: span}
	}
	return int(startDay.Month()), startDay.Day(), nil
}

// dayOf returns local midnight of the calendar day containing ts.
func dayOf(ts int64) time.Time {
	t := time.Unix(ts, 0).Local()
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func isStartOfDay(ts int64) bool {
	return dayOf(ts).Unix() == ts
}
