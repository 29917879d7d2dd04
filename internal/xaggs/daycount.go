package xaggs

import (
	"github.com/tkeffer/weewx-xaggs/internal/modules/archive/repository"
	"github.com/tkeffer/weewx-xaggs/internal/units"
)

// AvgCount counts the calendar days within a span whose daily average of an
// observation type satisfies a threshold comparison. Days with no records
// are excluded from the count entirely; they are neither above nor below.
type AvgCount struct {
	repo repository.ArchiveRepository
}

// NewAvgCount returns an AvgCount aggregator over repo.
func NewAvgCount(repo repository.ArchiveRepository) *AvgCount {
	return &AvgCount{repo: repo}
}

// avgComparisons maps the four claimed aggregate names to their comparators.
var avgComparisons = map[string]repository.Comparison{
	"avg_ge": repository.CmpGE,
	"avg_gt": repository.CmpGT,
	"avg_le": repository.CmpLE,
	"avg_lt": repository.CmpLT,
}

// GetAggregate implements Aggregator. The threshold is converted into the
// archive's native unit for the observation's group before comparison; a
// threshold from a different group fails with IncompatibleUnitsError.
func (a *AvgCount) GetAggregate(obsType string, span Span, aggType string, opt *Options) (units.Value, error) {
	cmp, ok := avgComparisons[aggType]
	if !ok {
		return units.Value{}, &UnknownAggregateError{Name: aggType}
	}
	group, ok := units.ObsGroup(obsType)
	if !ok {
		return units.Value{}, &UnknownTypeError{ObsType: obsType}
	}
	if opt == nil || opt.Threshold == nil || opt.Threshold.Kind != units.KindNumeric {
		return units.Value{}, &MissingArgumentError{AggType: aggType}
	}

	thresholdGroup, ok := units.UnitGroup(opt.Threshold.Unit)
	if !ok {
		return units.Value{}, &units.UnknownConversionError{Unit: opt.Threshold.Unit}
	}
	if thresholdGroup != group {
		return units.Value{}, &units.IncompatibleUnitsError{Unit: opt.Threshold.Unit, Group: thresholdGroup, WantGroup: group}
	}

	system, ok, err := a.repo.UnitSystem()
	if err != nil {
		return units.Value{}, err
	}
	if !ok {
		// Empty archive: no days exist, so no day satisfies the
		// comparison.
		return units.Numeric(0, units.Count, units.GroupCount), nil
	}

	threshold, err := units.ConvertStd(*opt.Threshold, units.System(system))
	if err != nil {
		return units.Value{}, err
	}

	n, err := a.repo.CountDaysWhereAvg(obsType, span.Start, span.Stop, cmp, threshold.Num)
	if err != nil {
		return units.Value{}, mapObsError(obsType, err)
	}
	return units.Numeric(float64(n), units.Count, units.GroupCount), nil
}
