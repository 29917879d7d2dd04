// Package units models unit groups (categories of physical quantity), unit
// systems, and conversions between units of the same group. Conversions never
// cross group boundaries: asking to convert a pressure into a temperature is
// an IncompatibleUnitsError, not a zero.
package units

import "fmt"

// Group is a category of physical quantity. A unit belongs to exactly one
// group, and conversions are only defined within a group.
type Group string

const (
	GroupTemperature Group = "group_temperature"
	GroupPressure    Group = "group_pressure"
	GroupSpeed       Group = "group_speed"
	GroupRain        Group = "group_rain"
	GroupPercent     Group = "group_percent"
	GroupTime        Group = "group_time"
	GroupCount       Group = "group_count"
)

// Unit names. These follow the station ecosystem's conventional spellings so
// archive contents and API payloads stay interoperable.
const (
	DegreeC        = "degree_C"
	DegreeF        = "degree_F"
	Kelvin         = "kelvin"
	HPa            = "hPa"
	Mbar           = "mbar"
	InHg           = "inHg"
	MmHg           = "mmHg"
	MeterPerSecond = "meter_per_second"
	KmPerHour      = "km_per_hour"
	MilePerHour    = "mile_per_hour"
	Knot           = "knot"
	Mm             = "mm"
	Cm             = "cm"
	Inch           = "inch"
	Percent        = "percent"
	UnixEpoch      = "unix_epoch"
	Count          = "count"
)

// System identifies the unit system an archive is stored in.
type System int

const (
	US       System = 1
	Metric   System = 16
	MetricWX System = 17
)

// Valid reports whether s is one of the recognized unit systems.
func (s System) Valid() bool {
	switch s {
	case US, Metric, MetricWX:
		return true
	}
	return false
}

func (s System) String() string {
	switch s {
	case US:
		return "US"
	case Metric:
		return "METRIC"
	case MetricWX:
		return "METRICWX"
	}
	return fmt.Sprintf("System(%d)", int(s))
}

// stdUnits maps system → group → the unit that group is stored in under that
// system.
var stdUnits = map[System]map[Group]string{
	US: {
		GroupTemperature: DegreeF,
		GroupPressure:    InHg,
		GroupSpeed:       MilePerHour,
		GroupRain:        Inch,
		GroupPercent:     Percent,
		GroupTime:        UnixEpoch,
		GroupCount:       Count,
	},
	Metric: {
		GroupTemperature: DegreeC,
		GroupPressure:    HPa,
		GroupSpeed:       KmPerHour,
		GroupRain:        Cm,
		GroupPercent:     Percent,
		GroupTime:        UnixEpoch,
		GroupCount:       Count,
	},
	MetricWX: {
		GroupTemperature: DegreeC,
		GroupPressure:    HPa,
		GroupSpeed:       MeterPerSecond,
		GroupRain:        Mm,
		GroupPercent:     Percent,
		GroupTime:        UnixEpoch,
		GroupCount:       Count,
	},
}

// obsGroups maps observation types in the archive schema to their unit group.
var obsGroups = map[string]Group{
	"outTemp":     GroupTemperature,
	"inTemp":      GroupTemperature,
	"dewpoint":    GroupTemperature,
	"barometer":   GroupPressure,
	"pressure":    GroupPressure,
	"windSpeed":   GroupSpeed,
	"windGust":    GroupSpeed,
	"rain":        GroupRain,
	"outHumidity": GroupPercent,
	"inHumidity":  GroupPercent,
}

// aggGroups overrides the result group for aggregates whose result is not in
// the observation's own group: times of extrema are timestamps, day counts
// are dimensionless.
var aggGroups = map[string]Group{
	"historical_mintime": GroupTime,
	"historical_maxtime": GroupTime,
	"avg_ge":             GroupCount,
	"avg_gt":             GroupCount,
	"avg_le":             GroupCount,
	"avg_lt":             GroupCount,
}

// unitGroups maps every known unit to its group.
var unitGroups = map[string]Group{
	DegreeC:        GroupTemperature,
	DegreeF:        GroupTemperature,
	Kelvin:         GroupTemperature,
	HPa:            GroupPressure,
	Mbar:           GroupPressure,
	InHg:           GroupPressure,
	MmHg:           GroupPressure,
	MeterPerSecond: GroupSpeed,
	KmPerHour:      GroupSpeed,
	MilePerHour:    GroupSpeed,
	Knot:           GroupSpeed,
	Mm:             GroupRain,
	Cm:             GroupRain,
	Inch:           GroupRain,
	Percent:        GroupPercent,
	UnixEpoch:      GroupTime,
	Count:          GroupCount,
}

// ObsGroup returns the unit group an observation type belongs to.
func ObsGroup(obsType string) (Group, bool) {
	g, ok := obsGroups[obsType]
	return g, ok
}

// UnitGroup returns the group a unit belongs to.
func UnitGroup(unit string) (Group, bool) {
	g, ok := unitGroups[unit]
	return g, ok
}

// StdUnit returns the unit an observation of the given group is stored in
// under the given unit system.
func StdUnit(system System, group Group) (string, bool) {
	m, ok := stdUnits[system]
	if !ok {
		return "", false
	}
	u, ok := m[group]
	return u, ok
}

// ResultUnit returns the unit and group an aggregate result carries: the
// aggregate-specific override if one exists, otherwise the standard unit of
// the observation's own group.
func ResultUnit(system System, obsType, aggType string) (string, Group, error) {
	if g, ok := aggGroups[aggType]; ok {
		u, ok := stdUnits[system][g]
		if !ok {
			return "", "", fmt.Errorf("no standard unit for %s in %s", g, system)
		}
		return u, g, nil
	}
	g, ok := obsGroups[obsType]
	if !ok {
		return "", "", fmt.Errorf("unknown observation type %q", obsType)
	}
	u, ok := stdUnits[system][g]
	if !ok {
		return "", "", fmt.Errorf("no standard unit for %s in %s", g, system)
	}
	return u, g, nil
}
