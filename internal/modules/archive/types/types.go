package types

// Observations lists the observation types the archive schema carries, one
// REAL column on the archive table and one archive_day_<obs> summary table
// each. Must stay in sync with the schema migrations.
var Observations = []string{
	"outTemp",
	"outHumidity",
	"barometer",
	"windSpeed",
	"rain",
}

// KnownObservation reports whether obs is part of the archive schema.
func KnownObservation(obs string) bool {
	for _, o := range Observations {
		if o == obs {
			return true
		}
	}
	return false
}

// Record is one archive row: a timestamped set of observation values plus
// the unit system they are expressed in and the interval they cover.
type Record struct {
	DateTime     int64              // unix epoch seconds
	UnitSystem   int                // units.System the values are stored in
	Interval     int                // seconds of observation this row covers
	Observations map[string]float64 // observation type -> value
}

// DaySummary is one row of an archive_day_<obs> table: running statistics
// for a single observation type over a single local calendar day.
type DaySummary struct {
	DateTime int64 // local midnight, unix epoch seconds
	Min      float64
	MinTime  int64
	Max      float64
	MaxTime  int64
	Sum      float64
	Count    int64
	WSum     float64 // sum of value*interval
	SumTime  int64   // sum of interval
}

// RecordMessage is the wire format for archive records arriving over MQTT.
type RecordMessage struct {
	DateTime     int64              `json:"dateTime"`
	UnitSystem   int                `json:"usUnits"`
	Interval     int                `json:"interval"`
	Observations map[string]float64 `json:"observations"`
}
