// Package repository is the SQL query layer over the observation archive and
// its per-day summary tables. All reads are single SELECTs; isolation is the
// database's concern, the repository holds no locks of its own.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tkeffer/weewx-xaggs/internal/modules/archive/types"
)

// Dialect selects the SQL flavor for the handful of expressions that differ
// between the supported engines.
type Dialect string

const (
	DialectSQLite Dialect = "sqlite3"
	DialectMySQL  Dialect = "mysql"
)

// DayStat selects which per-day statistic a calendar-day query aggregates.
type DayStat int

const (
	StatMin DayStat = iota
	StatMax
	StatMinAvg
	StatMaxAvg
)

// Comparison is one of the four supported threshold comparators.
type Comparison string

const (
	CmpGE Comparison = ">="
	CmpGT Comparison = ">"
	CmpLE Comparison = "<="
	CmpLT Comparison = "<"
)

// ErrUnknownObservation is returned for observation types outside the
// archive schema.
var ErrUnknownObservation = errors.New("unknown observation type")

// ErrMixedUnitSystems is returned when the archive contains rows in more
// than one unit system.
var ErrMixedUnitSystems = errors.New("archive contains mixed unit systems")

// ArchiveRepository reads (and, for ingest, writes) the observation archive.
type ArchiveRepository interface {
	// UnitSystem returns the unit system the archive is stored in. ok is
	// false when the archive holds no rows yet.
	UnitSystem() (system int, ok bool, err error)
	// FirstTimestamp and LastTimestamp bound the archive contents.
	FirstTimestamp() (ts int64, ok bool, err error)
	LastTimestamp() (ts int64, ok bool, err error)

	// CalendarDayScalar aggregates a per-day statistic over every archive
	// day, in any year, whose local calendar day matches month/day. ok is
	// false when no such day exists.
	CalendarDayScalar(obs string, month, day int, stat DayStat) (value float64, ok bool, err error)
	// CalendarDayExtremumTime returns the timestamp of the pooled minimum
	// (or maximum) over the matching days. Ties across years resolve to
	// the earliest year.
	CalendarDayExtremumTime(obs string, month, day int, max bool) (ts int64, ok bool, err error)
	// CalendarDayWeightedSum returns the weighted-sum accumulators over
	// the matching days, for computing the pooled average.
	CalendarDayWeightedSum(obs string, month, day int) (wsum, sumtime float64, ok bool, err error)

	// CountDaysWhereAvg counts days in [start, stop) whose daily average
	// satisfies the comparison. Days with no records are excluded.
	CountDaysWhereAvg(obs string, start, stop int64, cmp Comparison, threshold float64) (int, error)

	// InsertRecord appends an archive row and folds it into the day
	// summary of every observation it carries.
	InsertRecord(rec types.Record) error
}

type repositoryImpl struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

// NewRepository returns an ArchiveRepository over db. table is the archive
// table name; day summaries live in <table>_day_<obs>.
func NewRepository(db *sql.DB, dialect Dialect, table string) ArchiveRepository {
	return &repositoryImpl{db: db, dialect: dialect, table: table}
}

func (r *repositoryImpl) dayTable(obs string) (string, error) {
	if !types.KnownObservation(obs) {
		return "", fmt.Errorf("%w: %q", ErrUnknownObservation, obs)
	}
	return fmt.Sprintf("%s_day_%s", r.table, obs), nil
}

// monthDayPredicate returns the WHERE clause matching rows whose local
// calendar day equals the supplied month/day, plus its argument.
func (r *repositoryImpl) monthDayPredicate(month, day int) (clause string, arg string) {
	arg = fmt.Sprintf("%02d-%02d", month, day)
	switch r.dialect {
	case DialectMySQL:
		return "DATE_FORMAT(FROM_UNIXTIME(dateTime), '%m-%d') = ?", arg
	default:
		return "STRFTIME('%m-%d', dateTime, 'unixepoch', 'localtime') = ?", arg
	}
}

func (r *repositoryImpl) UnitSystem() (int, bool, error) {
	var lo, hi sql.NullInt64
	err := r.db.QueryRow("SELECT MIN(usUnits), MAX(usUnits) FROM " + r.table).Scan(&lo, &hi)
	if err != nil {
		return 0, false, fmt.Errorf("query unit system: %w", err)
	}
	if !lo.Valid {
		return 0, false, nil
	}
	if lo.Int64 != hi.Int64 {
		return 0, false, ErrMixedUnitSystems
	}
	return int(lo.Int64), true, nil
}

func (r *repositoryImpl) FirstTimestamp() (int64, bool, error) {
	return r.boundTimestamp("MIN")
}

func (r *repositoryImpl) LastTimestamp() (int64, bool, error) {
	return r.boundTimestamp("MAX")
}

func (r *repositoryImpl) boundTimestamp(fn string) (int64, bool, error) {
	var ts sql.NullInt64
	err := r.db.QueryRow("SELECT " + fn + "(dateTime) FROM " + r.table).Scan(&ts)
	if err != nil {
		return 0, false, fmt.Errorf("query %s timestamp: %w", fn, err)
	}
	if !ts.Valid {
		return 0, false, nil
	}
	return ts.Int64, true, nil
}

var dayStatExprs = map[DayStat]string{
	StatMin:    "MIN(`min`)",
	StatMax:    "MAX(`max`)",
	StatMinAvg: "AVG(`min`)",
	StatMaxAvg: "AVG(`max`)",
}

func (r *repositoryImpl) CalendarDayScalar(obs string, month, day int, stat DayStat) (float64, bool, error) {
	table, err := r.dayTable(obs)
	if err != nil {
		return 0, false, err
	}
	expr, ok := dayStatExprs[stat]
	if !ok {
		return 0, false, fmt.Errorf("unknown day statistic %d", stat)
	}
	pred, arg := r.monthDayPredicate(month, day)
	var v sql.NullFloat64
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s", expr, table, pred)
	if err := r.db.QueryRow(q, arg).Scan(&v); err != nil {
		return 0, false, fmt.Errorf("query %s of %s: %w", expr, obs, err)
	}
	if !v.Valid {
		return 0, false, nil
	}
	return v.Float64, true, nil
}

func (r *repositoryImpl) CalendarDayExtremumTime(obs string, month, day int, max bool) (int64, bool, error) {
	table, err := r.dayTable(obs)
	if err != nil {
		return 0, false, err
	}
	// Ordering by the extremum column and then dateTime makes cross-year
	// ties land on the earliest year, deterministically.
	col, order := "mintime", "`min` ASC"
	if max {
		col, order = "maxtime", "`max` DESC"
	}
	pred, arg := r.monthDayPredicate(month, day)
	q := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s AND %s IS NOT NULL ORDER BY %s, dateTime ASC LIMIT 1",
		col, table, pred, col, order,
	)
	var ts sql.NullInt64
	err = r.db.QueryRow(q, arg).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query %s of %s: %w", col, obs, err)
	}
	if !ts.Valid {
		return 0, false, nil
	}
	return ts.Int64, true, nil
}

func (r *repositoryImpl) CalendarDayWeightedSum(obs string, month, day int) (float64, float64, bool, error) {
	table, err := r.dayTable(obs)
	if err != nil {
		return 0, 0, false, err
	}
	pred, arg := r.monthDayPredicate(month, day)
	q := fmt.Sprintf("SELECT SUM(wsum), SUM(sumtime) FROM %s WHERE %s", table, pred)
	var wsum, sumtime sql.NullFloat64
	if err := r.db.QueryRow(q, arg).Scan(&wsum, &sumtime); err != nil {
		return 0, 0, false, fmt.Errorf("query weighted sum of %s: %w", obs, err)
	}
	if !wsum.Valid || !sumtime.Valid {
		return 0, 0, false, nil
	}
	return wsum.Float64, sumtime.Float64, true, nil
}

func (r *repositoryImpl) CountDaysWhereAvg(obs string, start, stop int64, cmp Comparison, threshold float64) (int, error) {
	table, err := r.dayTable(obs)
	if err != nil {
		return 0, err
	}
	switch cmp {
	case CmpGE, CmpGT, CmpLE, CmpLT:
	default:
		return 0, fmt.Errorf("unknown comparison %q", cmp)
	}
	// sumtime > 0 drops days with no records: an empty day is neither
	// above nor below the threshold.
	q := fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE dateTime >= ? AND dateTime < ? AND sumtime > 0 AND (wsum / sumtime) %s ?",
		table, cmp,
	)
	var n int
	if err := r.db.QueryRow(q, start, stop, threshold).Scan(&n); err != nil {
		return 0, fmt.Errorf("count days for %s: %w", obs, err)
	}
	return n, nil
}

// InsertRecord appends rec to the archive and folds each observation value
// into that observation's day summary for the record's local calendar day.
// The archive row and the summary updates commit in one transaction.
func (r *repositoryImpl) InsertRecord(rec types.Record) error {
	if rec.DateTime <= 0 {
		return fmt.Errorf("record dateTime must be positive, got %d", rec.DateTime)
	}
	if rec.Interval <= 0 {
		return fmt.Errorf("record interval must be positive, got %d", rec.Interval)
	}
	for obs := range rec.Observations {
		if !types.KnownObservation(obs) {
			return fmt.Errorf("%w: %q", ErrUnknownObservation, obs)
		}
	}
	system, ok, err := r.UnitSystem()
	if err != nil {
		return err
	}
	if ok && system != rec.UnitSystem {
		return fmt.Errorf("%w: archive is %d, record is %d", ErrMixedUnitSystems, system, rec.UnitSystem)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert record: %w", err)
	}
	defer tx.Rollback()

	if err := insertArchiveRow(tx, r.table, rec); err != nil {
		return err
	}
	midnight := localMidnight(rec.DateTime)
	for obs, value := range rec.Observations {
		table, err := r.dayTable(obs)
		if err != nil {
			return err
		}
		if err := updateDaySummary(tx, table, midnight, rec.DateTime, value, rec.Interval); err != nil {
			return fmt.Errorf("update day summary for %s: %w", obs, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert record: %w", err)
	}
	return nil
}

func insertArchiveRow(tx *sql.Tx, table string, rec types.Record) error {
	cols := "dateTime, usUnits, `interval`"
	placeholders := "?, ?, ?"
	args := []any{rec.DateTime, rec.UnitSystem, rec.Interval}
	for _, obs := range types.Observations {
		if v, ok := rec.Observations[obs]; ok {
			cols += ", " + obs
			placeholders += ", ?"
			args = append(args, v)
		}
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, cols, placeholders)
	if _, err := tx.Exec(q, args...); err != nil {
		return fmt.Errorf("insert archive row: %w", err)
	}
	return nil
}

// updateDaySummary folds one observation value into its day-summary row.
// Extremum timestamps are replaced only on strict improvement, so the first
// record to reach an extreme value within a day keeps the timestamp.
func updateDaySummary(tx *sql.Tx, table string, midnight, ts int64, value float64, interval int) error {
	var s types.DaySummary
	q := fmt.Sprintf(
		"SELECT `min`, mintime, `max`, maxtime, `sum`, `count`, wsum, sumtime FROM %s WHERE dateTime = ?",
		table,
	)
	err := tx.QueryRow(q, midnight).Scan(
		&s.Min, &s.MinTime, &s.Max, &s.MaxTime, &s.Sum, &s.Count, &s.WSum, &s.SumTime,
	)
	if errors.Is(err, sql.ErrNoRows) {
		ins := fmt.Sprintf(
			"INSERT INTO %s (dateTime, `min`, mintime, `max`, maxtime, `sum`, `count`, wsum, sumtime) "+
				"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			table,
		)
		_, err = tx.Exec(ins, midnight, value, ts, value, ts,
			value, 1, value*float64(interval), interval)
		return err
	}
	if err != nil {
		return err
	}

	if value < s.Min {
		s.Min, s.MinTime = value, ts
	}
	if value > s.Max {
		s.Max, s.MaxTime = value, ts
	}
	s.Sum += value
	s.Count++
	s.WSum += value * float64(interval)
	s.SumTime += int64(interval)

	upd := fmt.Sprintf(
		"UPDATE %s SET `min` = ?, mintime = ?, `max` = ?, maxtime = ?, `sum` = ?, `count` = ?, wsum = ?, sumtime = ? "+
			"WHERE dateTime = ?",
		table,
	)
	_, err = tx.Exec(upd, s.Min, s.MinTime, s.Max, s.MaxTime, s.Sum, s.Count, s.WSum, s.SumTime, midnight)
	return err
}

// localMidnight returns the start of the local calendar day containing ts.
// Local time is the process time zone, matching the 'localtime' modifier the
// sqlite calendar-day queries use.
func localMidnight(ts int64) int64 {
	t := time.Unix(ts, 0).Local()
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local).Unix()
}
