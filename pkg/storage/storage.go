package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/sw33tLie/dasha/pkg/astro"
	"github.com/sw33tLie/dasha/pkg/dasha"
	"github.com/sw33tLie/dasha/pkg/ephemeris"
)

// ErrNotFound is returned when no chart matches a name or id.
var ErrNotFound = errors.New("chart not found")

// ErrInvalidTrees is returned when SaveChart gets no tree at all or a tree
// built for another chart.
var ErrInvalidTrees = errors.New("invalid tree set")

// timeLayout is fixed-width so stored instants compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS charts (
  id          INTEGER PRIMARY KEY,
  name        TEXT NOT NULL UNIQUE,
  chart_id    TEXT NOT NULL,
  data        TEXT NOT NULL,
  created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_charts_chart_id ON charts(chart_id);
CREATE TABLE IF NOT EXISTS periods (
  id          INTEGER PRIMARY KEY,
  chart_name  TEXT NOT NULL,
  chart_id    TEXT NOT NULL,
  system      TEXT NOT NULL,
  track       TEXT NOT NULL,
  depth       INTEGER NOT NULL CHECK (depth BETWEEN 1 AND 5),
  seq         INTEGER NOT NULL,
  ruler       TEXT NOT NULL,
  start_at    TEXT NOT NULL,
  end_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_periods_chart ON periods(chart_name, system, seq);
CREATE TABLE IF NOT EXISTS chart_changes (
  id          INTEGER PRIMARY KEY,
  event_id    TEXT NOT NULL UNIQUE,
  occurred_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  chart_name  TEXT NOT NULL,
  chart_id    TEXT NOT NULL,
  change_type TEXT NOT NULL CHECK (change_type IN ('added','updated','removed'))
);
CREATE INDEX IF NOT EXISTS idx_changes_time ON chart_changes(occurred_at);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// SaveChart stores a chart profile and replaces its periods with those of
// the given trees in one transaction. Systems missing from trees failed to
// build and keep no rows. A profile whose birth data changed is recorded as
// updated and its old periods are dropped with it.
func (d *DB) SaveChart(ctx context.Context, c *astro.Chart, trees map[dasha.SystemID]*dasha.Tree) (res *SaveResult, err error) {
	if c.Name == "" {
		return nil, fmt.Errorf("chart name is required")
	}
	chartID := c.ID()
	var systems []dasha.SystemID
	for _, id := range dasha.Systems() {
		t, ok := trees[id]
		if !ok || t == nil {
			continue
		}
		if t.ChartID != chartID {
			return nil, fmt.Errorf("%w: %s tree belongs to chart %s", ErrInvalidTrees, id, t.ChartID)
		}
		systems = append(systems, id)
	}
	if len(systems) == 0 {
		return nil, fmt.Errorf("%w: no system built", ErrInvalidTrees)
	}
	data, err := ephemeris.MarshalChart(c)
	if err != nil {
		return nil, err
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res = &SaveResult{Change: Change{ID: ulid.Make().String(), OccurredAt: time.Now().UTC(), ChartName: c.Name, ChartID: chartID}}
	var prev string
	err = tx.QueryRowContext(ctx, "SELECT chart_id FROM charts WHERE name = ?", c.Name).Scan(&prev)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res.Change.ChangeType = "added"
		_, err = tx.ExecContext(ctx, "INSERT INTO charts(name, chart_id, data) VALUES(?,?,?)", c.Name, chartID, string(data))
	case err != nil:
		return nil, err
	default:
		res.Change.ChangeType = "updated"
		res.PreviousID = prev
		_, err = tx.ExecContext(ctx, "UPDATE charts SET chart_id = ?, data = ?, updated_at = CURRENT_TIMESTAMP WHERE name = ?", chartID, string(data), c.Name)
	}
	if err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM periods WHERE chart_name = ?", c.Name); err != nil {
		return nil, err
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO periods(chart_name, chart_id, system, track, depth, seq, ruler, start_at, end_at) VALUES(?,?,?,?,?,?,?,?,?)")
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	for _, id := range systems {
		seq := 0
		trees[id].Walk(func(track string, n *dasha.Node) bool {
			if err != nil {
				return false
			}
			_, err = stmt.ExecContext(ctx, c.Name, chartID, id.String(), track, n.Depth, seq, n.Ruler.String(),
				n.Start.UTC().Format(timeLayout), n.End.UTC().Format(timeLayout))
			seq++
			return err == nil
		})
		if err != nil {
			return nil, err
		}
		res.Periods += seq
		res.Systems = append(res.Systems, id.String())
	}

	if _, err = tx.ExecContext(ctx, "INSERT INTO chart_changes(event_id, chart_name, chart_id, change_type) VALUES(?,?,?,?)", res.Change.ID, c.Name, chartID, res.Change.ChangeType); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}

// GetChart looks a chart up by profile name or chart id.
func (d *DB) GetChart(ctx context.Context, key string) (*ChartRecord, error) {
	row := d.sql.QueryRowContext(ctx, "SELECT name, chart_id, data, created_at, updated_at FROM charts WHERE name = ? OR chart_id = ? ORDER BY name LIMIT 1", key, key)
	rec, err := scanChart(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return rec, err
}

// ListCharts returns every chart ordered by name.
func (d *DB) ListCharts(ctx context.Context) ([]ChartRecord, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT name, chart_id, data, created_at, updated_at FROM charts ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChartRecord
	for rows.Next() {
		rec, err := scanChart(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanChart(s scanner) (*ChartRecord, error) {
	var (
		rec                  ChartRecord
		data                 string
		createdAt, updatedAt string
	)
	if err := s.Scan(&rec.Name, &rec.ChartID, &data, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c, err := ephemeris.ParseChart([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("stored chart %s: %w", rec.Name, err)
	}
	rec.Chart = c
	rec.CreatedAt = parseTimestamp(createdAt)
	rec.UpdatedAt = parseTimestamp(updatedAt)
	return &rec, nil
}

// DeleteChart removes a chart and all its periods.
func (d *DB) DeleteChart(ctx context.Context, name string) (err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var chartID string
	if err = tx.QueryRowContext(ctx, "SELECT chart_id FROM charts WHERE name = ?", name).Scan(&chartID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM periods WHERE chart_name = ?", name); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM charts WHERE name = ?", name); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "INSERT INTO chart_changes(event_id, chart_name, chart_id, change_type) VALUES(?,?,?,'removed')", ulid.Make().String(), name, chartID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListOptions controls selection when listing periods.
type ListOptions struct {
	System   string
	Track    string
	MaxDepth int
	// Since drops periods that ended before it.
	Since time.Time
}

// ListPeriods returns the stored periods of a chart in tree order.
func (d *DB) ListPeriods(ctx context.Context, chartName string, opts ListOptions) ([]Period, error) {
	where := "WHERE chart_name = ?"
	args := []interface{}{chartName}
	if opts.System != "" {
		where += " AND system = ?"
		args = append(args, opts.System)
	}
	if opts.Track != "" {
		where += " AND track = ?"
		args = append(args, opts.Track)
	}
	if opts.MaxDepth > 0 {
		where += " AND depth <= ?"
		args = append(args, opts.MaxDepth)
	}
	if !opts.Since.IsZero() {
		where += " AND end_at > ?"
		args = append(args, opts.Since.UTC().Format(timeLayout))
	}

	q := "SELECT system, track, depth, seq, ruler, start_at, end_at FROM periods " + where + " ORDER BY system, seq"
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Period
	for rows.Next() {
		var p Period
		var start, end string
		if err := rows.Scan(&p.System, &p.Track, &p.Depth, &p.Seq, &p.Ruler, &start, &end); err != nil {
			return nil, err
		}
		if p.Start, err = time.Parse(timeLayout, start); err != nil {
			return nil, err
		}
		if p.End, err = time.Parse(timeLayout, end); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRecentChanges returns the most recent N profile changes.
func (d *DB) ListRecentChanges(ctx context.Context, limit int) ([]Change, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.QueryContext(ctx, "SELECT event_id, occurred_at, chart_name, chart_id, change_type FROM chart_changes ORDER BY occurred_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := []Change{}
	for rows.Next() {
		var c Change
		var occurredAt string
		if err := rows.Scan(&c.ID, &occurredAt, &c.ChartName, &c.ChartID, &c.ChangeType); err != nil {
			return nil, err
		}
		c.OccurredAt = parseTimestamp(occurredAt)
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return changes, nil
}

// GetStats counts stored charts and periods per system.
func (d *DB) GetStats(ctx context.Context) ([]SystemStats, error) {
	query := `
		SELECT
			system,
			COUNT(DISTINCT chart_name),
			COUNT(*)
		FROM
			periods
		GROUP BY
			system
		ORDER BY
			system;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []SystemStats
	for rows.Next() {
		var s SystemStats
		if err := rows.Scan(&s.System, &s.ChartCount, &s.PeriodCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

// parseTimestamp reads SQLite CURRENT_TIMESTAMP values.
// Try "2006-01-02 15:04:05" then RFC3339
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
