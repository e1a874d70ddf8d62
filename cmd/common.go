package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sw33tLie/dasha/internal/config"
	"github.com/sw33tLie/dasha/internal/render"
	"github.com/sw33tLie/dasha/internal/utils"
	"github.com/sw33tLie/dasha/pkg/astro"
	"github.com/sw33tLie/dasha/pkg/dasha"
	"github.com/sw33tLie/dasha/pkg/engine"
	"github.com/sw33tLie/dasha/pkg/ephemeris"
	"github.com/sw33tLie/dasha/pkg/storage"
)

// app bundles what most commands need.
type app struct {
	cfg    config.Config
	db     *storage.DB
	engine *engine.Engine
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	path, err := utils.GetAbsDBPath(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("could not resolve db path: %w", err)
	}
	cfg.DBPath = path

	db, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB %s: %w", path, err)
	}
	eng, err := engine.New(engine.Config{
		Options:     cfg.Options(),
		Concurrency: cfg.Concurrency,
		Log:         utils.Log,
		OnSystemDone: func(chartID string, id dasha.SystemID, err error) {
			if err == nil {
				utils.Log.Debugf("Built %s for chart %s", id, chartID)
			}
		},
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &app{cfg: cfg, db: db, engine: eng}, nil
}

func (a *app) Close() error { return a.db.Close() }

// ephemeris returns the configured positions client, or nil.
func (a *app) ephemeris() *ephemeris.Client {
	if a.cfg.Ephemeris.URL == "" {
		return nil
	}
	return ephemeris.NewClient(a.cfg.Ephemeris.URL, a.cfg.Ephemeris.Retries, a.cfg.Ephemeris.Timeout)
}

// chart loads a stored chart by profile name or chart id.
func (a *app) chart(ctx context.Context, key string) (*astro.Chart, error) {
	rec, err := a.db.GetChart(ctx, key)
	if err != nil {
		return nil, err
	}
	return rec.Chart, nil
}

// save builds every system for c and stores the chart with the trees that
// built under the DB lock. Systems that failed are left in res.Errors.
func (a *app) save(ctx context.Context, c *astro.Chart) (*storage.SaveResult, *engine.Result, error) {
	res, err := a.engine.BuildAll(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	if len(res.Trees) == 0 {
		return nil, res, errors.New("no system could be built")
	}

	var saved *storage.SaveResult
	err = utils.WithLock(a.cfg.DBPath, func() error {
		saved, err = a.db.SaveChart(ctx, c, res.Trees)
		return err
	})
	if err != nil {
		return nil, res, err
	}
	if saved.PreviousID != "" && saved.PreviousID != c.ID() {
		a.engine.Invalidate(saved.PreviousID)
	}
	utils.ChartLog(c.Name, c.ID()).Infof("Chart %s with %d periods (%d systems failed)", saved.Change.ChangeType, saved.Periods, len(res.Errors))
	return saved, res, nil
}

// renderer picks pretty output for terminals unless --plain is set.
func renderer(cmd *cobra.Command) *render.Renderer {
	plain, _ := cmd.Flags().GetBool("plain")
	return render.New(!plain && term.IsTerminal(int(os.Stdout.Fd())))
}

// parseAt parses an RFC3339 instant or a plain date; empty means now.
func parseAt(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use RFC3339 or YYYY-MM-DD", s)
	}
	return t, nil
}
