package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/dasha/internal/utils"
	"github.com/sw33tLie/dasha/internal/watch"
	"github.com/sw33tLie/dasha/pkg/ephemeris"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Keep stored charts in sync with a directory of TOML chart files",
	Long: `Store every *.toml chart in dir, then watch the directory. Edited files are
rebuilt and stored again; with --prune, deleting a file removes the chart
named after it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()
		dir := args[0]
		prune, _ := cmd.Flags().GetBool("prune")

		charts, errs := ephemeris.LoadChartDir(dir)
		for _, err := range errs {
			utils.Log.Warnf("Skipping chart file: %v", err)
		}
		for _, c := range charts {
			if _, _, err := a.save(ctx, c); err != nil {
				utils.Log.Errorf("Chart %s not stored: %v", c.Name, err)
			}
		}

		w, err := watch.NewWatcher(dir)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()
		utils.Log.Infof("Watching %s for chart changes", dir)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)

		for {
			select {
			case <-sig:
				return nil
			case <-ctx.Done():
				return nil
			case ch, ok := <-w.Changes:
				if !ok {
					return nil
				}
				switch ch.Kind {
				case watch.ChangeModified:
					if _, _, err := a.save(ctx, ch.Chart); err != nil {
						utils.Log.Errorf("Chart %s not stored: %v", ch.Chart.Name, err)
					}
				case watch.ChangeInvalid:
					utils.Log.Warnf("Ignoring %s: %v", ch.File, ch.Err)
				case watch.ChangeRemoved:
					name := strings.TrimSuffix(filepath.Base(ch.File), ".toml")
					if !prune {
						utils.Log.Infof("%s removed; chart %s kept (use --prune to delete)", ch.File, name)
						continue
					}
					if err := removeChart(a, cmd, name); err != nil {
						utils.Log.Errorf("Could not remove chart %s: %v", name, err)
					}
				}
			}
		}
	},
}

func removeChart(a *app, cmd *cobra.Command, name string) error {
	rec, err := a.db.GetChart(cmd.Context(), name)
	if err != nil {
		return err
	}
	err = utils.WithLock(a.cfg.DBPath, func() error {
		return a.db.DeleteChart(cmd.Context(), rec.Name)
	})
	if err != nil {
		return err
	}
	a.engine.Invalidate(rec.ChartID)
	fmt.Printf("removed %s\n", rec.Name)
	return nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Bool("prune", false, "Remove charts whose files are deleted")
}
