package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/dasha/internal/utils"
	"github.com/sw33tLie/dasha/pkg/astro"
	"github.com/sw33tLie/dasha/pkg/dasha"
	"github.com/sw33tLie/dasha/pkg/ephemeris"
	"github.com/sw33tLie/dasha/pkg/nakshatra"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Manage stored birth charts",
}

var chartAddCmd = &cobra.Command{
	Use:   "add [pattern...]",
	Short: "Store charts from TOML files or from the ephemeris service",
	Long: `Store one or more charts. Charts are read from TOML files matching the
given patterns ("charts/**/*.toml" recurses), or, with --name,
--time, --lat and --lon, resolved through the configured ephemeris service.
Storing a chart under an existing name replaces its periods in every system.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		var charts []*astro.Chart
		for _, pattern := range args {
			paths, err := ephemeris.GlobChartFiles(pattern)
			if err != nil {
				return err
			}
			for _, path := range paths {
				c, err := ephemeris.LoadChartFile(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				charts = append(charts, c)
			}
		}
		if name, _ := cmd.Flags().GetString("name"); name != "" {
			c, err := fetchChart(ctx, cmd, a, name)
			if err != nil {
				return err
			}
			charts = append(charts, c)
		}
		if len(charts) == 0 {
			return errors.New("nothing to add: pass chart files or --name")
		}

		out := renderer(cmd)
		for _, c := range charts {
			saved, res, err := a.save(ctx, c)
			if res != nil {
				for _, id := range dasha.Systems() {
					if e, ok := res.Errors[id]; ok {
						fmt.Print(out.Failure(id, e))
					}
				}
			}
			if err != nil {
				return fmt.Errorf("chart %s not stored: %w", c.Name, err)
			}
			fmt.Printf("%s %s (%s, %d periods)\n", saved.Change.ChangeType, c.Name, saved.Change.ChartID, saved.Periods)
		}
		return nil
	},
}

// fetchChart resolves a chart from flags through the ephemeris service and
// optionally writes it to a TOML file.
func fetchChart(ctx context.Context, cmd *cobra.Command, a *app, name string) (*astro.Chart, error) {
	client := a.ephemeris()
	if client == nil {
		return nil, errors.New("ephemeris.url is not configured")
	}
	at, _ := cmd.Flags().GetString("time")
	lat, _ := cmd.Flags().GetFloat64("lat")
	lon, _ := cmd.Flags().GetFloat64("lon")
	birth, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return nil, fmt.Errorf("--time must be RFC3339 with the birth UTC offset: %w", err)
	}

	ps, err := client.Natal(ctx, birth, lat, lon)
	if err != nil {
		return nil, err
	}
	c, err := ps.Chart(name, birth, lat, lon)
	if err != nil {
		return nil, err
	}
	if path, _ := cmd.Flags().GetString("write"); path != "" {
		if err := ephemeris.SaveChartFile(path, c); err != nil {
			return nil, err
		}
		utils.Log.Infof("Wrote %s", path)
	}
	return c, nil
}

var chartListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored charts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		recs, err := a.db.ListCharts(cmd.Context())
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No charts stored.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tCHART ID\tBIRTH\tNAKSHATRA\tUPDATED\t")
		for _, r := range recs {
			nak := "-"
			if pos, err := nakshatra.Locate(r.Chart.Birth.MoonLongitude); err == nil {
				nak = fmt.Sprintf("%s %d", pos.Name(), pos.Pada)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", r.Name, r.ChartID, r.Chart.Birth.Time.Format(time.RFC3339), nak, r.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var chartShowCmd = &cobra.Command{
	Use:   "show <name|id>",
	Short: "Show a chart and the applicability of every system",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.chart(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if export, _ := cmd.Flags().GetBool("toml"); export {
			data, err := ephemeris.MarshalChart(c)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		}

		res, err := a.engine.BuildAll(cmd.Context(), c)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", c.Name, c.ID())
		fmt.Printf("born   %s at %.4f, %.4f\n", c.Birth.Time.Format(time.RFC3339), c.Birth.Latitude, c.Birth.Longitude)
		if pos, err := nakshatra.Locate(c.Birth.MoonLongitude); err == nil {
			fmt.Printf("moon   %s, %s pada %d (%.1f%% elapsed)\n", astro.SignOf(c.Birth.MoonLongitude), pos.Name(), pos.Pada, pos.FractionElapsed*100)
		}
		if lagna, err := c.LagnaSign(); err == nil {
			fmt.Printf("lagna  %s\n", lagna)
		}
		day := "night"
		if astro.IsDayBirth(c.Birth) {
			day = "day"
		}
		fmt.Printf("birth  %s, %s paksha\n\n", day, astro.PakshaOf(c.Birth.SunLongitude, c.Birth.MoonLongitude))
		fmt.Print(renderer(cmd).Applicability(res.Applicability))
		return nil
	},
}

var chartRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a stored chart and its periods",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return removeChart(a, cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.AddCommand(chartAddCmd, chartListCmd, chartShowCmd, chartRmCmd)

	chartAddCmd.Flags().String("name", "", "Profile name of a chart resolved through the ephemeris service")
	chartAddCmd.Flags().String("time", "", "Birth time, RFC3339 with UTC offset")
	chartAddCmd.Flags().Float64("lat", 0, "Birth latitude")
	chartAddCmd.Flags().Float64("lon", 0, "Birth longitude")
	chartAddCmd.Flags().String("write", "", "Also write the resolved chart to this TOML file")

	chartShowCmd.Flags().Bool("toml", false, "Print the chart as TOML")
}
