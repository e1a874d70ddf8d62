package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/dasha/pkg/astro"
	"github.com/sw33tLie/dasha/pkg/dasha"
	"github.com/sw33tLie/dasha/pkg/transit"
)

var transitCmd = &cobra.Command{
	Use:   "transit <chart>",
	Short: "Read the running periods against current transits",
	Long: `Annotate the running periods with Gochara and Ashtakavarga results.
Transit longitudes are given with --pos Planet=degrees or fetched from the
configured ephemeris service.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		atFlag, _ := cmd.Flags().GetString("at")
		at, err := parseAt(atFlag)
		if err != nil {
			return err
		}
		depth, _ := cmd.Flags().GetInt("depth")
		systemNames, _ := cmd.Flags().GetStringSlice("system")
		posFlags, _ := cmd.Flags().GetStringSlice("pos")

		c, err := a.chart(ctx, args[0])
		if err != nil {
			return err
		}

		positions, err := parsePositionFlags(posFlags)
		if err != nil {
			return err
		}
		if len(positions) == 0 {
			client := a.ephemeris()
			if client == nil {
				return errors.New("no --pos given and ephemeris.url is not configured")
			}
			ps, err := client.Transits(ctx, at)
			if err != nil {
				return err
			}
			positions = transit.Positions(ps.Transits())
		}

		systems := dasha.Systems()
		if len(systemNames) > 0 {
			systems = systems[:0]
			for _, n := range systemNames {
				id, err := dasha.ParseSystem(n)
				if err != nil {
					return err
				}
				systems = append(systems, id)
			}
		}

		out := renderer(cmd)
		for _, id := range systems {
			path, err := a.engine.Active(ctx, c, id, at, depth)
			if errors.Is(err, dasha.ErrInstantOutOfRange) {
				return err
			}
			if err != nil {
				fmt.Print(out.Failure(id, err))
				continue
			}
			fmt.Print(out.Transit(id, transit.Overlay(path, c, positions)))
		}
		return nil
	},
}

// parsePositionFlags parses Planet=degrees pairs.
func parsePositionFlags(flags []string) (transit.Positions, error) {
	ps := make(transit.Positions, len(flags))
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --pos %q: want Planet=degrees", f)
		}
		p, err := astro.ParsePlanet(name)
		if err != nil {
			return nil, err
		}
		lon, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --pos %q: %w", f, err)
		}
		ps[p] = astro.Normalize(lon)
	}
	return ps, nil
}

func init() {
	rootCmd.AddCommand(transitCmd)
	transitCmd.Flags().String("at", "", "Moment to inspect, RFC3339 or YYYY-MM-DD (default now)")
	transitCmd.Flags().IntP("depth", "d", 2, "Levels to annotate")
	transitCmd.Flags().StringSliceP("system", "s", nil, "Systems to read (default all)")
	transitCmd.Flags().StringSlice("pos", nil, "Transit longitude, e.g. --pos Saturn=312.4 (repeatable)")
}
