package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/dasha/pkg/dasha"
)

var activeCmd = &cobra.Command{
	Use:   "active <chart>",
	Short: "Show the periods running at a moment in every system",
	Args:  cobra.ExactArgs(1),
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

		c, err := a.chart(ctx, args[0])
		if err != nil {
			return err
		}
		out := renderer(cmd)
		for _, id := range dasha.Systems() {
			path, err := a.engine.Active(ctx, c, id, at, depth)
			if errors.Is(err, dasha.ErrInstantOutOfRange) {
				return err
			}
			if err != nil {
				fmt.Print(out.Failure(id, err))
				continue
			}
			var sandhi *dasha.Sandhi
			if tree, err := a.engine.Tree(ctx, c, id); err == nil {
				sandhi, _ = tree.Sandhi(at, a.cfg.Sandhi.Fraction)
			}
			fmt.Print(out.Path(id, path, sandhi))
		}

		positions, err := dasha.SudarshanaAt(c, at, a.cfg.Options().YearBasis)
		if err == nil {
			fmt.Println()
			fmt.Print(out.Sudarshana(positions))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(activeCmd)
	activeCmd.Flags().String("at", "", "Moment to inspect, RFC3339 or YYYY-MM-DD (default now)")
	activeCmd.Flags().IntP("depth", "d", 3, "Levels to resolve, up to 5")
}
