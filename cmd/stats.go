package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about the charts and periods in the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.db.GetStats(cmd.Context())
		if err != nil {
			return err
		}

		if len(stats) == 0 {
			fmt.Println("No data in the database to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "SYSTEM\tCHARTS\tPERIODS\t")

		var totalPeriods int
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%d\t%d\t\n", s.System, s.ChartCount, s.PeriodCount)
			totalPeriods += s.PeriodCount
		}

		fmt.Fprintln(w, " \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t%d\t\n", stats[0].ChartCount, totalPeriods)

		return w.Flush()
	},
}

func init() {
	dbCmd.AddCommand(statsCmd)
}
