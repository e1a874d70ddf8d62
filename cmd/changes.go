package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show recent chart changes (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		changes, err := a.db.ListRecentChanges(cmd.Context(), limit)
		if err != nil {
			return err
		}
		for _, c := range changes {
			ts := c.OccurredAt.Format("2006-01-02 15:04:05")
			fmt.Printf("%s  %-7s  %-20s  %s\n", ts, c.ChangeType, c.ChartName, c.ChartID)
		}
		return nil
	},
}

func init() {
	dbCmd.AddCommand(changesCmd)
	changesCmd.Flags().Int("limit", 50, "Number of recent changes to show")
}
