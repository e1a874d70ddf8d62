package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/dasha/pkg/dasha"
)

var treeCmd = &cobra.Command{
	Use:   "tree <chart>",
	Short: "Print the period tree of one system",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		name, _ := cmd.Flags().GetString("system")
		id, err := dasha.ParseSystem(name)
		if err != nil {
			return err
		}
		depth, _ := cmd.Flags().GetInt("depth")
		if depth < 1 || depth > 5 {
			return fmt.Errorf("depth must be between 1 and 5")
		}
		atFlag, _ := cmd.Flags().GetString("at")
		at, err := parseAt(atFlag)
		if err != nil {
			return err
		}

		c, err := a.chart(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		tree, err := a.engine.Tree(cmd.Context(), c, id)
		if err != nil {
			fmt.Print(renderer(cmd).Failure(id, err))
			return nil
		}
		fmt.Print(renderer(cmd).Tree(tree, depth, at))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().StringP("system", "s", "vimshottari", "Dasha system: vimshottari, yogini, ashtottari, kalachakra, chara, sudarshana")
	treeCmd.Flags().IntP("depth", "d", 1, "Levels to print (1 = Mahadasha only)")
	treeCmd.Flags().String("at", "", "Mark the periods running at this time (default now)")
}
