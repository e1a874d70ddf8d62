package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/dasha/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Serve stored charts, their period trees, active periods and transit readings as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		srv := server.New(a.db, a.engine, a.cfg.Server.Username, a.cfg.Server.Password)
		if client := a.ephemeris(); client != nil {
			srv.Ephemeris = client
		}
		srv.SandhiFraction = a.cfg.Sandhi.Fraction
		srv.YearBasis = a.cfg.Options().YearBasis
		return srv.Start(a.cfg.Server.Listen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "b", ":8080", "HTTP listen address")
	serveCmd.Flags().StringP("username", "u", "", "Username for basic auth (optional)")
	serveCmd.Flags().StringP("password", "p", "", "Password for basic auth (optional)")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("server.username", serveCmd.Flags().Lookup("username"))
	viper.BindPFlag("server.password", serveCmd.Flags().Lookup("password"))
}
