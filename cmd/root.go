package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/dasha/internal/config"
	"github.com/sw33tLie/dasha/internal/utils"
)

var cfgFile string

const (
	LOGO = `	     _           _
	  __| | __ _ ___| |__   __ _
	 / _' |/ _' / __| '_ \ / _' |
	| (_| | (_| \__ \ | | | (_| |
	 \__,_|\__,_|___/_| |_|\__,_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dasha",
	Short: "Vedic planetary period calculator.",
	Long: LOGO + `dasha computes Vimshottari, Yogini, Ashtottari, Kalachakra, Chara and
Sudarshana Chakra period trees for stored birth charts, finds the periods
running at any moment and reads them against current transits.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		levelString, _ := cmd.Flags().GetString("loglevel")
		return utils.SetLogLevel(levelString)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dasha.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default: ~/.config/dasha/dasha.sqlite)")
	rootCmd.PersistentFlags().String("year-basis", "", "Dasha year length: gregorian, julian, savana, sidereal")
	rootCmd.PersistentFlags().Bool("plain", false, "Tab-separated output without colors")

	viper.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("dbpath"))
	viper.BindPFlag("year_basis", rootCmd.PersistentFlags().Lookup("year-basis"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".dasha")
		viper.SetConfigType("yaml")
	}

	config.SetDefaults()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".dasha.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				utils.Log.Debugf("Could not create config file: %v", err)
			}
		} else {
			utils.Log.Warnf("Could not read config file: %v", err)
		}
	}
}
