package cmd

import (
	"github.com/jjenkins/gamecache/internal/config"
	"github.com/jjenkins/gamecache/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gamecache",
	Short: "Cache your Steam library with ProtonDB compatibility tiers",
	Long: `gamecache keeps a local, queryable cache of a Steam library.

Each sync fetches the owned games of one account from the Steam Web API,
looks up the ProtonDB tier of every game and upserts the result into a
local database (./games.db unless DATABASE_URL says otherwise).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger = logging.New(logging.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
		})
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
