package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jjenkins/gamecache/internal/service"
	"github.com/jjenkins/gamecache/internal/store"
	"github.com/spf13/cobra"
)

var syncSteamID uint64
var syncAPIKey string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync a Steam library into the local cache",
	Long: `Sync downloads the owned games of a Steam account, resolves the
ProtonDB tier of each game and upserts everything into the local cache.

Games that are no longer returned by Steam stay cached; their last_fetch
timestamp stops advancing. A failed sync leaves the cache as it was and
exits with a non-zero status.

Examples:
  # Sync a library
  gamecache sync --id 76561197960287930 --key $STEAM_API_KEY

  # Resolve tiers with four lookups in flight
  SYNC_CONCURRENCY=4 gamecache sync -u 76561197960287930 -k $STEAM_API_KEY`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().Uint64VarP(&syncSteamID, "id", "u", 0, "Steam account id (SteamID64)")
	syncCmd.Flags().StringVarP(&syncAPIKey, "key", "k", "", "Steam Web API key")
	_ = syncCmd.MarkFlagRequired("id")
	_ = syncCmd.MarkFlagRequired("key")
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncSteamID == 0 {
		return errors.New("--id must be a SteamID64")
	}
	if strings.TrimSpace(syncAPIKey) == "" {
		return errors.New("--key must not be empty")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Msg("Opening local cache...")
	db, err := store.NewDB(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer db.Close()

	steam := service.NewSteamClient(cfg.Steam.BaseURL, cfg.Steam.Timeout)
	protonDB := service.NewProtonDBClient(service.ProtonDBConfig{
		BaseURL:           cfg.ProtonDB.BaseURL,
		Timeout:           cfg.ProtonDB.Timeout,
		RequestsPerSecond: cfg.ProtonDB.RateLimit,
		BreakerThreshold:  cfg.ProtonDB.BreakerThreshold,
	}, logger)
	gameStore := store.NewGameStore(db)
	syncer := service.NewSyncer(steam, protonDB, gameStore, logger,
		service.WithConcurrency(cfg.Sync.Concurrency))

	stats, err := syncer.Sync(ctx, syncSteamID, syncAPIKey)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("sync cancelled: %w", err)
		}
		return fmt.Errorf("sync failed: %w", err)
	}
	syncer.PrintSummary(stats)

	summary, err := service.NewMetricsService(db).Calculate(context.WithoutCancel(ctx), stats.StartedAt)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to calculate library summary")
		return nil
	}
	service.LogSummary(logger, summary)
	return nil
}
