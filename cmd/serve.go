package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/jjenkins/gamecache/internal/handlers"
	"github.com/jjenkins/gamecache/internal/service"
	"github.com/jjenkins/gamecache/internal/store"
	"github.com/spf13/cobra"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the cached library as read-only JSON",
	Long: `Serve exposes the local cache over HTTP:

  GET /games?sort=playtime&order=desc
  GET /games/:appid
  GET /summary?stale=24h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Use PORT env var unless the flag was given
		addr := fmt.Sprintf(":%d", port)
		if !cmd.Flags().Changed("port") {
			addr = cfg.Server.Address()
		}

		db, err := store.NewDB(cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer db.Close()

		gameStore := store.NewGameStore(db)
		if err := gameStore.EnsureSchema(cmd.Context()); err != nil {
			return err
		}

		app := handlers.NewApp(gameStore, service.NewMetricsService(db), logger, fiberlogger.New())

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			logger.Info().Msg("Shutting down server...")
			_ = app.Shutdown()
		}()

		logger.Info().Str("addr", addr).Msg("Starting server")
		if err := app.Listen(addr); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to run the server on")
}
