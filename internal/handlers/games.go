package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/gamecache/internal/service"
	"github.com/jjenkins/gamecache/internal/store"
	"github.com/rs/zerolog"
)

// GamesHandler lists cached games, sorted by the sort and order query params
func GamesHandler(gameStore *store.GameStore, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sortBy := c.Query("sort", "app_id")
		order := c.Query("order", "asc")

		games, err := gameStore.GetAllSorted(c.UserContext(), sortBy, order)
		if err != nil {
			logger.Error().Err(err).Msg("Error loading games")
			return fiber.NewError(fiber.StatusInternalServerError, "Error loading games")
		}

		return c.JSON(fiber.Map{
			"count": len(games),
			"games": games,
		})
	}
}

// GameDetailHandler returns one cached game by app id
func GameDetailHandler(gameStore *store.GameStore, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		appID, err := strconv.ParseUint(c.Params("appid"), 10, 32)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid app id")
		}

		game, err := gameStore.GetByAppID(c.UserContext(), uint32(appID))
		if err != nil {
			logger.Error().Err(err).Uint64("app_id", appID).Msg("Error loading game")
			return fiber.NewError(fiber.StatusInternalServerError, "Error loading game")
		}
		if game == nil {
			return fiber.NewError(fiber.StatusNotFound, "Game not cached")
		}

		return c.JSON(game)
	}
}

// SummaryHandler returns library metrics. Games not fetched within the
// stale query param (a duration, default 24h) are reported as stale.
func SummaryHandler(metrics *service.MetricsService, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		window, err := time.ParseDuration(c.Query("stale", "24h"))
		if err != nil || window < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid stale duration")
		}

		summary, err := metrics.Calculate(c.UserContext(), time.Now().Add(-window))
		if err != nil {
			logger.Error().Err(err).Msg("Error calculating summary")
			return fiber.NewError(fiber.StatusInternalServerError, "Error calculating summary")
		}

		return c.JSON(summary)
	}
}
