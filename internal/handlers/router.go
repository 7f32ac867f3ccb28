package handlers

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/gamecache/internal/service"
	"github.com/jjenkins/gamecache/internal/store"
	"github.com/rs/zerolog"
)

// NewApp builds the read-only JSON API over the game cache. Middleware runs
// before every route.
func NewApp(gameStore *store.GameStore, metrics *service.MetricsService, logger zerolog.Logger, middleware ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "gamecache",
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          jsonErrorHandler,
	})

	for _, mw := range middleware {
		app.Use(mw)
	}

	app.Get("/games", GamesHandler(gameStore, logger))
	app.Get("/games/:appid", GameDetailHandler(gameStore, logger))
	app.Get("/summary", SummaryHandler(metrics, logger))

	return app
}

func jsonErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}
