package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/gamecache/internal/model"
	"github.com/jjenkins/gamecache/internal/service"
	"github.com/jjenkins/gamecache/internal/store"
	"github.com/rs/zerolog"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := store.NewDB(filepath.Join(t.TempDir(), "games.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	games := store.NewGameStore(db)
	if err := games.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	now := time.Now().Unix()
	for _, g := range []model.CachedGame{
		{AppID: 70, Name: "Half-Life", PlaytimeForever: 120, LastPlayed: 1000, Tier: model.TierPlatinum, LastFetch: now},
		{AppID: 440, Name: "Team Fortress 2", PlaytimeForever: 900, LastPlayed: 2000, Tier: model.TierGold, LastFetch: now},
	} {
		if _, err := games.Upsert(ctx, g); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	return NewApp(games, service.NewMetricsService(db), zerolog.Nop())
}

func doJSON(t *testing.T, app *fiber.App, target string, wantStatus int, out any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	if err != nil {
		t.Fatalf("GET %s: %v", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d: %s", target, resp.StatusCode, wantStatus, body)
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("decode %s: %v", body, err)
		}
	}
}

func TestGamesHandlerSorted(t *testing.T) {
	app := newTestApp(t)

	var resp struct {
		Count int                `json:"count"`
		Games []model.CachedGame `json:"games"`
	}
	doJSON(t, app, "/games?sort=playtime&order=desc", http.StatusOK, &resp)

	if resp.Count != 2 || len(resp.Games) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Games[0].AppID != 440 || resp.Games[1].AppID != 70 {
		t.Fatalf("order = %d, %d", resp.Games[0].AppID, resp.Games[1].AppID)
	}
}

func TestGameDetailHandler(t *testing.T) {
	app := newTestApp(t)

	var game model.CachedGame
	doJSON(t, app, "/games/70", http.StatusOK, &game)
	if game.Name != "Half-Life" || game.Tier != model.TierPlatinum {
		t.Fatalf("game = %+v", game)
	}

	var errResp map[string]string
	doJSON(t, app, "/games/999", http.StatusNotFound, &errResp)
	if errResp["error"] == "" {
		t.Fatalf("missing error message: %v", errResp)
	}

	doJSON(t, app, "/games/abc", http.StatusBadRequest, nil)
}

func TestSummaryHandler(t *testing.T) {
	app := newTestApp(t)

	var summary model.LibrarySummary
	doJSON(t, app, "/summary", http.StatusOK, &summary)
	if summary.TotalGames != 2 || summary.TotalPlaytime != 1020 || summary.StaleGames != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Tiers[model.TierGold] != 1 {
		t.Fatalf("tiers = %v", summary.Tiers)
	}

	doJSON(t, app, "/summary?stale=forever", http.StatusBadRequest, nil)
}
