package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jjenkins/gamecache/internal/model"
	"github.com/jjenkins/gamecache/internal/store"
	"github.com/rs/zerolog"
)

// MetricsService calculates library-wide metrics from the cache
type MetricsService struct {
	db *store.DB
}

// NewMetricsService creates a new MetricsService
func NewMetricsService(db *store.DB) *MetricsService {
	return &MetricsService{db: db}
}

// Calculate summarizes the cached library. Games whose last fetch is older
// than staleBefore are counted as stale; pass the zero time to skip that.
func (m *MetricsService) Calculate(ctx context.Context, staleBefore time.Time) (*model.LibrarySummary, error) {
	summary := &model.LibrarySummary{Tiers: make(map[model.Tier]int)}

	var cutoff int64
	if !staleBefore.IsZero() {
		cutoff = staleBefore.Unix()
	}

	totalsQuery := m.db.Rebind(`
		SELECT
			COUNT(*),
			COALESCE(SUM(playtime_forever), 0),
			COALESCE(SUM(CASE WHEN rtime_last_played = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN last_fetch < ? THEN 1 ELSE 0 END), 0)
		FROM game_info
	`)
	err := m.db.QueryRowContext(ctx, totalsQuery, cutoff).Scan(
		&summary.TotalGames,
		&summary.TotalPlaytime,
		&summary.NeverPlayed,
		&summary.StaleGames,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate library totals: %w", err)
	}

	// Most played game
	topQuery := `
		SELECT name, playtime_forever
		FROM game_info
		ORDER BY playtime_forever DESC, app_id ASC
		LIMIT 1
	`
	err = m.db.QueryRowContext(ctx, topQuery).Scan(&summary.TopGame, &summary.TopPlaytime)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to find most played game: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `SELECT proton_tier, COUNT(*) FROM game_info GROUP BY proton_tier`)
	if err != nil {
		return nil, fmt.Errorf("failed to count tiers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tier model.Tier
		var count int
		if err := rows.Scan(&tier, &count); err != nil {
			return nil, fmt.Errorf("failed to scan tier count: %w", err)
		}
		summary.Tiers[tier] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count tiers: %w", err)
	}

	return summary, nil
}

// LogSummary writes the library summary to logger
func LogSummary(logger zerolog.Logger, summary *model.LibrarySummary) {
	tiers := zerolog.Dict()
	names := make([]string, 0, len(summary.Tiers))
	for tier := range summary.Tiers {
		names = append(names, string(tier))
	}
	sort.Strings(names)
	for _, name := range names {
		tiers.Int(name, summary.Tiers[model.Tier(name)])
	}

	logger.Info().
		Int("total_games", summary.TotalGames).
		Float64("total_hours", float64(summary.TotalPlaytime)/60).
		Int("never_played", summary.NeverPlayed).
		Int("stale", summary.StaleGames).
		Str("most_played", summary.TopGame).
		Dict("tiers", tiers).
		Msg("=== Library Summary ===")
}
