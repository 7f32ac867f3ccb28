package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jjenkins/gamecache/internal/model"
	"github.com/jjenkins/gamecache/internal/store"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// InventorySource lists the games owned by a Steam account
type InventorySource interface {
	FetchOwnedGames(ctx context.Context, steamID uint64, apiKey string) ([]model.OwnedGame, error)
}

// TierResolver resolves the compatibility tier of one app. Implementations
// degrade to model.TierUnknown instead of failing; an error means the
// lookup was cancelled.
type TierResolver interface {
	LookupTier(ctx context.Context, appID uint32) (model.Tier, error)
}

// SyncStats tracks sync statistics
type SyncStats struct {
	RunID     string
	Total     int
	Upserted  int
	Unknown   int
	StartedAt time.Time
	Duration  time.Duration
}

// Syncer orchestrates one sync of a Steam library into the local store
type Syncer struct {
	inventory   InventorySource
	tiers       TierResolver
	games       *store.GameStore
	logger      zerolog.Logger
	concurrency int
	now         func() time.Time
}

// SyncerOption customizes a Syncer
type SyncerOption func(*Syncer)

// WithConcurrency bounds the number of tier lookups in flight. Values below
// one are treated as one, which keeps lookups strictly sequential.
func WithConcurrency(n int) SyncerOption {
	return func(s *Syncer) {
		if n < 1 {
			n = 1
		}
		s.concurrency = n
	}
}

// WithClock replaces the wall clock used to stamp last fetch times
func WithClock(now func() time.Time) SyncerOption {
	return func(s *Syncer) {
		s.now = now
	}
}

// NewSyncer creates a new Syncer
func NewSyncer(inventory InventorySource, tiers TierResolver, games *store.GameStore, logger zerolog.Logger, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		inventory:   inventory,
		tiers:       tiers,
		games:       games,
		logger:      logger,
		concurrency: 1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync fetches the owned games of steamID, resolves their tiers and upserts
// the result. The batch is written in one transaction: either every fetched
// game is upserted or none is.
func (s *Syncer) Sync(ctx context.Context, steamID uint64, apiKey string) (*SyncStats, error) {
	stats := &SyncStats{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
	}
	logger := s.logger.With().Str("run_id", stats.RunID).Logger()

	if err := s.games.EnsureSchema(ctx); err != nil {
		return stats, fmt.Errorf("failed to prepare store: %w", err)
	}

	logger.Info().Uint64("steam_id", steamID).Msg("Fetching owned games from Steam...")
	owned, err := s.inventory.FetchOwnedGames(ctx, steamID, apiKey)
	if err != nil {
		return stats, fmt.Errorf("failed to fetch inventory: %w", err)
	}

	stats.Total = len(owned)
	logger.Info().Int("games", stats.Total).Msg("Resolving ProtonDB tiers")

	tiers, err := s.resolveTiers(ctx, logger, owned)
	if err != nil {
		return stats, fmt.Errorf("tier resolution cancelled: %w", err)
	}

	records := make([]model.CachedGame, len(owned))
	for i, game := range owned {
		records[i] = BuildCachedGame(game, tiers[i], s.now())
		if tiers[i] == model.TierUnknown {
			stats.Unknown++
		}
	}

	err = s.games.WithTx(ctx, func(tx *store.GameStore) error {
		for i, rec := range records {
			if _, err := tx.Upsert(ctx, rec); err != nil {
				return err
			}
			logger.Info().
				Uint32("app_id", rec.AppID).
				Str("tier", string(rec.Tier)).
				Msgf("[%d/%d] Cached %s", i+1, len(records), rec.Name)
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to save games: %w", err)
	}

	stats.Upserted = len(records)
	stats.Duration = s.now().Sub(stats.StartedAt)
	return stats, nil
}

// resolveTiers looks up every tier, keeping results in inventory order
func (s *Syncer) resolveTiers(ctx context.Context, logger zerolog.Logger, owned []model.OwnedGame) ([]model.Tier, error) {
	tiers := make([]model.Tier, len(owned))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, game := range owned {
		g.Go(func() error {
			tier, err := s.tiers.LookupTier(gctx, game.AppID)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn().Err(err).Uint32("app_id", game.AppID).Msg("tier lookup failed, tier unknown")
				tier = model.TierUnknown
			}
			tiers[i] = tier
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tiers, nil
}

// PrintSummary logs the sync statistics
func (s *Syncer) PrintSummary(stats *SyncStats) {
	s.logger.Info().
		Str("run_id", stats.RunID).
		Int("total", stats.Total).
		Int("upserted", stats.Upserted).
		Int("unknown_tier", stats.Unknown).
		Dur("duration", stats.Duration).
		Msg("=== Sync Summary ===")
}
