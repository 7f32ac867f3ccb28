package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jjenkins/gamecache/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS game_info (
		app_id            INTEGER PRIMARY KEY,
		name              TEXT    NOT NULL CHECK (name <> ''),
		playtime_forever  INTEGER NOT NULL DEFAULT 0,
		playtime_2weeks   INTEGER NOT NULL DEFAULT 0,
		rtime_last_played INTEGER NOT NULL DEFAULT 0,
		proton_tier       TEXT    NOT NULL DEFAULT 'UNKNOWN',
		last_fetch        INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_game_info_last_fetch ON game_info(last_fetch)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS game_info (
		app_id            BIGINT  PRIMARY KEY,
		name              TEXT    NOT NULL CHECK (name <> ''),
		playtime_forever  BIGINT  NOT NULL DEFAULT 0,
		playtime_2weeks   BIGINT  NOT NULL DEFAULT 0,
		rtime_last_played BIGINT  NOT NULL DEFAULT 0,
		proton_tier       TEXT    NOT NULL DEFAULT 'UNKNOWN',
		last_fetch        BIGINT  NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_game_info_last_fetch ON game_info(last_fetch)`,
}

const upsertGameQuery = `
	INSERT INTO game_info (app_id, name, playtime_forever, playtime_2weeks,
	                       rtime_last_played, proton_tier, last_fetch)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (app_id) DO UPDATE SET
		name = excluded.name,
		playtime_forever = excluded.playtime_forever,
		playtime_2weeks = excluded.playtime_2weeks,
		rtime_last_played = excluded.rtime_last_played,
		proton_tier = excluded.proton_tier,
		last_fetch = excluded.last_fetch
`

const selectGameColumns = `
	SELECT app_id, name, playtime_forever, playtime_2weeks,
	       rtime_last_played, proton_tier, last_fetch
	FROM game_info
`

// GameStore handles database operations for cached games
type GameStore struct {
	db *DB
	q  querier
}

// NewGameStore creates a new GameStore
func NewGameStore(db *DB) *GameStore {
	return &GameStore{db: db, q: db.DB}
}

// EnsureSchema creates the game_info table if it does not exist yet
func (s *GameStore) EnsureSchema(ctx context.Context) error {
	schema := sqliteSchema
	if s.db.Driver() == DriverPostgres {
		schema = postgresSchema
	}

	for _, stmt := range schema {
		if _, err := s.q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: ensure schema: %w", ErrStorage, err)
		}
	}
	return nil
}

// Upsert inserts a game or overwrites every non-key column of an existing
// row with the same app id. It returns the number of affected rows.
func (s *GameStore) Upsert(ctx context.Context, g model.CachedGame) (int64, error) {
	result, err := s.q.ExecContext(ctx, s.db.Rebind(upsertGameQuery),
		g.AppID,
		g.Name,
		g.PlaytimeForever,
		g.Playtime2Weeks,
		g.LastPlayed,
		string(g.Tier),
		g.LastFetch,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: upsert game %d: %w", ErrStorage, g.AppID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: upsert game %d: %w", ErrStorage, g.AppID, err)
	}
	return affected, nil
}

// WithTx runs fn against a store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *GameStore) WithTx(ctx context.Context, fn func(*GameStore) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", ErrStorage, err)
	}
	defer tx.Rollback()

	if err := fn(&GameStore{db: s.db, q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit transaction: %w", ErrStorage, err)
	}
	return nil
}

// GetByAppID retrieves a cached game. It returns nil when the game is not cached.
func (s *GameStore) GetByAppID(ctx context.Context, appID uint32) (*model.CachedGame, error) {
	query := s.db.Rebind(selectGameColumns + ` WHERE app_id = ?`)

	g, err := scanGame(s.q.QueryRowContext(ctx, query, appID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get game %d: %w", ErrStorage, appID, err)
	}
	return g, nil
}

// GetAll retrieves all cached games ordered by app id
func (s *GameStore) GetAll(ctx context.Context) ([]model.CachedGame, error) {
	return s.GetAllSorted(ctx, "app_id", "asc")
}

// GetAllSorted retrieves all cached games with custom sorting
func (s *GameStore) GetAllSorted(ctx context.Context, sortBy, order string) ([]model.CachedGame, error) {
	// Whitelist valid sort columns to prevent SQL injection
	validColumns := map[string]string{
		"app_id":      "app_id",
		"name":        "name",
		"playtime":    "playtime_forever",
		"recent":      "playtime_2weeks",
		"last_played": "rtime_last_played",
		"tier":        "proton_tier",
		"last_fetch":  "last_fetch",
	}

	column, ok := validColumns[sortBy]
	if !ok {
		column = "app_id"
	}

	sortOrder := "ASC"
	if order == "desc" {
		sortOrder = "DESC"
	}

	query := fmt.Sprintf(`%s ORDER BY %s %s, app_id ASC`, selectGameColumns, column, sortOrder)

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: get games: %w", ErrStorage, err)
	}
	defer rows.Close()

	var games []model.CachedGame
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan game: %w", ErrStorage, err)
		}
		games = append(games, *g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: get games: %w", ErrStorage, err)
	}
	return games, nil
}

// Count returns the number of cached games
func (s *GameStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM game_info").Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count games: %w", ErrStorage, err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*model.CachedGame, error) {
	var g model.CachedGame
	err := row.Scan(
		&g.AppID,
		&g.Name,
		&g.PlaytimeForever,
		&g.Playtime2Weeks,
		&g.LastPlayed,
		&g.Tier,
		&g.LastFetch,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
