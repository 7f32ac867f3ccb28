package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jjenkins/gamecache/internal/model"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// DefaultProtonDBBaseURL is the public ProtonDB host
const DefaultProtonDBBaseURL = "https://www.protondb.com"

const (
	summaryPathFormat = "/api/v1/reports/summaries/%d.json"
	breakerName       = "protondb"
	breakerCooldown   = 30 * time.Second
)

// ProtonDBConfig configures a ProtonDBClient
type ProtonDBConfig struct {
	BaseURL string
	Timeout time.Duration

	// RequestsPerSecond paces lookups. Zero or less disables pacing.
	RequestsPerSecond float64

	// BreakerThreshold is the number of consecutive failed lookups that opens
	// the circuit. While open, lookups resolve to UNKNOWN without a request.
	// Zero disables the breaker.
	BreakerThreshold uint32
}

// ProtonDBClient resolves compatibility tiers from ProtonDB summaries
type ProtonDBClient struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[model.Tier]
	logger  zerolog.Logger
}

// NewProtonDBClient creates a new ProtonDB client
func NewProtonDBClient(cfg ProtonDBConfig, logger zerolog.Logger) *ProtonDBClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultProtonDBBaseURL
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	logger = logger.With().Str("component", breakerName).Logger()
	threshold := cfg.BreakerThreshold

	cb := gobreaker.NewCircuitBreaker[model.Tier](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return threshold > 0 && counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	return &ProtonDBClient{
		client:  newHTTPClient(cfg.Timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(limit, 1),
		cb:      cb,
		logger:  logger,
	}
}

// summaryResponse represents the API response for a ProtonDB summary
type summaryResponse struct {
	Tier *string `json:"tier"`
}

// LookupTier resolves the tier of one app. Every lookup failure degrades to
// TierUnknown; the only error returned is cancellation of ctx.
func (c *ProtonDBClient) LookupTier(ctx context.Context, appID uint32) (model.Tier, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return model.TierUnknown, err
	}

	tier, err := c.cb.Execute(func() (model.Tier, error) {
		return c.fetchTier(ctx, appID)
	})
	if err == nil {
		return tier, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return model.TierUnknown, ctxErr
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Debug().Uint32("app_id", appID).Msg("circuit open, tier unknown")
	} else {
		c.logger.Warn().Err(err).Uint32("app_id", appID).Msg("tier lookup failed, tier unknown")
	}
	return model.TierUnknown, nil
}

// fetchTier performs the request. A 4xx response means ProtonDB has no
// summary for the app and is not a failure.
func (c *ProtonDBClient) fetchTier(ctx context.Context, appID uint32) (model.Tier, error) {
	body, err := fetch(ctx, c.client, c.baseURL+fmt.Sprintf(summaryPathFormat, appID))
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError {
			c.logger.Debug().Uint32("app_id", appID).Int("status", statusErr.StatusCode).Msg("no summary")
			return model.TierUnknown, nil
		}
		return model.TierUnknown, fmt.Errorf("failed to fetch summary for app %d: %w", appID, err)
	}

	var resp summaryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.TierUnknown, fmt.Errorf("%w: summary for app %d: %w", ErrDecode, appID, err)
	}
	if resp.Tier == nil {
		return model.TierUnknown, fmt.Errorf("%w: summary for app %d: missing tier", ErrDecode, appID)
	}

	return model.NormalizeTier(*resp.Tier), nil
}
