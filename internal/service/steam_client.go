package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jjenkins/gamecache/internal/model"
)

// DefaultSteamBaseURL is the public Steam Web API host
const DefaultSteamBaseURL = "https://api.steampowered.com"

const ownedGamesPath = "/IPlayerService/GetOwnedGames/v0001/"

// SteamClient fetches a user's owned games from the Steam Web API
type SteamClient struct {
	client  *http.Client
	baseURL string
}

// NewSteamClient creates a new Steam Web API client
func NewSteamClient(baseURL string, timeout time.Duration) *SteamClient {
	if baseURL == "" {
		baseURL = DefaultSteamBaseURL
	}
	return &SteamClient{
		client:  newHTTPClient(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ownedGamesResponse represents the API response for GetOwnedGames.
// Pointer fields distinguish absent values from zero values.
type ownedGamesResponse struct {
	Response *struct {
		GameCount *int            `json:"game_count"`
		Games     []ownedGameJSON `json:"games"`
	} `json:"response"`
}

type ownedGameJSON struct {
	AppID           *uint32 `json:"appid"`
	Name            *string `json:"name"`
	PlaytimeForever *uint32 `json:"playtime_forever"`
	Playtime2Weeks  *uint32 `json:"playtime_2weeks"`
	RTimeLastPlayed *int64  `json:"rtime_last_played"`
}

// FetchOwnedGames retrieves every game owned by steamID. Any failure aborts
// the whole fetch; no partial list is returned.
func (c *SteamClient) FetchOwnedGames(ctx context.Context, steamID uint64, apiKey string) ([]model.OwnedGame, error) {
	params := url.Values{}
	params.Set("key", apiKey)
	params.Set("steamid", strconv.FormatUint(steamID, 10))
	params.Set("format", "json")
	params.Set("include_appinfo", "true")
	params.Set("include_extended_appinfo", "true")

	body, err := fetch(ctx, c.client, c.baseURL+ownedGamesPath+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch owned games: %w", err)
	}

	games, err := decodeOwnedGames(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse owned games response: %w", err)
	}
	return games, nil
}

// decodeOwnedGames converts the raw payload, applying defaults for the
// optional name and playtime fields
func decodeOwnedGames(body []byte) ([]model.OwnedGame, error) {
	var resp ownedGamesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if resp.Response == nil {
		return nil, fmt.Errorf("%w: missing response object", ErrDecode)
	}

	if n := resp.Response.GameCount; n != nil && *n != len(resp.Response.Games) {
		return nil, fmt.Errorf("%w: game_count %d does not match %d games", ErrDecode, *n, len(resp.Response.Games))
	}

	games := make([]model.OwnedGame, len(resp.Response.Games))
	for i, g := range resp.Response.Games {
		if g.AppID == nil {
			return nil, fmt.Errorf("%w: game %d: missing appid", ErrDecode, i)
		}
		if g.RTimeLastPlayed == nil {
			return nil, fmt.Errorf("%w: app %d: missing rtime_last_played", ErrDecode, *g.AppID)
		}

		game := model.OwnedGame{
			AppID:      *g.AppID,
			Name:       model.NameNotFound,
			LastPlayed: *g.RTimeLastPlayed,
		}
		if g.Name != nil && strings.TrimSpace(*g.Name) != "" {
			game.Name = *g.Name
		}
		if g.PlaytimeForever != nil {
			game.PlaytimeForever = *g.PlaytimeForever
		}
		if g.Playtime2Weeks != nil {
			game.Playtime2Weeks = *g.Playtime2Weeks
		}
		games[i] = game
	}

	return games, nil
}
