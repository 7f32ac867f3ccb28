package model

import "strings"

// NameNotFound is stored when the inventory service omits a game's name
const NameNotFound = "NOT FOUND"

// Tier is a ProtonDB compatibility rating, always uppercase
type Tier string

// Known ProtonDB tiers
const (
	TierNative   Tier = "NATIVE"
	TierPlatinum Tier = "PLATINUM"
	TierGold     Tier = "GOLD"
	TierSilver   Tier = "SILVER"
	TierBronze   Tier = "BRONZE"
	TierBorked   Tier = "BORKED"
	TierPending  Tier = "PENDING"
	TierUnknown  Tier = "UNKNOWN"
)

// NormalizeTier uppercases a raw tier value. Blank values become TierUnknown.
func NormalizeTier(raw string) Tier {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return TierUnknown
	}
	return Tier(strings.ToUpper(raw))
}

// OwnedGame represents a game returned by the Steam owned games API
type OwnedGame struct {
	AppID           uint32
	Name            string
	PlaytimeForever uint32 // minutes
	Playtime2Weeks  uint32 // minutes
	LastPlayed      int64  // unix seconds, 0 if never played
}

// CachedGame represents the locally cached state of an owned game
type CachedGame struct {
	AppID           uint32 `json:"app_id"`
	Name            string `json:"name"`
	PlaytimeForever uint32 `json:"playtime_forever"`
	Playtime2Weeks  uint32 `json:"playtime_2weeks"`
	LastPlayed      int64  `json:"rtime_last_played"`
	Tier            Tier   `json:"proton_tier"`
	LastFetch       int64  `json:"last_fetch"`
}

// LibrarySummary aggregates the cached library
type LibrarySummary struct {
	TotalGames    int          `json:"total_games"`
	TotalPlaytime int64        `json:"total_playtime"`
	NeverPlayed   int          `json:"never_played"`
	StaleGames    int          `json:"stale_games"`
	TopGame       string       `json:"top_game"`
	TopPlaytime   int64        `json:"top_playtime"`
	Tiers         map[Tier]int `json:"tiers"`
}
