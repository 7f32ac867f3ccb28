package service

import (
	"time"

	"github.com/jjenkins/gamecache/internal/model"
)

// BuildCachedGame joins an owned game with its resolved tier. The last fetch
// time is stamped from now; every other field is taken as-is.
func BuildCachedGame(game model.OwnedGame, tier model.Tier, now time.Time) model.CachedGame {
	return model.CachedGame{
		AppID:           game.AppID,
		Name:            game.Name,
		PlaytimeForever: game.PlaytimeForever,
		Playtime2Weeks:  game.Playtime2Weeks,
		LastPlayed:      game.LastPlayed,
		Tier:            tier,
		LastFetch:       now.Unix(),
	}
}
