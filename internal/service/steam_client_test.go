package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jjenkins/gamecache/internal/model"
)

func TestDecodeOwnedGamesDefaults(t *testing.T) {
	body := []byte(`{"response":{"game_count":2,"games":[
		{"appid":70,"name":"Half-Life","playtime_forever":120,"playtime_2weeks":15,"rtime_last_played":1000},
		{"appid":440,"rtime_last_played":0}
	]}}`)

	games, err := decodeOwnedGames(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := []model.OwnedGame{
		{AppID: 70, Name: "Half-Life", PlaytimeForever: 120, Playtime2Weeks: 15, LastPlayed: 1000},
		{AppID: 440, Name: model.NameNotFound, PlaytimeForever: 0, Playtime2Weeks: 0, LastPlayed: 0},
	}
	if len(games) != len(want) {
		t.Fatalf("len = %d, want %d", len(games), len(want))
	}
	for i := range want {
		if games[i] != want[i] {
			t.Errorf("games[%d] = %+v, want %+v", i, games[i], want[i])
		}
	}
}

func TestDecodeOwnedGamesErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing rtime_last_played", `{"response":{"games":[{"appid":70,"name":"Half-Life"}]}}`},
		{"missing appid", `{"response":{"games":[{"name":"Half-Life","rtime_last_played":1}]}}`},
		{"missing response", `{"games":[]}`},
		{"string playtime", `{"response":{"games":[{"appid":70,"playtime_forever":"lots","rtime_last_played":1}]}}`},
		{"not json", `<html>busy</html>`},
		{"game_count mismatch", `{"response":{"game_count":2,"games":[{"appid":70,"rtime_last_played":1}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeOwnedGames([]byte(tt.body))
			if !errors.Is(err, ErrDecode) {
				t.Fatalf("err = %v, want ErrDecode", err)
			}
		})
	}
}

func TestDecodeOwnedGamesEmptyProfile(t *testing.T) {
	games, err := decodeOwnedGames([]byte(`{"response":{}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(games) != 0 {
		t.Fatalf("len = %d, want 0", len(games))
	}
}

func TestDecodeOwnedGamesBlankName(t *testing.T) {
	games, err := decodeOwnedGames([]byte(`{"response":{"games":[{"appid":5,"name":"  ","rtime_last_played":3}]}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if games[0].Name != model.NameNotFound {
		t.Fatalf("name = %q, want %q", games[0].Name, model.NameNotFound)
	}
}

func TestFetchOwnedGamesRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != ownedGamesPath {
			t.Errorf("path = %q, want %q", r.URL.Path, ownedGamesPath)
		}
		q := r.URL.Query()
		want := map[string]string{
			"key":                      "secret",
			"steamid":                  "76561197960287930",
			"format":                   "json",
			"include_appinfo":          "true",
			"include_extended_appinfo": "true",
		}
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("query %s = %q, want %q", k, got, v)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":{"game_count":1,"games":[{"appid":70,"name":"Half-Life","rtime_last_played":1000}]}}`))
	}))
	defer srv.Close()

	c := NewSteamClient(srv.URL, time.Second)
	games, err := c.FetchOwnedGames(context.Background(), 76561197960287930, "secret")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(games) != 1 || games[0].AppID != 70 {
		t.Fatalf("games = %+v", games)
	}
}

func TestFetchOwnedGamesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewSteamClient(srv.URL, time.Second)
	_, err := c.FetchOwnedGames(context.Background(), 1, "secret")
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("err = %v, want ErrUnexpectedStatus", err)
	}
	if strings.Contains(err.Error(), "secret") {
		t.Fatalf("error leaks api key: %v", err)
	}
}

func TestFetchOwnedGamesNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewSteamClient(url, time.Second)
	_, err := c.FetchOwnedGames(context.Background(), 1, "secret")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
	if errors.Is(err, ErrDecode) {
		t.Fatalf("network error must not be reported as decode error: %v", err)
	}
	if strings.Contains(err.Error(), "secret") {
		t.Fatalf("error leaks api key: %v", err)
	}
}
