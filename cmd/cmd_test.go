package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func resetFlags() {
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T, steamHandler http.HandlerFunc) string {
	t.Helper()
	steam := httptest.NewServer(steamHandler)
	t.Cleanup(steam.Close)

	proton := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/reports/summaries/70.json" {
			w.Write([]byte(`{"tier":"gold"}`))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(proton.Close)

	dbPath := filepath.Join(t.TempDir(), "games.db")
	t.Setenv("DATABASE_URL", dbPath)
	t.Setenv("STEAM_API_URL", steam.URL)
	t.Setenv("PROTONDB_API_URL", proton.URL)
	t.Setenv("PROTONDB_RATE_LIMIT", "0")
	t.Setenv("LOG_LEVEL", "error")
	return dbPath
}

func TestSyncThenList(t *testing.T) {
	setupEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":{"game_count":2,"games":[
			{"appid":70,"name":"Half-Life","playtime_forever":120,"rtime_last_played":1000},
			{"appid":440,"rtime_last_played":0}
		]}}`))
	})

	if _, err := execute(t, "sync", "--id", "76561197960287930", "--key", "abc"); err != nil {
		t.Fatalf("sync: %v", err)
	}

	out, err := execute(t, "list", "--sort", "app_id")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"Half-Life", "GOLD", "NOT FOUND", "UNKNOWN", "2 games cached"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Half-Life") > strings.Index(out, "NOT FOUND") {
		t.Errorf("list not sorted by app id:\n%s", out)
	}
}

func TestSyncFailureReturnsError(t *testing.T) {
	setupEnv(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	if _, err := execute(t, "sync", "-u", "76561197960287930", "-k", "bad"); err == nil {
		t.Fatal("expected sync to fail")
	}
}

func TestSyncRequiresFlags(t *testing.T) {
	setupEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("steam must not be called")
	})

	tests := [][]string{
		{"sync"},
		{"sync", "--id", "76561197960287930"},
		{"sync", "--key", "abc"},
		{"sync", "--id", "0", "--key", "abc"},
		{"sync", "--id", "76561197960287930", "--key", " "},
	}
	for _, args := range tests {
		if _, err := execute(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}
