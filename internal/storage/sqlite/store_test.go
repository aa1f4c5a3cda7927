package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"tnttag/internal/domain"
	"tnttag/internal/ports"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "stats", "tnttag.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tnttag.db")
	for i := 0; i < 2; i++ {
		store, err := Open(context.Background(), path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		if err := store.EnsurePlayer(context.Background(), "user-1", "BraveOtter"); err != nil {
			t.Fatalf("ensure player #%d: %v", i+1, err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("close #%d: %v", i+1, err)
		}
	}
}

func TestEnsurePlayer(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	if err := store.EnsurePlayer(ctx, "user-1", "BraveOtter"); err != nil {
		t.Fatalf("ensure player: %v", err)
	}
	got, err := store.PlayerStats(ctx, "user-1")
	if err != nil {
		t.Fatalf("player stats: %v", err)
	}
	want := ports.PlayerStats{UserID: "user-1", Name: "BraveOtter"}
	if got != want {
		t.Fatalf("stats = %+v, want %+v", got, want)
	}

	if err := store.EnsurePlayer(ctx, "user-2", "BraveOtter"); !errors.Is(err, ports.ErrNameTaken) {
		t.Fatalf("duplicate name error = %v, want ErrNameTaken", err)
	}

	// Renaming keeps the counters.
	if err := store.RecordResult(ctx, domain.RoundResult{Winner: "user-1"}); err != nil {
		t.Fatalf("record result: %v", err)
	}
	if err := store.EnsurePlayer(ctx, "user-1", "CalmHeron"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, err = store.PlayerStats(ctx, "user-1")
	if err != nil {
		t.Fatalf("player stats: %v", err)
	}
	if got.Name != "CalmHeron" || got.Wins != 1 {
		t.Fatalf("stats after rename = %+v", got)
	}
}

func TestEnsurePlayerValidation(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.EnsurePlayer(context.Background(), "", "Name"); err == nil {
		t.Fatal("expected user id error")
	}
	if err := store.EnsurePlayer(context.Background(), "user-1", " "); err == nil {
		t.Fatal("expected name error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.EnsurePlayer(ctx, "user-1", "Name"); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled ctx error = %v", err)
	}
}

func TestRecordResult(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	for id, name := range map[string]string{"a": "Alpha", "b": "Bravo", "c": "Charlie"} {
		if err := store.EnsurePlayer(ctx, id, name); err != nil {
			t.Fatalf("ensure %s: %v", id, err)
		}
	}

	rounds := []domain.RoundResult{
		{Winner: "a", Losers: []domain.SessionID{"b", "c"}},
		{Winner: "a", Losers: []domain.SessionID{"b", "c"}},
		{Winner: "b", Losers: []domain.SessionID{"a", "c"}},
		{Losers: []domain.SessionID{"a", "b"}},
	}
	for i, r := range rounds {
		if err := store.RecordResult(ctx, r); err != nil {
			t.Fatalf("record round %d: %v", i, err)
		}
	}

	tests := []struct {
		id   string
		want ports.PlayerStats
	}{
		{"a", ports.PlayerStats{UserID: "a", Name: "Alpha", Wins: 2, WinStreak: 0, Losses: 2}},
		{"b", ports.PlayerStats{UserID: "b", Name: "Bravo", Wins: 1, WinStreak: 0, Losses: 3}},
		{"c", ports.PlayerStats{UserID: "c", Name: "Charlie", Wins: 0, WinStreak: 0, Losses: 3}},
	}
	for _, tt := range tests {
		got, err := store.PlayerStats(ctx, tt.id)
		if err != nil {
			t.Fatalf("stats %s: %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("stats %s = %+v, want %+v", tt.id, got, tt.want)
		}
	}
}

func TestRecordResultStreak(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := store.RecordResult(ctx, domain.RoundResult{Winner: "w", Losers: []domain.SessionID{"l"}}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := store.PlayerStats(ctx, "w")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if got.Wins != 3 || got.WinStreak != 3 || got.Name != "w" {
		t.Fatalf("winner stats = %+v", got)
	}
}

func TestPlayerStatsNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.PlayerStats(context.Background(), "ghost"); !errors.Is(err, ports.ErrPlayerNotFound) {
		t.Fatalf("error = %v, want ErrPlayerNotFound", err)
	}
}

func TestNilStore(t *testing.T) {
	t.Parallel()

	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
	if err := store.RecordResult(context.Background(), domain.RoundResult{}); err == nil {
		t.Fatal("expected unconfigured store error")
	}
}

func TestExtractUp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no markers", "CREATE TABLE t (id INT);", "CREATE TABLE t (id INT);"},
		{"up only", "-- +migrate Up\nCREATE TABLE t (id INT);", "\nCREATE TABLE t (id INT);"},
		{"up and down", "-- +migrate Up\nCREATE TABLE t (id INT);\n-- +migrate Down\nDROP TABLE t;", "\nCREATE TABLE t (id INT);\n"},
	}
	for _, tt := range tests {
		if got := extractUp(tt.in); got != tt.want {
			t.Errorf("%s: extractUp() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestApplyMigrationsRunsOnce(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	fsys := fstest.MapFS{
		"002_extra.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE extra (id INTEGER);\n")},
	}
	for i := 0; i < 2; i++ {
		if err := applyMigrations(ctx, store.sqlDB, fsys); err != nil {
			t.Fatalf("apply #%d: %v", i+1, err)
		}
	}

	var count int
	if err := store.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+migrationTable).Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 2 {
		t.Fatalf("applied migrations = %d, want 2", count)
	}
}
