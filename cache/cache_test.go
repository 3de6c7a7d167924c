package cache

import (
	"path/filepath"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore() (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)}
	return New(WithClock(clock.now)), clock
}

func TestGetAroundDeadline(t *testing.T) {
	s, clock := newTestStore()
	s.Set("quote:PETR4", []byte("38.10"), time.Minute)

	clock.advance(time.Minute - time.Second)
	if _, ok := s.Get("quote:PETR4"); !ok {
		t.Error("entry expired one second before its deadline")
	}

	clock.advance(2 * time.Second)
	if _, ok := s.Get("quote:PETR4"); ok {
		t.Error("entry still served one second after its deadline")
	}

	// Lazy expiry: the read above evicted it.
	if s.Len() != 0 {
		t.Errorf("store holds %d entries after eviction, want 0", s.Len())
	}
}

func TestNeverExpires(t *testing.T) {
	s, clock := newTestStore()
	s.Set("asset-name:PETR4", []byte("Petrobras PN"), NeverExpires)

	clock.advance(24 * 365 * time.Hour)
	if _, ok := s.Get("asset-name:PETR4"); !ok {
		t.Error("non-expiring entry was evicted")
	}
}

func TestSetOverwrites(t *testing.T) {
	s, clock := newTestStore()
	s.Set("k", []byte("old"), time.Second)
	clock.advance(30 * time.Second)
	s.Set("k", []byte("new"), time.Minute)

	v, ok := s.Get("k")
	if !ok || string(v) != "new" {
		t.Errorf("Get = %q/%v, want new/true", v, ok)
	}
}

func TestMarketOpen(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"monday mid-session", time.Date(2024, 6, 3, 14, 0, 0, 0, saoPaulo), true},
		{"monday at open", time.Date(2024, 6, 3, 10, 0, 0, 0, saoPaulo), true},
		{"monday before open", time.Date(2024, 6, 3, 9, 59, 0, 0, saoPaulo), false},
		{"monday at close", time.Date(2024, 6, 3, 18, 0, 0, 0, saoPaulo), false},
		{"saturday", time.Date(2024, 6, 1, 14, 0, 0, 0, saoPaulo), false},
		{"utc converts to local", time.Date(2024, 6, 3, 20, 0, 0, 0, time.UTC), true}, // 17:00 in São Paulo
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MarketOpen(tt.t); got != tt.want {
				t.Errorf("MarketOpen(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestQuoteTTLFollowsSession(t *testing.T) {
	open := time.Date(2024, 6, 3, 14, 0, 0, 0, saoPaulo)
	closed := time.Date(2024, 6, 1, 14, 0, 0, 0, saoPaulo)
	if TTL(ClassQuote, open) >= TTL(ClassQuote, closed) {
		t.Error("open-session quote TTL should be shorter than closed-session TTL")
	}
	if TTL(ClassDividend, open) >= TTL(ClassDividend, closed) {
		t.Error("open-session dividend TTL should be shorter than closed-session TTL")
	}
	// Same split, different magnitudes per class.
	if TTL(ClassDividend, open) <= TTL(ClassQuote, open) {
		t.Error("dividend lookups should outlive quotes within the session")
	}
	if TTL(ClassAssetName, open) != NeverExpires {
		t.Error("asset names must never expire")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.msgpack")

	s, clock := newTestStore()
	s.Set("quote:PETR4", []byte("38.10"), time.Minute)
	s.Set("asset-name:PETR4", []byte("Petrobras PN"), NeverExpires)
	s.Set("news:latest", []byte("..."), 30*time.Minute)
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}

	// Restart 5 minutes later: the quote's deadline has passed, the rest
	// survives.
	clock.advance(5 * time.Minute)
	restored := New(WithClock(clock.now))
	if err := restored.Load(path); err != nil {
		t.Fatal(err)
	}
	if _, ok := restored.Get("quote:PETR4"); ok {
		t.Error("entry expired during downtime was restored")
	}
	if v, ok := restored.Get("asset-name:PETR4"); !ok || string(v) != "Petrobras PN" {
		t.Errorf("non-expiring entry = %q/%v after restore", v, ok)
	}
	if _, ok := restored.Get("news:latest"); !ok {
		t.Error("live entry lost across restart")
	}
}

func TestLoadMissingFile(t *testing.T) {
	s, _ := newTestStore()
	if err := s.Load(filepath.Join(t.TempDir(), "absent.msgpack")); err != nil {
		t.Fatalf("missing snapshot treated as error: %v", err)
	}
}

func TestSaveFailureClearsStore(t *testing.T) {
	s, _ := newTestStore()
	s.Set("k", []byte("v"), NeverExpires)

	// Target directory does not exist, so the temp file cannot be created.
	if err := s.Save(filepath.Join(t.TempDir(), "no-such-dir", "cache.msgpack")); err == nil {
		t.Fatal("Save into a missing directory succeeded")
	}
	if s.Len() != 0 {
		t.Error("store kept its entries after a failed persist")
	}
}
