package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// snapshot is the on-disk shape of the store. Absolute deadlines are
// persisted, not TTLs: an entry that was due to expire while the process
// was down is dropped on load.
type snapshot struct {
	Entries map[string]snapshotEntry `msgpack:"entries"`
}

type snapshotEntry struct {
	Value     []byte    `msgpack:"value"`
	ExpiresAt time.Time `msgpack:"expiresAt"`
}

// Save writes the store to path as a msgpack snapshot, atomically. On any
// failure the store clears itself: a cache that cannot persist must not
// keep serving values that will silently diverge from the next restart.
func (s *Store) Save(path string) error {
	s.mu.Lock()
	snap := snapshot{Entries: make(map[string]snapshotEntry, len(s.entries))}
	for k, e := range s.entries {
		snap.Entries[k] = snapshotEntry{Value: e.value, ExpiresAt: e.expiresAt}
	}
	s.mu.Unlock()

	if err := writeSnapshot(path, snap); err != nil {
		s.Clear()
		return fmt.Errorf("persisting cache: %w", err)
	}
	return nil
}

func writeSnapshot(path string, snap snapshot) error {
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Load replaces the store's contents with the snapshot at path. A missing
// file is an empty cache; a corrupt one is discarded the same way, since a
// cache can always be refilled from upstream.
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		s.Clear()
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	clear(s.entries)
	for k, se := range snap.Entries {
		e := entry{value: se.Value, expiresAt: se.ExpiresAt}
		if e.expired(now) {
			continue
		}
		s.entries[k] = e
	}
	return nil
}
