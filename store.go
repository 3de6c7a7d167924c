package carteira

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store reads and writes the portfolio data files inside one directory:
// transactions.jsonl and dividends.jsonl.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) ledgerPath() string       { return filepath.Join(s.dir, "transactions.jsonl") }
func (s *Store) announcementPath() string { return filepath.Join(s.dir, "dividends.jsonl") }

// LoadLedger reads the transaction log. A missing file is an empty ledger,
// not an error: first run starts from nothing.
func (s *Store) LoadLedger() (*Ledger, error) {
	f, err := os.Open(s.ledgerPath())
	if errors.Is(err, fs.ErrNotExist) {
		return NewLedger(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeLedger(f)
}

// SaveLedger writes the transaction log atomically: encode to a temp file
// in the same directory, then rename over the target. A crash mid-write
// leaves the previous file intact.
func (s *Store) SaveLedger(l *Ledger) error {
	return s.writeAtomic(s.ledgerPath(), func(f *os.File) error {
		return EncodeLedger(f, l)
	})
}

// SaveTransactions writes a transaction snapshot atomically. Used by
// callers that hold transactions rather than a Ledger.
func (s *Store) SaveTransactions(txs []Transaction) error {
	return s.writeAtomic(s.ledgerPath(), func(f *os.File) error {
		enc := json.NewEncoder(f)
		for _, tx := range txs {
			if err := enc.Encode(tx); err != nil {
				return fmt.Errorf("encoding ledger: %w", err)
			}
		}
		return nil
	})
}

// LoadAnnouncements reads the dividend announcement book. A missing file
// is an empty book.
func (s *Store) LoadAnnouncements() ([]Announcement, error) {
	f, err := os.Open(s.announcementPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeAnnouncements(f)
}

// SaveAnnouncements writes the dividend announcement book atomically.
func (s *Store) SaveAnnouncements(anns []Announcement) error {
	return s.writeAtomic(s.announcementPath(), func(f *os.File) error {
		return EncodeAnnouncements(f, anns)
	})
}

func (s *Store) writeAtomic(path string, write func(*os.File) error) error {
	f, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
