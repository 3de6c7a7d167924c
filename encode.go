package carteira

import (
	"encoding/json"
	"fmt"
	"io"
)

// The ledger and the announcement book are persisted as JSONL: one JSON
// object per line. Lines are self-contained, so a truncated file loses at
// most its last record, and diffs stay readable.

// EncodeLedger writes the ledger to w, one transaction per line, in
// chronological order.
func EncodeLedger(w io.Writer, l *Ledger) error {
	enc := json.NewEncoder(w)
	for tx := range l.Transactions() {
		if err := enc.Encode(tx); err != nil {
			return fmt.Errorf("encoding ledger: %w", err)
		}
	}
	return nil
}

// DecodeLedger reads a ledger from w. Records were validated on write, so
// decoding skips validation; the quantities are trusted as-is.
func DecodeLedger(r io.Reader) (*Ledger, error) {
	l := NewLedger()
	dec := json.NewDecoder(r)
	for n := 1; ; n++ {
		var tx Transaction
		if err := dec.Decode(&tx); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("decoding ledger record %d: %w", n, err)
		}
		l.append(tx)
	}
	return l, nil
}

// EncodeAnnouncements writes the announcement book to w, one per line.
func EncodeAnnouncements(w io.Writer, anns []Announcement) error {
	enc := json.NewEncoder(w)
	for _, a := range anns {
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("encoding announcements: %w", err)
		}
	}
	return nil
}

// DecodeAnnouncements reads an announcement book from r.
func DecodeAnnouncements(r io.Reader) ([]Announcement, error) {
	var anns []Announcement
	dec := json.NewDecoder(r)
	for n := 1; ; n++ {
		var a Announcement
		if err := dec.Decode(&a); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("decoding announcement record %d: %w", n, err)
		}
		anns = append(anns, a)
	}
	return anns, nil
}
