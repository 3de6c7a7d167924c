package carteira

import "errors"

// Sentinel errors callers branch on. Everything else is wrapped context
// around one of these or a plain fmt.Errorf.
var (
	// ErrTransactionNotFound reports an id that matches no ledger entry.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrNoProvider reports an operation that needs an upstream provider
	// the session was built without.
	ErrNoProvider = errors.New("no provider configured")
)
