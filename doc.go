// Package carteira tracks a personal investment portfolio of B3-listed
// stocks and real-estate funds (FIIs).
//
// The package reduces an append-only log of buy and sell transactions into
// current positions with average cost basis, reconciles dividend
// announcements scraped from unreliable upstream providers, and computes
// realized dividend income from point-in-time eligibility (quantity held on
// the record date).
//
// Derived datasets are fingerprinted so that callers can skip expensive
// re-rendering when nothing changed; see Gate and Debouncer. The Session
// type owns all mutable state for one user and orchestrates concurrent
// provider refreshes with all-settled semantics.
package carteira
