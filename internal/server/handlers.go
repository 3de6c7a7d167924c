package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gmporto/carteira"
	"github.com/gmporto/carteira/renderer"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encoding response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Transactions())
}

// transactionRequest is the mutation payload. The id is taken from the
// URL, never the body.
type transactionRequest struct {
	Symbol   string  `json:"symbol"`
	Type     string  `json:"type"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Date     string  `json:"date"`
}

func (req transactionRequest) toTransaction() (carteira.Transaction, error) {
	side, err := carteira.ParseSide(req.Type)
	if err != nil {
		return carteira.Transaction{}, err
	}
	var date carteira.Date
	if req.Date != "" {
		date, err = carteira.ParseDate(req.Date)
		if err != nil {
			return carteira.Transaction{}, err
		}
	}
	tx := carteira.Transaction{
		Symbol:   req.Symbol,
		Side:     side,
		Quantity: req.Quantity,
		Price:    req.Price,
		Date:     date,
	}
	return tx.Validate()
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	tx, err := req.toTransaction()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.session.AddTransaction(tx); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.persistLedger(w)
	s.writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	tx, err := req.toTransaction()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.session.EditTransaction(id, tx); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.persistLedger(w)
	tx.ID = id
	s.writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleRemoveTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.session.RemoveTransaction(id); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.persistLedger(w)
	// Announcement cleanup may have run; keep the book in sync too.
	s.persistAnnouncements()
	w.WriteHeader(http.StatusNoContent)
}

func statusFor(err error) int {
	if errors.Is(err, carteira.ErrTransactionNotFound) {
		return http.StatusNotFound
	}
	return http.StatusUnprocessableEntity
}

func (s *Server) persistLedger(w http.ResponseWriter) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveTransactions(s.session.Transactions()); err != nil {
		s.log.Error().Err(err).Msg("persisting ledger")
	}
}

func (s *Server) persistAnnouncements() {
	if s.store == nil {
		return
	}
	if err := s.store.SaveAnnouncements(s.session.AllAnnouncements()); err != nil {
		s.log.Error().Err(err).Msg("persisting announcements")
	}
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Positions())
}

func (s *Server) handleDividends(w http.ResponseWriter, r *http.Request) {
	settlement := s.session.SettleDividends()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"announcements": s.session.Announcements(),
		"realized":      settlement.TotalCash,
	})
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Quotes())
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Articles())
}

// handleHistory returns monthly dividend income totals, keyed YYYY-MM.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	totals := carteira.MonthlyTotals(s.session.History(), s.session.QuantityHeldAsOf)
	s.writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d := renderer.Dashboard{
		Today:         carteira.Today(),
		Positions:     s.session.Positions(),
		Quotes:        s.session.Quotes(),
		Announcements: s.session.AllAnnouncements(),
		Articles:      s.session.Articles(),
		History:       s.session.History(),
		Realized:      s.session.RealizedDividends(),
		Held:          s.session.QuantityHeldAsOf,
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(d.Markdown()))
}

// handleSync runs a full refresh cycle on demand: dividend scrape plus
// quote and news fetches.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	fresh, err := s.session.SyncDividends(r.Context())
	if err != nil && !errors.Is(err, carteira.ErrNoProvider) {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.session.Refresh(r.Context())
	s.persistAnnouncements()
	s.writeJSON(w, http.StatusOK, map[string]any{"newAnnouncements": len(fresh)})
}
