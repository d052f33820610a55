package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleWatchlist handles GET /v1/watchlist?limit=N. A missing limit means
// the configured maximum.
func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	const op = "api.watchlist"
	n := s.maxLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			s.writeError(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("limit must be a positive integer")))
			return
		}
		if v > s.maxLimit {
			s.writeError(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("limit exceeds %d", s.maxLimit)))
			return
		}
		n = v
	}
	entries, err := s.deps.Watchlist(r.Context(), n)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleWatchlistEntry handles GET /v1/watchlist/{studentID}.
func (s *Server) handleWatchlistEntry(w http.ResponseWriter, r *http.Request) {
	const op = "api.watchlist_entry"
	entry, err := s.deps.WatchlistEntry(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
