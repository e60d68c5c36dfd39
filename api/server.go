// Package api exposes the controller's view of the board over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/larkspur/tagboard/internal/controller"
	"github.com/larkspur/tagboard/internal/game"
	"github.com/larkspur/tagboard/internal/store"
)

type Server struct {
	ctrl *controller.Controller
	db   *store.Store
}

// NewServer builds the API over the controller and the game log. db may be
// nil when the controller runs without persistence.
func NewServer(ctrl *controller.Controller, db *store.Store) *Server {
	return &Server{
		ctrl: ctrl,
		db:   db,
	}
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Welcome to the tagboard controller!"))
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/board", s.boardHandler)
	mux.HandleFunc("/fen", s.fenHandler)
	mux.HandleFunc("/moves", s.movesHandler)
	mux.HandleFunc("/units", s.unitsHandler)
	mux.HandleFunc("/engine-move", s.engineMoveHandler)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// boardHandler reports the most recently assembled physical position as
// piece labels, row 0 = rank 8.
func (s *Server) boardHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	pos := s.ctrl.Position()
	writeJSON(w, map[string]any{
		"squares":  s.ctrl.Rendered(),
		"occupied": pos.Occupied(),
	})
}

func (s *Server) fenHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	fen := s.ctrl.FEN()
	if fen == "" {
		http.Error(w, "No game in progress", http.StatusNotFound)
		return
	}
	fmt.Fprintln(w, fen)
}

func (s *Server) movesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.db == nil {
		http.Error(w, "No game log configured", http.StatusNotFound)
		return
	}
	moves, err := s.db.Moves(r.URL.Query().Get("game"))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve moves: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, moves)
}

// engineMoveHandler makes the engine move immediately, e.g. to open a game
// with the engine as White. Unavailable in observer mode.
func (s *Server) engineMoveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.ctrl.ForceEngineMove(); err != nil {
		if errors.Is(err, game.ErrNoEngine) {
			http.Error(w, "No engine attached", http.StatusConflict)
			return
		}
		http.Error(w, fmt.Sprintf("Engine move failed: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"fen": s.ctrl.FEN()})
}

func (s *Server) unitsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.ctrl.Units())
}
