// Package store keeps the controller's game log in sqlite: one row per
// game, one row per detected or engine move. The scan units themselves hold
// no persistent state; only what happened on the board is recorded.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store wraps the sqlite handle.
type Store struct {
	*sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS games (
			game_id TEXT PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			outcome TEXT NOT NULL DEFAULT '*'
		);
		CREATE TABLE IF NOT EXISTS moves (
			game_id TEXT NOT NULL,
			ply INTEGER NOT NULL,
			uci TEXT NOT NULL,
			san TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL,
			detected_at TIMESTAMP NOT NULL,
			PRIMARY KEY (game_id, ply),
			FOREIGN KEY (game_id) REFERENCES games(game_id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &Store{db}, nil
}

// Move is one recorded ply.
type Move struct {
	GameID     string    `json:"game_id"`
	Ply        int       `json:"ply"`
	UCI        string    `json:"uci"`
	SAN        string    `json:"san"`
	Source     string    `json:"source"` // "player" or "engine"
	DetectedAt time.Time `json:"detected_at"`
}

// NewGame inserts a game row and returns its ID.
func (s *Store) NewGame() (string, error) {
	id := uuid.NewString()
	_, err := s.Exec(`INSERT INTO games (game_id, started_at) VALUES (?, ?)`, id, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("store: new game: %w", err)
	}
	return id, nil
}

// RecordMove appends one ply to a game.
func (s *Store) RecordMove(m Move) error {
	_, err := s.Exec(
		`INSERT INTO moves (game_id, ply, uci, san, source, detected_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.GameID, m.Ply, m.UCI, m.SAN, m.Source, m.DetectedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("store: record move %s ply %d: %w", m.UCI, m.Ply, err)
	}
	return nil
}

// FinishGame records the game's outcome ("1-0", "0-1", "1/2-1/2").
func (s *Store) FinishGame(gameID, outcome string) error {
	_, err := s.Exec(`UPDATE games SET outcome = ? WHERE game_id = ?`, outcome, gameID)
	if err != nil {
		return fmt.Errorf("store: finish game: %w", err)
	}
	return nil
}

// Moves lists a game's plies in order. An empty gameID lists every move.
func (s *Store) Moves(gameID string) ([]Move, error) {
	query := `SELECT game_id, ply, uci, san, source, detected_at FROM moves`
	args := []any{}
	if gameID != "" {
		query += ` WHERE game_id = ?`
		args = append(args, gameID)
	}
	query += ` ORDER BY game_id, ply`

	rows, err := s.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list moves: %w", err)
	}
	defer rows.Close()

	var out []Move
	for rows.Next() {
		var m Move
		if err := rows.Scan(&m.GameID, &m.Ply, &m.UCI, &m.SAN, &m.Source, &m.DetectedAt); err != nil {
			return nil, fmt.Errorf("store: scan move: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
