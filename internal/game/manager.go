// Package game tracks the chess game unfolding on the physical board:
// detected player moves are validated against the rules, the optional engine
// answers them, and engine replies are handed to the gantry.
package game

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/notnil/chess"

	"github.com/larkspur/tagboard/internal/monitoring"
	"github.com/larkspur/tagboard/internal/motion"
	"github.com/larkspur/tagboard/internal/store"
)

// Manager owns one game. All entry points are safe for concurrent use; the
// poll loop and the HTTP API both read it.
type Manager struct {
	mu sync.Mutex

	game     *chess.Game
	engine   Engine // nil: observer mode, no replies
	moveTime time.Duration

	motionPort io.Writer // nil: replies are logged but not executed

	db     *store.Store // nil: nothing recorded
	gameID string
	ply    int

	// pendingEngine is the engine reply the gantry is currently executing.
	// The sensors will report it as a detected move; it is acknowledged
	// instead of being applied twice.
	pendingEngine string
}

// Config wires a Manager. Any field may be left zero.
type Config struct {
	Engine     Engine
	MoveTime   time.Duration
	MotionPort io.Writer
	Store      *store.Store
}

// NewManager starts a fresh game and, when a store is present, opens its
// game row.
func NewManager(cfg Config) (*Manager, error) {
	m := &Manager{
		game:       chess.NewGame(),
		engine:     cfg.Engine,
		moveTime:   cfg.MoveTime,
		motionPort: cfg.MotionPort,
		db:         cfg.Store,
	}
	if m.moveTime <= 0 {
		m.moveTime = 100 * time.Millisecond
	}
	if m.db != nil {
		id, err := m.db.NewGame()
		if err != nil {
			return nil, err
		}
		m.gameID = id
	}
	return m, nil
}

// FEN returns the current position.
func (m *Manager) FEN() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.game.Position().String()
}

// Outcome returns the game result, or "*" while in progress.
func (m *Manager) Outcome() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.game.Outcome())
}

// GameID returns the store's game row ID, or "" without a store.
func (m *Manager) GameID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gameID
}

// HandleDetected processes a move detected on the physical board. Illegal
// or unparseable moves are ignored with a log line (a hand mid-move looks
// like garbage and the next sweep corrects it). When the move completes a
// pending engine reply it is acknowledged, not re-applied. Otherwise it is
// applied as the player's move and, when an engine is attached and the game
// is still live, the engine's reply is applied and sent to the gantry.
func (m *Manager) HandleDetected(uciMove string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pendingEngine != "" && uciMove == m.pendingEngine {
		m.pendingEngine = ""
		monitoring.Logf("game: engine move %s confirmed on board", uciMove)
		return nil
	}

	if err := m.applyMove(uciMove, "player", at); err != nil {
		monitoring.Logf("game: ignoring detected move %s: %v", uciMove, err)
		return nil
	}

	if m.engine == nil || m.game.Outcome() != chess.NoOutcome {
		return nil
	}
	return m.engineReply()
}

// ErrNoEngine is returned when an engine move is requested in observer mode.
var ErrNoEngine = errors.New("game: no engine attached")

// ForceEngineMove has the engine move in the current position, whoever's turn
// it is. Used to start an engine-as-White game or to nudge a stalled one.
func (m *Manager) ForceEngineMove() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.engine == nil {
		return ErrNoEngine
	}
	if m.game.Outcome() != chess.NoOutcome {
		return fmt.Errorf("game: already decided %s", m.game.Outcome())
	}
	return m.engineReply()
}

// engineReply asks the engine for its move in the current position, applies
// it, and hands it to the gantry. Caller holds the lock.
func (m *Manager) engineReply() error {
	reply, err := m.engine.BestMove(m.game, m.moveTime)
	if err != nil {
		return fmt.Errorf("game: engine reply: %w", err)
	}
	replyUCI := chess.UCINotation{}.Encode(m.game.Position(), reply)
	if err := m.applyMove(replyUCI, "engine", time.Now()); err != nil {
		return fmt.Errorf("game: apply engine reply %s: %w", replyUCI, err)
	}

	m.pendingEngine = replyUCI
	if m.motionPort != nil {
		if err := motion.ExecuteMove(m.motionPort, replyUCI); err != nil {
			return fmt.Errorf("game: execute engine reply %s: %w", replyUCI, err)
		}
	} else {
		monitoring.Logf("game: engine reply %s (no motion port attached)", replyUCI)
	}
	return nil
}

// applyMove validates and pushes one move, recording it when a store is
// attached. Caller holds the lock.
func (m *Manager) applyMove(uciMove, source string, at time.Time) error {
	move, err := chess.UCINotation{}.Decode(m.game.Position(), uciMove)
	if err != nil {
		return fmt.Errorf("decode %q: %w", uciMove, err)
	}
	san := chess.AlgebraicNotation{}.Encode(m.game.Position(), move)
	if err := m.game.Move(move); err != nil {
		return fmt.Errorf("illegal move %q: %w", uciMove, err)
	}
	m.ply++

	monitoring.Logf("game: %s move %s (%s)", source, uciMove, san)

	if m.db != nil {
		err := m.db.RecordMove(store.Move{
			GameID:     m.gameID,
			Ply:        m.ply,
			UCI:        uciMove,
			SAN:        san,
			Source:     source,
			DetectedAt: at,
		})
		if err != nil {
			monitoring.Logf("game: record move: %v", err)
		}
		if outcome := m.game.Outcome(); outcome != chess.NoOutcome {
			if err := m.db.FinishGame(m.gameID, string(outcome)); err != nil {
				monitoring.Logf("game: finish game: %v", err)
			}
		}
	}
	return nil
}

// Close shuts the engine down.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.engine != nil {
		return m.engine.Close()
	}
	return nil
}
