package game

import (
	"fmt"
	"time"

	"github.com/notnil/chess"
	"github.com/notnil/chess/uci"
)

// Engine produces reply moves. The production implementation shells out to a
// UCI engine; tests substitute a scripted one.
type Engine interface {
	BestMove(g *chess.Game, moveTime time.Duration) (*chess.Move, error)
	Close() error
}

// uciEngine drives an external UCI engine binary (stockfish, typically).
type uciEngine struct {
	eng *uci.Engine
}

// NewUCIEngine launches the engine at path and completes the UCI handshake.
func NewUCIEngine(path string) (Engine, error) {
	eng, err := uci.New(path)
	if err != nil {
		return nil, fmt.Errorf("game: start engine %s: %w", path, err)
	}
	if err := eng.Run(uci.CmdUCI, uci.CmdIsReady, uci.CmdUCINewGame); err != nil {
		eng.Close()
		return nil, fmt.Errorf("game: engine handshake: %w", err)
	}
	return &uciEngine{eng: eng}, nil
}

func (e *uciEngine) BestMove(g *chess.Game, moveTime time.Duration) (*chess.Move, error) {
	cmdPos := uci.CmdPosition{Position: g.Position()}
	cmdGo := uci.CmdGo{MoveTime: moveTime}
	if err := e.eng.Run(cmdPos, cmdGo); err != nil {
		return nil, fmt.Errorf("game: engine search: %w", err)
	}
	move := e.eng.SearchResults().BestMove
	if move == nil {
		return nil, fmt.Errorf("game: engine returned no move")
	}
	return move, nil
}

func (e *uciEngine) Close() error {
	e.eng.Close()
	return nil
}
