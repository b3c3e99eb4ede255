package autopilot

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/Shopify/go-lua"
	apperrors "github.com/louisbranch/broadside/internal/platform/errors"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/board"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/grid"
)

const entryPoint = "next_shot"

// Fallback answers when the script cannot.
type Fallback interface {
	NextShot(ctx context.Context, view *board.Knowledge) (grid.Coord, error)
}

// Script runs a Lua strategy. A Lua state is single-threaded, so calls are
// serialised.
type Script struct {
	path     string
	fallback Fallback
	logger   *log.Logger

	mu    sync.Mutex
	state *lua.State
}

// LoadScript runs the file at path once and checks that it defines
// next_shot. A nil logger uses the standard logger.
func LoadScript(path string, fallback Fallback, logger *log.Logger) (*Script, error) {
	if fallback == nil {
		return nil, fmt.Errorf("script fallback is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	state := lua.NewState()
	lua.OpenLibraries(state)
	state.Register("to_coord", luaToCoord)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}
	state.Global(entryPoint)
	defined := state.IsFunction(-1)
	state.Pop(1)
	if !defined {
		return nil, fmt.Errorf("strategy %s must define function %s(view)", path, entryPoint)
	}
	return &Script{path: path, fallback: fallback, logger: logger, state: state}, nil
}

// NextShot asks the script for a coordinate. Errors, off-board answers and
// cells already fired upon are logged and answered by the fallback.
func (s *Script) NextShot(ctx context.Context, view *board.Knowledge) (grid.Coord, error) {
	c, err := s.ask(view)
	if err == nil {
		return c, nil
	}
	s.logger.Printf("strategy %s: %v; using fallback", s.path, err)
	return s.fallback.NextShot(ctx, view)
}

func (s *Script) ask(view *board.Knowledge) (grid.Coord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	top := s.state.Top()
	defer s.state.SetTop(top)

	s.state.Global(entryPoint)
	s.state.PushString(view.Snapshot())
	if err := s.state.ProtectedCall(1, 1, 0); err != nil {
		return grid.Coord{}, fmt.Errorf("call %s: %w", entryPoint, err)
	}
	answer, ok := s.state.ToString(-1)
	if !ok {
		return grid.Coord{}, apperrors.Newf(apperrors.CodeCoordinateFault, "%s returned %s, want a coordinate string",
			entryPoint, lua.TypeNameOf(s.state, -1))
	}
	c, err := grid.Parse(answer)
	if err != nil {
		return grid.Coord{}, err
	}
	if view.Fired(c) {
		return grid.Coord{}, apperrors.WithMetadata(apperrors.CodeCoordinateFault,
			"already fired at "+c.String(), map[string]string{"Coord": c.String()})
	}
	return c, nil
}

// luaToCoord maps a 1-based view index to its coordinate text.
func luaToCoord(state *lua.State) int {
	index := lua.CheckInteger(state, 1)
	if index < 1 || index > grid.Cells {
		lua.ArgumentError(state, 1, "index out of range")
	}
	state.PushString(grid.FromIndex(index - 1).String())
	return 1
}
