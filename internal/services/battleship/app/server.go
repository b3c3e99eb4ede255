package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/louisbranch/broadside/internal/platform/timeouts"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/board"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/turn"
	"github.com/louisbranch/broadside/internal/services/battleship/storage"
	"github.com/louisbranch/broadside/internal/services/battleship/transport"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"
)

// GameObserver extends Observer with the moment both boards are known.
type GameObserver interface {
	Observer
	Boards(own *board.Board, view *board.Knowledge)
}

// Options configures one game.
type Options struct {
	GameID string
	// Layout is the 100-symbol fleet description of our board.
	Layout  string
	Shots   ShotSource
	Opening ShotSource
	// Observer is optional.
	Observer GameObserver
	// Journal receives every move in addition to the in-memory history.
	Journal     storage.Journal
	Link        transport.Config
	DialTimeout time.Duration
	Logger      *log.Logger
	Now         func() time.Time
}

// Report describes a finished or aborted game.
type Report struct {
	GameID string
	Role   turn.Role
	Result turn.Result
	Moves  []storage.Move
	Own    *board.Board
	View   *board.Knowledge
}

// Listen binds addr and serves exactly one game on the first accepted
// connection.
func Listen(ctx context.Context, addr string, opts Options) (Report, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return Report{GameID: opts.GameID, Role: turn.RoleListener}, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return Serve(ctx, ln, opts)
}

// Serve accepts one connection from ln, closes ln and plays the game.
func Serve(ctx context.Context, ln net.Listener, opts Options) (Report, error) {
	logger := opts.logger()
	report := Report{GameID: opts.GameID, Role: turn.RoleListener}

	ln = netutil.LimitListener(ln, 1)
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	logger.Printf("listening at %v", ln.Addr())
	conn, err := ln.Accept()
	stop()
	_ = ln.Close()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}
		return report, fmt.Errorf("accept: %w", err)
	}
	logger.Printf("connected to %v", conn.RemoteAddr())
	return Play(ctx, conn, turn.RoleListener, opts)
}

// Dial connects to addr and plays the game as the side that fires first.
func Dial(ctx context.Context, addr string, opts Options) (Report, error) {
	logger := opts.logger()
	timeout := opts.DialTimeout
	if timeout <= 0 {
		timeout = timeouts.Dial
	}
	dialer := net.Dialer{Timeout: timeout}
	logger.Printf("connecting to %s", addr)
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Report{GameID: opts.GameID, Role: turn.RoleConnector}, fmt.Errorf("dial %s: %w", addr, err)
	}
	logger.Printf("connected to %v", conn.RemoteAddr())
	return Play(ctx, conn, turn.RoleConnector, opts)
}

// Play runs a game for role over conn and closes conn when done. The report
// is filled in even when the game was aborted.
func Play(ctx context.Context, conn net.Conn, role turn.Role, opts Options) (Report, error) {
	report := Report{GameID: opts.GameID, Role: role}
	own, err := board.Load(opts.Layout)
	if err != nil {
		_ = conn.Close()
		return report, err
	}
	report.Own = own

	memory := storage.NewMemoryJournal()
	recorder := storage.NewRecorder(opts.GameID, opts.Now, memory, opts.Journal)
	link := transport.NewLink(conn, opts.Link,
		transport.WithRecorder(recorder),
		transport.WithLogger(opts.logger()),
		transport.WithClock(opts.Now),
	)

	var observer Observer
	if opts.Observer != nil {
		observer = opts.Observer
	}
	session := NewSession(role, own, link, opts.Shots, opts.Opening, observer)
	report.View = session.View()
	if opts.Observer != nil {
		opts.Observer.Boards(own, session.View())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer link.Close()
		result, err := session.Play(gctx)
		report.Result = result
		return err
	})
	g.Go(func() error {
		return link.Watchdog(gctx)
	})
	err = g.Wait()

	// The journal outlives ctx so the history survives cancellation.
	moves, mErr := memory.Moves(context.WithoutCancel(ctx), opts.GameID)
	report.Moves = moves
	if err == nil && mErr != nil {
		err = mErr
	}
	if err != nil {
		return report, err
	}
	return report, nil
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(os.Stderr, log.Prefix(), log.Flags())
}
