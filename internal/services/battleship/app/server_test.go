package server

import (
	"context"
	"errors"
	"io"
	"log"
	"math/rand"
	"net"
	"strings"
	"testing"
	"time"

	apperrors "github.com/louisbranch/broadside/internal/platform/errors"
	"github.com/louisbranch/broadside/internal/services/battleship/autopilot"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/board"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/turn"
	"github.com/louisbranch/broadside/internal/services/battleship/storage"
	"github.com/louisbranch/broadside/internal/services/battleship/transport"
)

const standardLayout = "" +
	"####......" +
	".........." +
	"###.###..." +
	".........." +
	"##.##.##.." +
	".........." +
	"#.#.#.#..." +
	".........." +
	".........." +
	".........."

var quiet = log.New(io.Discard, "", 0)

type boardsObserver struct {
	recordingObserver
	own  *board.Board
	view *board.Knowledge
}

func (o *boardsObserver) Boards(own *board.Board, view *board.Knowledge) {
	o.own, o.view = own, view
}

func linesByDirection(moves []storage.Move, direction storage.Direction) []string {
	var out []string
	for _, move := range moves {
		if move.Direction == direction {
			out = append(out, move.Line)
		}
	}
	return out
}

func TestLoopbackGame(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	type served struct {
		report Report
		err    error
	}
	done := make(chan served, 1)
	go func() {
		report, err := Serve(ctx, ln, Options{
			GameID: "listener",
			Layout: standardLayout,
			Shots:  autopilot.NewRandom(rand.New(rand.NewSource(1))),
			Logger: quiet,
		})
		done <- served{report, err}
	}()

	journal := storage.NewMemoryJournal()
	observer := &boardsObserver{}
	connector, err := Dial(ctx, ln.Addr().String(), Options{
		GameID:   "connector",
		Layout:   standardLayout,
		Shots:    autopilot.NewRandom(rand.New(rand.NewSource(2))),
		Opening:  autopilot.NewRandom(rand.New(rand.NewSource(3))),
		Observer: observer,
		Journal:  journal,
		Logger:   quiet,
	})
	if err != nil {
		t.Fatalf("connector: %v", err)
	}
	listener := <-done
	if listener.err != nil {
		t.Fatalf("listener: %v", listener.err)
	}

	results := map[turn.Result]int{connector.Result: 1}
	results[listener.report.Result]++
	if results[turn.ResultWon] != 1 || results[turn.ResultLost] != 1 {
		t.Fatalf("expected one winner and one loser, got %v and %v", connector.Result, listener.report.Result)
	}
	if connector.Role != turn.RoleConnector || listener.report.Role != turn.RoleListener {
		t.Fatalf("unexpected roles %v %v", connector.Role, listener.report.Role)
	}

	sent := linesByDirection(connector.Moves, storage.DirectionSent)
	received := linesByDirection(listener.report.Moves, storage.DirectionReceived)
	if strings.Join(sent, "|") != strings.Join(received, "|") {
		t.Fatalf("connector sent %q but listener received %q", sent, received)
	}
	if !strings.HasPrefix(sent[0], "start;") {
		t.Fatalf("expected the connector to open with a shot, got %q", sent[0])
	}

	loser := listener.report
	if connector.Result == turn.ResultLost {
		loser = connector
	}
	last := loser.Moves[len(loser.Moves)-1]
	if last.Direction != storage.DirectionSent || last.Line != "ostatni zatopiony" {
		t.Fatalf("expected loser to end with the last-sunk line, got %+v", last)
	}
	if !loser.Own.AllSunk() {
		t.Fatal("expected every ship of the loser sunk")
	}

	stored, err := journal.Moves(context.Background(), "connector")
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	if len(stored) != len(connector.Moves) {
		t.Fatalf("journal has %d moves, report has %d", len(stored), len(connector.Moves))
	}
	if observer.own != connector.Own || observer.view != connector.View {
		t.Fatal("expected the observer to see the game boards")
	}
	if len(observer.fired) == 0 {
		t.Fatal("expected fired shots to be observed")
	}
}

func TestServeGivesUpOnSilentPeer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	peer := make(chan net.Conn, 1)
	go func() {
		conn, err := net.Dial("tcp", ln.Addr().String())
		if err != nil {
			peer <- nil
			return
		}
		peer <- conn
	}()

	report, err := Serve(context.Background(), ln, Options{
		GameID: "silent",
		Layout: standardLayout,
		Shots:  autopilot.NewRandom(rand.New(rand.NewSource(1))),
		Link: transport.Config{
			ReadTimeout:      20 * time.Millisecond,
			WatchdogInterval: 10 * time.Millisecond,
			QuietPeriod:      time.Hour,
		},
		Logger: quiet,
	})
	if conn := <-peer; conn != nil {
		defer conn.Close()
	}
	if !apperrors.HasCode(err, apperrors.CodeCommunicationFault) {
		t.Fatalf("expected communication fault, got %v", err)
	}
	if report.Result != turn.ResultInProgress {
		t.Fatalf("expected no result, got %v", report.Result)
	}
	if len(report.Moves) != 0 {
		t.Fatalf("expected nothing journalled, got %+v", report.Moves)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Serve(ctx, ln, Options{GameID: "cancelled", Layout: standardLayout, Logger: quiet})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestPlayRejectsInvalidLayout(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()

	_, err := Play(context.Background(), local, turn.RoleListener, Options{Layout: "#", Logger: quiet})
	if !apperrors.HasCode(err, apperrors.CodeInvalidLayout) {
		t.Fatalf("expected invalid layout, got %v", err)
	}
}

func TestDialFailsWithoutPeer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	report, err := Dial(context.Background(), addr, Options{GameID: "nobody", Layout: standardLayout, DialTimeout: time.Second, Logger: quiet})
	if err == nil {
		t.Fatal("expected dial error")
	}
	if report.Role != turn.RoleConnector {
		t.Fatalf("expected connector role in report, got %v", report.Role)
	}
}
