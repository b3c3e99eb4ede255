package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	apperrors "github.com/louisbranch/broadside/internal/platform/errors"
	"github.com/louisbranch/broadside/internal/platform/i18n/catalog"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/board"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/grid"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/turn"
	"github.com/louisbranch/broadside/internal/services/battleship/storage"
)

func TestRender(t *testing.T) {
	snapshot := "#" + strings.Repeat(".", 98) + "@"
	var out bytes.Buffer
	if err := Render(&out, snapshot); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 11 {
		t.Fatalf("lines = %d, want 11", len(lines))
	}
	if lines[0] != "    A B C D E F G H I J" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != " 1  # . . . . . . . . ." {
		t.Fatalf("first row = %q", lines[1])
	}
	if lines[10] != "10  . . . . . . . . . @" {
		t.Fatalf("last row = %q", lines[10])
	}
}

func TestRenderRejectsShortSnapshot(t *testing.T) {
	if err := Render(io.Discard, "###"); err == nil {
		t.Fatal("expected error")
	}
}

func TestPromptRepromptsUntilUsable(t *testing.T) {
	view := board.NewKnowledge()
	view.Record(grid.MustParse("A1"), board.OutcomeMiss)
	in := strings.NewReader("Z9\nA1\n  b2 \n")
	var out bytes.Buffer
	prompt := NewPrompt(in, &out, catalog.Default().Printer("en"))

	c, err := prompt.NextShot(context.Background(), view)
	if err != nil {
		t.Fatalf("next shot: %v", err)
	}
	if c != grid.MustParse("B2") {
		t.Fatalf("shot = %s, want B2", c)
	}
	text := out.String()
	if strings.Count(text, "Enter shot coordinates") != 3 {
		t.Fatalf("expected three prompts, got %q", text)
	}
	if !strings.Contains(text, "Invalid coordinates") {
		t.Fatalf("missing invalid notice in %q", text)
	}
	if !strings.Contains(text, "Already fired at A1") {
		t.Fatalf("missing repeat notice in %q", text)
	}
}

func TestPromptFailsOnEndOfInput(t *testing.T) {
	prompt := NewPrompt(strings.NewReader(""), io.Discard, catalog.Default().Printer("pl"))
	_, err := prompt.NextShot(context.Background(), board.NewKnowledge())
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("error = %v, want unexpected EOF", err)
	}
}

func TestPromptStopsWaitingOnCancel(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	prompt := NewPrompt(r, io.Discard, catalog.Default().Printer("en"))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	done := make(chan error, 1)
	go func() {
		_, err := prompt.NextShot(ctx, board.NewKnowledge())
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("prompt still waiting after cancel")
	}

	// The pending read is kept for the next call.
	go func() { _, _ = io.WriteString(w, "c3\n") }()
	c, err := prompt.NextShot(context.Background(), board.NewKnowledge())
	if err != nil {
		t.Fatalf("next shot: %v", err)
	}
	if c != grid.MustParse("C3") {
		t.Fatalf("shot = %s, want C3", c)
	}
}

func TestDisplayInPolish(t *testing.T) {
	var out bytes.Buffer
	display := NewDisplay(&out, catalog.Default().Printer("pl"))
	display.Fired(grid.MustParse("C3"), board.OutcomeHitAndSunk)
	display.Incoming(grid.MustParse("D4"), board.OutcomeMiss)
	display.Turn(turn.ExpectShot, nil, nil)

	text := out.String()
	for _, want := range []string{
		"Strzał w C3: trafiony zatopiony",
		"Przeciwnik strzelił w D4: pudło",
		"=== RUCH PRZECIWNIKA ===",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output %q missing %q", text, want)
		}
	}
}

func TestFinishPrintsHistory(t *testing.T) {
	own, err := board.LoadWithRules("#"+strings.Repeat(".", 99), board.Rules{})
	if err != nil {
		t.Fatalf("load board: %v", err)
	}
	var out bytes.Buffer
	display := NewDisplay(&out, catalog.Default().Printer("en"))
	display.Finish(Summary{
		GameID: "abc",
		Result: turn.ResultWon,
		Own:    own,
		View:   board.NewKnowledge(),
		Moves: []storage.Move{
			{Seq: 1, Direction: storage.DirectionSent, Line: "start;A1"},
			{Seq: 2, Direction: storage.DirectionRetransmitted, Line: "start;A1"},
			{Seq: 3, Direction: storage.DirectionReceived, Line: "ostatni zatopiony"},
		},
	}, nil)

	text := out.String()
	for _, want := range []string{
		"You won!",
		"Move history (game abc):",
		"  1. Sent: start;A1",
		"  2. Resent: start;A1",
		"  3. Received: ostatni zatopiony",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output %q missing %q", text, want)
		}
	}
}

func TestFinishReportsAbort(t *testing.T) {
	var out bytes.Buffer
	display := NewDisplay(&out, catalog.Default().Printer("en"))
	cause := apperrors.New(apperrors.CodeCommunicationFault, "communication failed after 3 attempts")
	display.Finish(Summary{}, cause)
	if !strings.Contains(out.String(), "Game aborted: communication failed after 3 attempts") {
		t.Fatalf("output = %q", out.String())
	}
	if strings.Contains(out.String(), "won") {
		t.Fatalf("abort reported as a result: %q", out.String())
	}
}
