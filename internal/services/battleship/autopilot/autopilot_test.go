package autopilot

import (
	"bytes"
	"context"
	"log"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/broadside/internal/platform/errors"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/board"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/grid"
)

func TestRandomNeverRepeats(t *testing.T) {
	r := NewRandom(rand.New(rand.NewSource(7)))
	view := board.NewKnowledge()
	seen := map[grid.Coord]bool{}
	for i := 0; i < grid.Cells; i++ {
		c, err := r.NextShot(context.Background(), view)
		if err != nil {
			t.Fatalf("shot %d: %v", i, err)
		}
		if seen[c] {
			t.Fatalf("shot %d repeated %s", i, c)
		}
		seen[c] = true
		view.Record(c, board.OutcomeMiss)
	}
	_, err := r.NextShot(context.Background(), view)
	if !apperrors.HasCode(err, apperrors.CodeCoordinateFault) {
		t.Fatalf("exhausted board error = %v, want coordinate fault", err)
	}
}

func TestRandomSkipsInferredMisses(t *testing.T) {
	r := NewRandom(rand.New(rand.NewSource(1)))
	view := board.NewKnowledge()
	view.Record(grid.MustParse("E5"), board.OutcomeHitAndSunk)
	for i := 0; i < 200; i++ {
		c, err := r.NextShot(context.Background(), view)
		if err != nil {
			t.Fatalf("next shot: %v", err)
		}
		if view.Fired(c) {
			t.Fatalf("picked %s which is already known", c)
		}
	}
}

func loadTestScript(t *testing.T, name string) (*Script, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	script, err := LoadScript(filepath.Join("testdata", name), NewRandom(rand.New(rand.NewSource(3))), log.New(&logs, "", 0))
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return script, &logs
}

func TestScriptSweep(t *testing.T) {
	script, logs := loadTestScript(t, "sweep.lua")
	view := board.NewKnowledge()
	for _, want := range []string{"A1", "B1", "C1"} {
		c, err := script.NextShot(context.Background(), view)
		if err != nil {
			t.Fatalf("next shot: %v", err)
		}
		if c.String() != want {
			t.Fatalf("shot = %s, want %s", c, want)
		}
		view.Record(c, board.OutcomeMiss)
	}
	if logs.Len() != 0 {
		t.Fatalf("unexpected fallback logs: %s", logs.String())
	}
}

func TestScriptCheckerboardFollowsHits(t *testing.T) {
	script, _ := loadTestScript(t, "checkerboard.lua")
	view := board.NewKnowledge()

	first, err := script.NextShot(context.Background(), view)
	if err != nil {
		t.Fatalf("first shot: %v", err)
	}
	if first.String() != "A1" {
		t.Fatalf("first shot = %s, want A1", first)
	}

	view.Record(grid.MustParse("E5"), board.OutcomeHit)
	next, err := script.NextShot(context.Background(), view)
	if err != nil {
		t.Fatalf("hunt shot: %v", err)
	}
	if next != grid.MustParse("E4") {
		t.Fatalf("hunt shot = %s, want E4 above the hit", next)
	}
}

func TestScriptFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		script string
		log    string
	}{
		{name: "repeated answer", script: "repeat.lua", log: "already fired at A1"},
		{name: "runtime error", script: "broken.lua", log: "strategy crashed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, logs := loadTestScript(t, tt.script)
			view := board.NewKnowledge()
			view.Record(grid.MustParse("A1"), board.OutcomeMiss)

			c, err := script.NextShot(context.Background(), view)
			if err != nil {
				t.Fatalf("next shot: %v", err)
			}
			if view.Fired(c) {
				t.Fatalf("fallback picked fired cell %s", c)
			}
			if !strings.Contains(logs.String(), tt.log) {
				t.Fatalf("logs = %q, want %q", logs.String(), tt.log)
			}
		})
	}
}

func TestLoadScriptRejectsMissingEntryPoint(t *testing.T) {
	_, err := LoadScript(filepath.Join("testdata", "missing.lua"), NewRandom(rand.New(rand.NewSource(1))), nil)
	if err == nil || !strings.Contains(err.Error(), "next_shot") {
		t.Fatalf("error = %v, want missing next_shot", err)
	}
	if _, err := LoadScript(filepath.Join("testdata", "nope.lua"), NewRandom(rand.New(rand.NewSource(1))), nil); err == nil {
		t.Fatal("expected missing file to fail")
	}
}
