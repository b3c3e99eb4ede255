package protocol

import (
	"testing"

	apperrors "github.com/louisbranch/broadside/internal/platform/errors"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/board"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/grid"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		msg  Message
		want string
	}{
		{msg: Shot(grid.MustParse("a5")), want: "start;A5"},
		{msg: Result(grid.MustParse("J10"), board.OutcomeMiss), want: "pudło;J10"},
		{msg: Result(grid.MustParse("B2"), board.OutcomeHit), want: "trafiony;B2"},
		{msg: Result(grid.MustParse("C3"), board.OutcomeHitAndSunk), want: "trafiony zatopiony;C3"},
		{msg: Result(grid.MustParse("D4"), board.OutcomeLastSunk), want: "ostatni zatopiony"},
	}
	for _, tt := range tests {
		got, err := Encode(tt.msg)
		if err != nil {
			t.Fatalf("encode %+v: %v", tt.msg, err)
		}
		if got != tt.want {
			t.Fatalf("encode = %q, want %q", got, tt.want)
		}
	}
}

func TestEncodeRejectsInvalid(t *testing.T) {
	if _, err := Encode(Shot(grid.At(10, 10))); !apperrors.HasCode(err, apperrors.CodeCoordinateFault) {
		t.Fatalf("off-board shot error = %v", err)
	}
	if _, err := Encode(Message{Kind: KindResult, Coord: grid.At(0, 0), HasCoord: true}); !apperrors.HasCode(err, apperrors.CodeProtocolFault) {
		t.Fatalf("outcome none error = %v", err)
	}
	if _, err := Encode(Message{}); !apperrors.HasCode(err, apperrors.CodeProtocolFault) {
		t.Fatalf("zero message error = %v", err)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		line string
		want Message
	}{
		{line: "start;A5", want: Shot(grid.MustParse("A5"))},
		{line: "start;j10\r", want: Shot(grid.MustParse("J10"))},
		{line: "strzał;C1", want: Shot(grid.MustParse("C1"))},
		{line: "pudło;E5", want: Result(grid.MustParse("E5"), board.OutcomeMiss)},
		{line: "start;\uff21\uff15", want: Shot(grid.MustParse("A5"))},
		{line: "trafiony;B2", want: Result(grid.MustParse("B2"), board.OutcomeHit)},
		{line: "trafiony zatopiony;H8", want: Result(grid.MustParse("H8"), board.OutcomeHitAndSunk)},
		{line: "ostatni zatopiony", want: Result(grid.Coord{}, board.OutcomeLastSunk)},
		{line: "  ostatni zatopiony \n", want: Result(grid.Coord{}, board.OutcomeLastSunk)},
	}
	for _, tt := range tests {
		got, err := Decode(tt.line)
		if err != nil {
			t.Fatalf("decode %q: %v", tt.line, err)
		}
		if got != tt.want {
			t.Fatalf("decode %q = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

func TestDecodeRejects(t *testing.T) {
	for _, line := range []string{
		"",
		"\r",
		"start",
		"start;",
		"start;K1",
		"start;A11",
		"start;A1;B2",
		"pudło",
		"trafiony;",
		"ostatni zatopiony;A1",
		"zatopiony;A1",
		"hello world",
	} {
		_, err := Decode(line)
		if !apperrors.HasCode(err, apperrors.CodeProtocolFault) {
			t.Fatalf("decode %q error = %v, want protocol fault", line, err)
		}
		if apperrors.CodeOf(err) != apperrors.CodeProtocolFault {
			t.Fatalf("decode %q outer code = %s", line, apperrors.CodeOf(err))
		}
	}
}

func TestRoundTrip(t *testing.T) {
	outcomes := []board.Outcome{board.OutcomeMiss, board.OutcomeHit, board.OutcomeHitAndSunk, board.OutcomeLastSunk}
	for index := 0; index < grid.Cells; index++ {
		c := grid.FromIndex(index)
		messages := []Message{Shot(c)}
		for _, o := range outcomes {
			messages = append(messages, Result(c, o))
		}
		for _, msg := range messages {
			line, err := Encode(msg)
			if err != nil {
				t.Fatalf("encode %+v: %v", msg, err)
			}
			got, err := Decode(line + "\n")
			if err != nil {
				t.Fatalf("decode %q: %v", line, err)
			}
			if got != msg {
				t.Fatalf("round trip %q = %+v, want %+v", line, got, msg)
			}
		}
	}
}
