// Package protocol encodes and decodes the newline-delimited battleship wire
// messages.
//
// A shot is "start;<coord>". A result is "<outcome>;<coord>" where outcome is
// one of "pudło", "trafiony" or "trafiony zatopiony", except the game-ending
// "ostatni zatopiony" which has no coordinate. Lines are UTF-8 and compared
// after NFKC normalisation, so full-width coordinates from a peer still parse.
package protocol

import (
	"strings"

	apperrors "github.com/louisbranch/broadside/internal/platform/errors"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/board"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/grid"
	"golang.org/x/text/unicode/norm"
)

// Wire keywords.
const (
	KeywordShot       = "start"
	KeywordLegacyShot = "strzał"
	KeywordMiss       = "pudło"
	KeywordHit        = "trafiony"
	KeywordHitAndSunk = "trafiony zatopiony"
	KeywordLastSunk   = "ostatni zatopiony"
)

const separator = ";"

// Kind distinguishes shots from results.
type Kind uint8

const (
	KindShot Kind = iota + 1
	KindResult
)

func (k Kind) String() string {
	switch k {
	case KindShot:
		return "shot"
	case KindResult:
		return "result"
	default:
		return "unknown"
	}
}

// Message is one decoded protocol line.
type Message struct {
	Kind    Kind
	Outcome board.Outcome
	Coord   grid.Coord
	// HasCoord is false only for a LastSunk result.
	HasCoord bool
}

// Shot returns the message firing at c.
func Shot(c grid.Coord) Message {
	return Message{Kind: KindShot, Coord: c, HasCoord: true}
}

// Result returns the message answering a shot at c.
func Result(c grid.Coord, outcome board.Outcome) Message {
	if outcome == board.OutcomeLastSunk {
		return Message{Kind: KindResult, Outcome: outcome}
	}
	return Message{Kind: KindResult, Outcome: outcome, Coord: c, HasCoord: true}
}

// String returns the encoded line without its terminator, or a placeholder
// for messages that cannot be encoded.
func (m Message) String() string {
	line, err := Encode(m)
	if err != nil {
		return "<invalid " + m.Kind.String() + ">"
	}
	return line
}

// Encode renders m as a wire line without the trailing newline.
func Encode(m Message) (string, error) {
	switch m.Kind {
	case KindShot:
		if !m.Coord.Valid() {
			return "", apperrors.Newf(apperrors.CodeCoordinateFault, "cannot encode shot at %s", m.Coord)
		}
		return KeywordShot + separator + m.Coord.String(), nil
	case KindResult:
		if m.Outcome == board.OutcomeLastSunk {
			return KeywordLastSunk, nil
		}
		keyword, ok := outcomeKeyword(m.Outcome)
		if !ok {
			return "", apperrors.Newf(apperrors.CodeProtocolFault, "cannot encode outcome %s", m.Outcome)
		}
		if !m.Coord.Valid() {
			return "", apperrors.Newf(apperrors.CodeCoordinateFault, "cannot encode result at %s", m.Coord)
		}
		return keyword + separator + m.Coord.String(), nil
	default:
		return "", apperrors.Newf(apperrors.CodeProtocolFault, "cannot encode message kind %d", m.Kind)
	}
}

// Decode parses one wire line. A trailing "\r" and surrounding spaces are
// ignored. Every failure is a protocol fault carrying the offending line.
func Decode(line string) (Message, error) {
	text := strings.TrimSpace(norm.NFKC.String(line))
	if text == "" {
		return Message{}, fault(line, "empty message")
	}
	fields := strings.Split(text, separator)
	keyword := strings.ToLower(strings.TrimSpace(fields[0]))

	if keyword == KeywordLastSunk {
		if len(fields) != 1 {
			return Message{}, fault(line, "unexpected field after "+KeywordLastSunk)
		}
		return Message{Kind: KindResult, Outcome: board.OutcomeLastSunk}, nil
	}

	var msg Message
	switch keyword {
	case KeywordShot, KeywordLegacyShot:
		msg.Kind = KindShot
	case KeywordMiss:
		msg = Message{Kind: KindResult, Outcome: board.OutcomeMiss}
	case KeywordHit:
		msg = Message{Kind: KindResult, Outcome: board.OutcomeHit}
	case KeywordHitAndSunk:
		msg = Message{Kind: KindResult, Outcome: board.OutcomeHitAndSunk}
	default:
		return Message{}, fault(line, "unknown keyword")
	}

	switch {
	case len(fields) < 2:
		return Message{}, fault(line, "missing coordinate")
	case len(fields) > 2:
		return Message{}, fault(line, "too many fields")
	}
	c, err := grid.Parse(fields[1])
	if err != nil {
		return Message{}, apperrors.Wrap(apperrors.CodeProtocolFault, "decode "+quote(line), err)
	}
	msg.Coord = c
	msg.HasCoord = true
	return msg, nil
}

func outcomeKeyword(o board.Outcome) (string, bool) {
	switch o {
	case board.OutcomeMiss:
		return KeywordMiss, true
	case board.OutcomeHit:
		return KeywordHit, true
	case board.OutcomeHitAndSunk:
		return KeywordHitAndSunk, true
	case board.OutcomeLastSunk:
		return KeywordLastSunk, true
	default:
		return "", false
	}
}

func fault(line, reason string) error {
	return apperrors.WithMetadata(
		apperrors.CodeProtocolFault,
		"decode "+quote(line)+": "+reason,
		map[string]string{"Line": line},
	)
}

func quote(line string) string {
	return "\"" + strings.TrimRight(line, "\r\n") + "\""
}
