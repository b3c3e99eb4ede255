package storage

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Recorder numbers the moves of one game and appends them to every journal.
type Recorder struct {
	gameID   string
	now      func() time.Time
	journals []Journal

	mu  sync.Mutex
	seq int
}

// NewRecorder returns a recorder for gameID. A nil now uses time.Now; nil
// journals are skipped.
func NewRecorder(gameID string, now func() time.Time, journals ...Journal) *Recorder {
	if now == nil {
		now = time.Now
	}
	r := &Recorder{gameID: gameID, now: now}
	for _, j := range journals {
		if j != nil {
			r.journals = append(r.journals, j)
		}
	}
	return r
}

// GameID returns the id every move is recorded under.
func (r *Recorder) GameID() string {
	return r.gameID
}

// Record appends a line to every journal. All journals are attempted; their
// errors are joined.
func (r *Recorder) Record(ctx context.Context, direction Direction, line string) error {
	r.mu.Lock()
	r.seq++
	move := Move{
		GameID:    r.gameID,
		Seq:       r.seq,
		Direction: direction,
		Line:      line,
		Timestamp: r.now().UTC(),
	}
	r.mu.Unlock()

	var errs []error
	for _, j := range r.journals {
		if err := j.Append(ctx, move); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
