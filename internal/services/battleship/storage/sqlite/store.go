// Package sqlite stores the move journal in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/broadside/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/broadside/internal/services/battleship/storage"
	"github.com/louisbranch/broadside/internal/services/battleship/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// ErrDuplicateMove is returned when a (game, seq) pair is already stored.
var ErrDuplicateMove = errors.New("move already recorded")

// Store is a SQLite-backed storage.Journal.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.Journal = (*Store)(nil)

// Open opens the journal at path, creating and migrating it as needed.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate sqlite db: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the database. It is nil-safe.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Append stores one move.
func (s *Store) Append(ctx context.Context, move storage.Move) error {
	if err := move.Validate(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO moves (game_id, seq, direction, line, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		move.GameID, move.Seq, string(move.Direction), move.Line, move.Timestamp.UTC().UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: game %s seq %d", ErrDuplicateMove, move.GameID, move.Seq)
		}
		return fmt.Errorf("insert move: %w", err)
	}
	return nil
}

// Moves returns the moves of gameID in sequence order.
func (s *Store) Moves(ctx context.Context, gameID string) ([]storage.Move, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT seq, direction, line, recorded_at FROM moves WHERE game_id = ? ORDER BY seq`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("query moves: %w", err)
	}
	defer rows.Close()

	var moves []storage.Move
	for rows.Next() {
		var (
			move      = storage.Move{GameID: gameID}
			direction string
			millis    int64
		)
		if err := rows.Scan(&move.Seq, &direction, &move.Line, &millis); err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		move.Direction = storage.Direction(direction)
		move.Timestamp = time.UnixMilli(millis).UTC()
		moves = append(moves, move)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate moves: %w", err)
	}
	return moves, nil
}

// Games returns the ids of every journalled game, most recent first.
func (s *Store) Games(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT game_id FROM moves GROUP BY game_id ORDER BY MAX(recorded_at) DESC, game_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return ids, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
