// Package sqlite persists the game journal: one row per game and an
// append-only event stream per game, replayable after the process exits.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"trio_table/internal/domain"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL,
	finished_at INTEGER NULL,
	winners TEXT NOT NULL DEFAULT '[]',
	rounds INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS game_events (
	id TEXT PRIMARY KEY,
	game_id TEXT NOT NULL,
	actor TEXT NOT NULL,
	action TEXT NOT NULL,
	reason TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	FOREIGN KEY(game_id) REFERENCES games(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_game_events_game ON game_events(game_id, created_at);
`

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set sqlite pragma %q: %w", stmt, err)
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *Store) CreateGame(ctx context.Context, game domain.GameRecord) error {
	if game.StartedAt.IsZero() {
		game.StartedAt = time.Now().UTC()
	}
	winners, err := json.Marshal(game.Winners)
	if err != nil {
		return fmt.Errorf("encode winners: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO games(id, started_at, finished_at, winners, rounds)
		VALUES(?, ?, ?, ?, ?)`,
		game.ID, game.StartedAt.UnixMilli(), nullableUnixMilli(game.FinishedAt), string(winners), game.Rounds,
	)
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

// FinishGame stamps the game finished and records the final winners and
// round count.
func (s *Store) FinishGame(ctx context.Context, gameID string, winners []domain.PlayerID, rounds int) error {
	if winners == nil {
		winners = []domain.PlayerID{}
	}
	encoded, err := json.Marshal(winners)
	if err != nil {
		return fmt.Errorf("encode winners: %w", err)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE games SET finished_at = ?, winners = ?, rounds = ? WHERE id = ?`,
		time.Now().UTC().UnixMilli(), string(encoded), rounds, gameID,
	)
	if err != nil {
		return fmt.Errorf("finish game: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish game rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish game: unknown game %q", gameID)
	}
	return nil
}

func (s *Store) LogEvent(ctx context.Context, ev domain.GameEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	payload := string(ev.Payload)
	if payload == "" {
		payload = "{}"
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO game_events(id, game_id, actor, action, reason, payload, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.GameID, ev.Actor, ev.Action, ev.Reason, payload, ev.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

func (s *Store) ListGames(ctx context.Context) ([]domain.GameRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, started_at, finished_at, winners, rounds
		FROM games ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	result := make([]domain.GameRecord, 0)
	for rows.Next() {
		var g domain.GameRecord
		var started int64
		var finished sql.NullInt64
		var winners string
		if err := rows.Scan(&g.ID, &started, &finished, &winners, &g.Rounds); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g.StartedAt = unixMilliToTime(started)
		g.FinishedAt = int64ToTimePtr(finished)
		if err := json.Unmarshal([]byte(winners), &g.Winners); err != nil {
			return nil, fmt.Errorf("decode winners: %w", err)
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return result, nil
}

// ListGameEvents returns the game's events oldest first. limit <= 0
// returns all of them.
func (s *Store) ListGameEvents(ctx context.Context, gameID string, limit int) ([]domain.GameEvent, error) {
	query := `SELECT id, game_id, actor, action, reason, payload, created_at
		FROM game_events WHERE game_id = ? ORDER BY created_at ASC, rowid ASC`
	args := []any{gameID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list game events: %w", err)
	}
	defer rows.Close()

	result := make([]domain.GameEvent, 0)
	for rows.Next() {
		var ev domain.GameEvent
		var payload string
		var created int64
		if err := rows.Scan(&ev.ID, &ev.GameID, &ev.Actor, &ev.Action, &ev.Reason, &payload, &created); err != nil {
			return nil, fmt.Errorf("scan game event: %w", err)
		}
		ev.Payload = json.RawMessage(payload)
		ev.CreatedAt = unixMilliToTime(created)
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate game events: %w", err)
	}
	return result, nil
}

func nullableUnixMilli(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func int64ToTimePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := unixMilliToTime(v.Int64)
	return &t
}

func unixMilliToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
