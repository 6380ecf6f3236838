package queue

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"livelens/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when schema.sql changes shape. A mismatched
// database must be cleared.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different
// schema version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Message is one stored queue entry.
type Message struct {
	ID           string
	Payload      string
	EnqueuedAt   time.Time
	VisibleAt    time.Time
	ReceiveCount int
}

// Stats summarizes queue state.
type Stats struct {
	Total    int
	Visible  int
	InFlight int
}

// Store manages queue persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the queue database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.QueueDBPath())
}

// OpenPath opens the queue database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case version.Int64 != schemaVersion:
		return fmt.Errorf("%w: database has version %d, expected %d (run 'livelens queue clear' or delete the database)",
			ErrSchemaMismatch, version.Int64, schemaVersion)
	}
	return nil
}

// Enqueue stores a job and returns its message.
func (s *Store) Enqueue(ctx context.Context, job Job) (*Message, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	payload, err := job.Encode()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	msg := &Message{
		ID:         uuid.NewString(),
		Payload:    payload,
		EnqueuedAt: now,
		VisibleAt:  now,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (id, payload, enqueued_at, visible_at, receive_count)
         VALUES (?, ?, ?, ?, 0)`,
		msg.ID, msg.Payload, formatTime(msg.EnqueuedAt), formatTime(msg.VisibleAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

// Receive returns up to max currently visible messages in arrival order and
// hides them for the visibility timeout. Messages stay stored until Delete
// acknowledges them.
func (s *Store) Receive(ctx context.Context, max int, visibility time.Duration) ([]Message, error) {
	if max < 1 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin receive tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	rows, err := tx.QueryContext(ctx,
		`SELECT id, payload, enqueued_at, visible_at, receive_count
         FROM messages
         WHERE visible_at <= ?
         ORDER BY enqueued_at
         LIMIT ?`,
		formatTime(now), max,
	)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	messages, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, tx.Commit()
	}

	deadline := formatTime(now.Add(visibility))
	for i := range messages {
		if _, err := tx.ExecContext(ctx,
			`UPDATE messages SET visible_at = ?, receive_count = receive_count + 1 WHERE id = ?`,
			deadline, messages[i].ID,
		); err != nil {
			return nil, fmt.Errorf("hide message %s: %w", messages[i].ID, err)
		}
		messages[i].VisibleAt = now.Add(visibility)
		messages[i].ReceiveCount++
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit receive: %w", err)
	}
	return messages, nil
}

// Delete acknowledges a message permanently.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete message %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete message %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("message %s not found", id)
	}
	return nil
}

// List returns all stored messages in arrival order, including hidden ones.
func (s *Store) List(ctx context.Context) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload, enqueued_at, visible_at, receive_count
         FROM messages ORDER BY enqueued_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return collectMessages(rows)
}

// Stats counts stored and currently visible messages.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	now := formatTime(time.Now().UTC())
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
                COALESCE(SUM(CASE WHEN visible_at <= ? THEN 1 ELSE 0 END), 0)
         FROM messages`, now,
	).Scan(&stats.Total, &stats.Visible)
	if err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}
	stats.InFlight = stats.Total - stats.Visible
	return stats, nil
}

// Clear removes every message and returns how many were dropped.
func (s *Store) Clear(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM messages")
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return int(affected), nil
}

func collectMessages(rows *sql.Rows) ([]Message, error) {
	defer rows.Close()
	var messages []Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

func scanMessage(scanner interface{ Scan(dest ...any) error }) (Message, error) {
	var msg Message
	var enqueuedAt, visibleAt string
	if err := scanner.Scan(&msg.ID, &msg.Payload, &enqueuedAt, &visibleAt, &msg.ReceiveCount); err != nil {
		return Message{}, fmt.Errorf("scan message: %w", err)
	}
	var err error
	if msg.EnqueuedAt, err = parseTime(enqueuedAt); err != nil {
		return Message{}, err
	}
	if msg.VisibleAt, err = parseTime(visibleAt); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// timeLayout keeps a fixed-width fraction so the stored strings order
// lexicographically, matching the visible_at comparisons in SQL.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}
