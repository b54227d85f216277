package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"dayplan/internal/core/models"
)

// Index is a derived SQLite view of session metadata. It exists so
// List and aggregate stats stay cheap as session files accumulate;
// losing it costs nothing but a reindex.
type Index struct {
	conn *sql.DB
}

// OpenIndex opens (or creates) the index database.
func OpenIndex(path string) (*Index, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	// SQLite only supports one writer.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	idx := &Index{conn: conn}
	if err := idx.initSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}
	return idx, nil
}

func (idx *Index) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		date TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		goal TEXT,
		items INTEGER NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		completion_rate REAL NOT NULL DEFAULT 0,
		created_at TEXT,
		last_updated TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_state ON sessions(state);
	`
	_, err := idx.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (idx *Index) Close() error {
	return idx.conn.Close()
}

// Upsert writes one session's metadata row.
func (idx *Index) Upsert(meta models.SessionMetadata) error {
	_, err := idx.conn.Exec(`
		INSERT INTO sessions (date, state, goal, items, completed, completion_rate, created_at, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			state = excluded.state,
			goal = excluded.goal,
			items = excluded.items,
			completed = excluded.completed,
			completion_rate = excluded.completion_rate,
			last_updated = excluded.last_updated`,
		meta.Date, string(meta.State), meta.Goal, meta.Items, meta.Completed,
		meta.CompletionRate,
		meta.CreatedAt.Format(time.RFC3339), meta.LastUpdated.Format(time.RFC3339))
	return err
}

// Remove deletes one session's row.
func (idx *Index) Remove(date string) error {
	_, err := idx.conn.Exec(`DELETE FROM sessions WHERE date = ?`, date)
	return err
}

// List returns all indexed sessions, newest date first.
func (idx *Index) List() ([]models.SessionMetadata, error) {
	rows, err := idx.conn.Query(`
		SELECT date, state, goal, items, completed, completion_rate, created_at, last_updated
		FROM sessions ORDER BY date DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var metas []models.SessionMetadata
	for rows.Next() {
		var meta models.SessionMetadata
		var state, created, updated string
		var goal sql.NullString
		if err := rows.Scan(&meta.Date, &state, &goal, &meta.Items, &meta.Completed,
			&meta.CompletionRate, &created, &updated); err != nil {
			return nil, err
		}
		meta.State = models.SessionState(state)
		meta.Goal = goal.String
		meta.CreatedAt, _ = time.Parse(time.RFC3339, created)
		meta.LastUpdated, _ = time.Parse(time.RFC3339, updated)
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// Rebuild replaces the whole index with the given metadata set.
func (idx *Index) Rebuild(metas []models.SessionMetadata) error {
	tx, err := idx.conn.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM sessions`); err != nil {
		_ = tx.Rollback()
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO sessions (date, state, goal, items, completed, completion_rate, created_at, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, meta := range metas {
		if _, err := stmt.Exec(meta.Date, string(meta.State), meta.Goal, meta.Items,
			meta.Completed, meta.CompletionRate,
			meta.CreatedAt.Format(time.RFC3339), meta.LastUpdated.Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// AggregateStats summarizes all indexed sessions.
type AggregateStats struct {
	Sessions          int
	Done              int
	TotalItems        int
	TotalCompleted    int
	AvgCompletionRate float64
}

// Aggregate computes cross-session totals from the index.
func (idx *Index) Aggregate() (*AggregateStats, error) {
	var stats AggregateStats
	err := idx.conn.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN state = 'done' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(items), 0),
		       COALESCE(SUM(completed), 0),
		       COALESCE(AVG(completion_rate), 0)
		FROM sessions`).Scan(&stats.Sessions, &stats.Done, &stats.TotalItems,
		&stats.TotalCompleted, &stats.AvgCompletionRate)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
