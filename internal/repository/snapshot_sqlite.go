package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"huanghe-analytics-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteSnapshotRepository implements SnapshotRepository using SQLite.
// Thread-safe with WAL mode for high-concurrency reads.
type SQLiteSnapshotRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteSnapshotRepository creates a new SQLite snapshot repository.
// dbPath is the path to the SQLite database file (e.g., "./data/snapshots.db")
func NewSQLiteSnapshotRepository(dbPath string) (*SQLiteSnapshotRepository, error) {
	// Open with WAL mode and other optimizations
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite connection pool settings
	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0) // Keep connection alive

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteSnapshotRepository] Initialized with database: %s", dbPath)
	return &SQLiteSnapshotRepository{db: db}, nil
}

// createTables creates the snapshot, timeline and user profile tables.
func createTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS market_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL,
		captured_at INTEGER NOT NULL,
		snapshot_json TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT (datetime('now')),
		UNIQUE(project_id, captured_at)
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_project_time ON market_snapshots(project_id, captured_at);

	CREATE TABLE IF NOT EXISTS user_timelines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		crawl_time INTEGER NOT NULL,
		record_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_timelines_user_kind_time ON user_timelines(user_id, kind, crawl_time);

	CREATE TABLE IF NOT EXISTS user_profiles (
		user_id INTEGER PRIMARY KEY,
		profile_json TEXT NOT NULL,
		synced_at DATETIME NOT NULL
	);
	`
	_, err := db.Exec(query)
	return err
}

// UpsertSnapshot inserts or replaces one crawl capture for a project.
func (r *SQLiteSnapshotRepository) UpsertSnapshot(ctx context.Context, projectID int64, capturedAt int64, rawJSON []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO market_snapshots (project_id, captured_at, snapshot_json)
		VALUES (?, ?, ?)
		ON CONFLICT(project_id, captured_at) DO UPDATE SET
			snapshot_json = excluded.snapshot_json`

	_, err := r.db.ExecContext(ctx, query, projectID, capturedAt, string(rawJSON))
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// BatchUpsertSnapshots inserts or replaces multiple captures efficiently.
func (r *SQLiteSnapshotRepository) BatchUpsertSnapshots(ctx context.Context, items []model.ProjectSnapshot) error {
	if len(items) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO market_snapshots (project_id, captured_at, snapshot_json)
		VALUES (?, ?, ?)
		ON CONFLICT(project_id, captured_at) DO UPDATE SET
			snapshot_json = excluded.snapshot_json`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		_, err := stmt.ExecContext(ctx, item.ProjectID, item.CapturedAt, string(item.RawJSON))
		if err != nil {
			return fmt.Errorf("failed to batch upsert snapshot %d/%d: %w", item.ProjectID, item.CapturedAt, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListSnapshots returns a project's captures since sinceMs, oldest first.
// Rows that fail to decode are skipped: a corrupt capture must not take the
// whole analysis down.
func (r *SQLiteSnapshotRepository) ListSnapshots(ctx context.Context, projectID int64, sinceMs int64) ([]model.SnapshotBatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT snapshot_json FROM market_snapshots
		WHERE project_id = ? AND captured_at >= ?
		ORDER BY captured_at ASC`

	rows, err := r.db.QueryContext(ctx, query, projectID, sinceMs)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var batches []model.SnapshotBatch
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		var batch model.SnapshotBatch
		if err := json.Unmarshal([]byte(raw), &batch); err != nil {
			log.Printf("[SQLiteSnapshotRepository] Skipping corrupt snapshot for project %d: %v", projectID, err)
			continue
		}
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

// AppendTimeline stores crawled listing/order history records for a user.
func (r *SQLiteSnapshotRepository) AppendTimeline(ctx context.Context, userID int64, records []model.TimelineRecord) error {
	if len(records) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO user_timelines (user_id, kind, crawl_time, record_json)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		kind := rec.Kind
		if kind == "" {
			kind = model.TimelineSell
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode timeline record: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, userID, string(kind), rec.CrawlTime, string(raw)); err != nil {
			return fmt.Errorf("failed to append timeline record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListTimeline returns a user's records of one kind, newest first.
func (r *SQLiteSnapshotRepository) ListTimeline(ctx context.Context, userID int64, kind model.TimelineKind, limit int) ([]model.TimelineRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT record_json FROM user_timelines
		WHERE user_id = ? AND kind = ?
		ORDER BY crawl_time DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline: %w", err)
	}
	defer rows.Close()

	var records []model.TimelineRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan timeline record: %w", err)
		}
		var rec model.TimelineRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			log.Printf("[SQLiteSnapshotRepository] Skipping corrupt timeline record for user %d: %v", userID, err)
			continue
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpsertUserProfile stores the crawler's raw profile blob for a user.
func (r *SQLiteSnapshotRepository) UpsertUserProfile(ctx context.Context, userID int64, rawJSON []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO user_profiles (user_id, profile_json, synced_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(user_id) DO UPDATE SET
			profile_json = excluded.profile_json,
			synced_at = datetime('now')`

	_, err := r.db.ExecContext(ctx, query, userID, string(rawJSON))
	if err != nil {
		return fmt.Errorf("failed to upsert user profile: %w", err)
	}
	return nil
}

// GetUserProfile retrieves the raw profile blob for a user.
func (r *SQLiteSnapshotRepository) GetUserProfile(ctx context.Context, userID int64) ([]byte, *time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT profile_json, synced_at FROM user_profiles WHERE user_id = ?`

	var rawJSON string
	var syncedAt time.Time

	err := r.db.QueryRowContext(ctx, query, userID).Scan(&rawJSON, &syncedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	return []byte(rawJSON), &syncedAt, nil
}

// GetStats returns statistics about the snapshot database.
func (r *SQLiteSnapshotRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]interface{})

	var snapshots, timelineRows int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM market_snapshots").Scan(&snapshots); err != nil {
		return nil, err
	}
	stats["total_snapshots"] = snapshots
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_timelines").Scan(&timelineRows); err != nil {
		return nil, err
	}
	stats["total_timeline_records"] = timelineRows

	// Last capture time
	var lastCapture sql.NullInt64
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(captured_at) FROM market_snapshots").Scan(&lastCapture); err == nil && lastCapture.Valid {
		stats["last_capture_ms"] = lastCapture.Int64
	}

	// Database file size (approximate from page count)
	var pageCount, pageSize int64
	r.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	r.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	stats["db_size_bytes"] = pageCount * pageSize

	return stats, nil
}

// DeleteOldSnapshots deletes captures older than the retention threshold.
func (r *SQLiteSnapshotRepository) DeleteOldSnapshots(ctx context.Context, retention time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoffMs := time.Now().Add(-retention).UnixMilli()

	query := `DELETE FROM market_snapshots WHERE captured_at < ?`
	result, err := r.db.ExecContext(ctx, query, cutoffMs)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old snapshots: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		log.Printf("[SQLite] Cleaned up %d expired snapshots (retention: %v)", deleted, retention)
	}

	return deleted, nil
}

// Close closes the database connection.
func (r *SQLiteSnapshotRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteSnapshotRepository implements SnapshotRepository
var _ SnapshotRepository = (*SQLiteSnapshotRepository)(nil)
