package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/caredial/caredial/internal/pkg/persistence"
	"github.com/caredial/caredial/internal/pkg/status"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB provides operations with postgresql
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates DB instance
func NewDB(pool *pgxpool.Pool) (*DB, error) {
	res := &DB{pool: pool}
	return res, nil
}

// InsertCallback inserts new callback record into DB
func (db *DB) InsertCallback(ctx context.Context, item *persistence.Callback) error {
	rows, err := db.pool.Query(ctx, `INSERT INTO callbacks(id, email, phone, status, created, version)
	VALUES($1, $2, $3, $4, $5, 1)`, item.ID, item.Email, item.Phone, item.Status, item.Created)
	if err != nil {
		return fmt.Errorf("can't insert callback: %w", err)
	}
	defer rows.Close()
	return nil
}

// LoadCallback loads callback record from DB, returns nil if no record exists
func (db *DB) LoadCallback(ctx context.Context, id string) (*persistence.Callback, error) {
	var res persistence.Callback
	err := db.pool.QueryRow(ctx, `SELECT id, email, phone, status, structured_data, ai_summary,
	ai_summary_translated, ai_summary_at, created, updated, version FROM callbacks
		WHERE id = $1`, id).Scan(&res.ID, &res.Email, &res.Phone, &res.Status, &res.StructuredData,
		&res.AISummary, &res.AISummaryTranslated, &res.AISummaryAt, &res.Created, &res.Updated, &res.Version)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("can't load callback: %w", err)
	}
	return &res, nil
}

// LoadCallbacks loads all callback records, newest first
func (db *DB) LoadCallbacks(ctx context.Context) ([]*persistence.Callback, error) {
	rows, err := db.pool.Query(ctx, `SELECT id, email, phone, status, structured_data, ai_summary,
	ai_summary_translated, ai_summary_at, created, updated, version FROM callbacks
		ORDER BY created DESC`)
	if err != nil {
		return nil, fmt.Errorf("can't load callbacks: %w", err)
	}
	defer rows.Close()
	var res []*persistence.Callback
	for rows.Next() {
		var item persistence.Callback
		if err := rows.Scan(&item.ID, &item.Email, &item.Phone, &item.Status, &item.StructuredData,
			&item.AISummary, &item.AISummaryTranslated, &item.AISummaryAt, &item.Created, &item.Updated,
			&item.Version); err != nil {
			return nil, fmt.Errorf("can't scan callback: %w", err)
		}
		res = append(res, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("can't load callbacks: %w", err)
	}
	return res, nil
}

// MarkCallCompleted writes the structured call outcome and advances status.
// The update is conditional: a record that already reached summary_generated
// is left untouched and the func returns false - status never regresses
// on webhook redelivery.
func (db *DB) MarkCallCompleted(ctx context.Context, id string, data map[string]string) (bool, error) {
	rows, err := db.pool.Exec(ctx, `UPDATE callbacks SET
	structured_data = $2,
	status = $3,
	updated = $4,
	version = version + 1
	WHERE id = $1 and status <> $5`, id, data, status.CallCompleted.String(), time.Now(),
		status.SummaryGenerated.String())
	if err != nil {
		return false, fmt.Errorf("can't update callback: %w", err)
	}
	return rows.RowsAffected() == 1, nil
}

// UpdateSummary persists summary fields and advances status to summary_generated.
// Fails if the record version changed since it was loaded.
func (db *DB) UpdateSummary(ctx context.Context, item *persistence.Callback) error {
	rows, err := db.pool.Exec(ctx, `UPDATE callbacks SET
	status = $3,
	ai_summary = $4,
	ai_summary_translated = $5,
	ai_summary_at = $6,
	updated = $7,
	version = $2 + 1
	WHERE id = $1 and version = $2`, item.ID, item.Version, status.SummaryGenerated.String(),
		item.AISummary, item.AISummaryTranslated, item.AISummaryAt, time.Now())
	if err != nil {
		return fmt.Errorf("can't update summary: %w", err)
	}
	if rows.RowsAffected() != 1 {
		return fmt.Errorf("can't update summary, no records found")
	}
	return nil
}

// Live returns no error if db is reachable and initialized
func (db *DB) Live(ctx context.Context) error {
	var exists bool
	if err := db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT FROM pg_tables WHERE tablename = 'gue_jobs')`).Scan(&exists); err != nil {
		return fmt.Errorf("can't check table: %w", err)
	}
	if !exists {
		return fmt.Errorf("no migration done")
	}
	return nil
}
