package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duskforge/arena/internal/storage"
)

// RecordRepository implements storage.RecordStore on a single JSONB table
// partitioned by kind.
type RecordRepository struct {
	db *pgxpool.Pool
}

// NewRecordRepository creates a RecordRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewRecordRepository(db *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{db: db}
}

var _ storage.RecordStore = (*RecordRepository)(nil)

// Get returns the record for (kind, key).
//
// Postcondition: Returns the stored document or storage.ErrNotFound.
func (r *RecordRepository) Get(ctx context.Context, kind storage.Kind, key string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRow(ctx,
		`SELECT data FROM records WHERE kind = $1 AND key = $2`,
		string(kind), key,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s/%s", storage.ErrNotFound, kind, key)
		}
		return nil, fmt.Errorf("selecting record %s/%s: %w", kind, key, err)
	}
	return data, nil
}

// Put upserts the record for (kind, key).
//
// Postcondition: Get(kind, key) returns data; updated_at reflects the write.
func (r *RecordRepository) Put(ctx context.Context, kind storage.Kind, key string, data []byte) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO records (kind, key, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind, key)
		DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		string(kind), key, data,
	)
	if err != nil {
		return fmt.Errorf("upserting record %s/%s: %w", kind, key, err)
	}
	return nil
}

// PutAll upserts every record of the batch inside one transaction.
//
// Postcondition: either all records are visible or none are.
func (r *RecordRepository) PutAll(ctx context.Context, kind storage.Kind, records map[string][]byte) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning record batch: %w", err)
	}
	defer tx.Rollback(ctx)

	for key, data := range records {
		if _, err := tx.Exec(ctx, `
			INSERT INTO records (kind, key, data)
			VALUES ($1, $2, $3)
			ON CONFLICT (kind, key)
			DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
			string(kind), key, data,
		); err != nil {
			return fmt.Errorf("upserting record %s/%s in batch: %w", kind, key, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing record batch: %w", err)
	}
	return nil
}

// GetAll returns every record of the kind, keyed by record key.
//
// Postcondition: Returns a map (may be empty) or a non-nil error.
func (r *RecordRepository) GetAll(ctx context.Context, kind storage.Kind) (map[string][]byte, error) {
	rows, err := r.db.Query(ctx,
		`SELECT key, data FROM records WHERE kind = $1`,
		string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("listing records of kind %s: %w", kind, err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var key string
		var data []byte
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("scanning record row: %w", err)
		}
		out[key] = data
	}
	return out, rows.Err()
}

// Delete removes the record for (kind, key); missing records are a no-op.
func (r *RecordRepository) Delete(ctx context.Context, kind storage.Kind, key string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM records WHERE kind = $1 AND key = $2`,
		string(kind), key,
	)
	if err != nil {
		return fmt.Errorf("deleting record %s/%s: %w", kind, key, err)
	}
	return nil
}
