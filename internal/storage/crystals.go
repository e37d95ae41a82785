package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kalambet/grimoire/internal/crystal"
)

// PutRecord creates rec or replaces the stored document with the same id.
// The stored creation time never changes on replace.
func (s *Store) PutRecord(ctx context.Context, rec crystal.Record) error {
	if rec.Core.ID == "" {
		return errors.New("record has no id")
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record %s: %w", rec.Core.ID, err)
	}

	now := time.Now().UTC().Format(timeLayout)
	createdAt := rec.Core.CreatedAt.UTC().Format(timeLayout)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO crystals (id, owner_id, created_at, updated_at, doc) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET owner_id = excluded.owner_id, updated_at = excluded.updated_at, doc = excluded.doc`,
		rec.Core.ID, rec.Owner(), createdAt, now, string(doc),
	)
	if err != nil {
		return fmt.Errorf("saving record %s: %w", rec.Core.ID, unavailable(err))
	}
	return nil
}

// GetRecord returns the record with the given id, or ErrNotFound.
func (s *Store) GetRecord(ctx context.Context, id string) (crystal.Record, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT doc FROM crystals WHERE id = ?", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return crystal.Record{}, ErrNotFound
	}
	if err != nil {
		return crystal.Record{}, fmt.Errorf("loading record %s: %w", id, unavailable(err))
	}
	return decodeRecord(id, doc)
}

// ListRecords returns records newest first.
func (s *Store) ListRecords(ctx context.Context, opts ListOptions) ([]crystal.Record, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	offset := max(opts.Offset, 0)

	query := "SELECT id, doc FROM crystals"
	args := []any{}
	if opts.OwnerID != "" {
		query += " WHERE owner_id = ?"
		args = append(args, opts.OwnerID)
	}
	query += " ORDER BY created_at DESC, id ASC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", unavailable(err))
	}
	defer rows.Close()

	results := []crystal.Record{}
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(id, doc)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// CountRecords returns the number of records stored for ownerID, or in
// total when ownerID is empty.
func (s *Store) CountRecords(ctx context.Context, ownerID string) (int, error) {
	query := "SELECT COUNT(*) FROM crystals"
	var args []any
	if ownerID != "" {
		query += " WHERE owner_id = ?"
		args = append(args, ownerID)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", unavailable(err))
	}
	return n, nil
}

// DeleteRecord removes the record with the given id, or returns ErrNotFound.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM crystals WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting record %s: %w", id, unavailable(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeRecord(id, doc string) (crystal.Record, error) {
	var rec crystal.Record
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return crystal.Record{}, fmt.Errorf("decoding record %s: %w", id, err)
	}
	return rec, nil
}
