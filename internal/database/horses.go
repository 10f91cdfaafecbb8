package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CreateHorse exists for fixtures; horse management proper is owned by the
// horse directory, not this engine.
func (db *DB) CreateHorse(ctx context.Context, ownerID int64, name string) (int64, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO horses (owner_id, name) VALUES (?, ?)`, ownerID, name)
	if err != nil {
		return 0, fmt.Errorf("create horse: %w", err)
	}
	return result.LastInsertId()
}

// UpdateHorseLastVisit records the completion side effect: the horse's
// last farrier visit date.
func (db *DB) UpdateHorseLastVisit(ctx context.Context, horseID int64, visitedAt time.Time) error {
	result, err := db.ExecContext(ctx,
		`UPDATE horses SET last_farrier_visit = ? WHERE id = ?`, visitedAt.UTC(), horseID)
	if err != nil {
		return fmt.Errorf("update horse last visit: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// HorseLastVisit reads the stored last visit, nil when never visited.
func (db *DB) HorseLastVisit(ctx context.Context, horseID int64) (*time.Time, error) {
	var visit sql.NullTime
	err := db.QueryRowContext(ctx,
		`SELECT last_farrier_visit FROM horses WHERE id = ?`, horseID).Scan(&visit)
	if err != nil {
		return nil, fmt.Errorf("horse last visit: %w", err)
	}
	if !visit.Valid {
		return nil, nil
	}
	t := visit.Time.UTC()
	return &t, nil
}
