package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aliceryden/portalen/internal/models"
)

func (db *DB) CreateSyncTask(ctx context.Context, task *models.SyncTask) error {
	query := `INSERT INTO sync_queue (task_type, booking_id, payload, status, retry_count, last_error, created_at, next_retry_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	var nextRetry any
	if task.NextRetryAt != nil {
		nextRetry = task.NextRetryAt.UTC()
	}
	result, err := db.ExecContext(ctx, query,
		task.TaskType, task.BookingID, task.Payload, task.Status,
		task.RetryCount, task.LastError, now, nextRetry,
	)
	if err != nil {
		return fmt.Errorf("create sync task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	return nil
}

func (db *DB) GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error) {
	query := `SELECT id, task_type, booking_id, COALESCE(payload, ''), status, retry_count,
            COALESCE(last_error, ''), created_at, processed_at, next_retry_at
        FROM sync_queue
        WHERE status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= ?)
        ORDER BY created_at ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, time.Now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.SyncTask
	for rows.Next() {
		var t models.SyncTask
		var processedAt, nextRetryAt sql.NullTime
		err := rows.Scan(&t.ID, &t.TaskType, &t.BookingID, &t.Payload, &t.Status,
			&t.RetryCount, &t.LastError, &t.CreatedAt, &processedAt, &nextRetryAt)
		if err != nil {
			return nil, fmt.Errorf("scan sync task: %w", err)
		}
		if processedAt.Valid {
			pt := processedAt.Time.UTC()
			t.ProcessedAt = &pt
		}
		if nextRetryAt.Valid {
			nt := nextRetryAt.Time.UTC()
			t.NextRetryAt = &nt
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (db *DB) MarkSyncTaskDone(ctx context.Context, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sync_queue SET status = 'done', processed_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark sync task done: %w", err)
	}
	return nil
}

func (db *DB) MarkSyncTaskRetry(ctx context.Context, id int64, retryCount int, lastError string, nextRetryAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sync_queue SET status = 'retry', retry_count = ?, last_error = ?, next_retry_at = ? WHERE id = ?`,
		retryCount, lastError, nextRetryAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("mark sync task retry: %w", err)
	}
	return nil
}

func (db *DB) MarkSyncTaskFailed(ctx context.Context, id int64, lastError string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sync_queue SET status = 'failed', last_error = ?, processed_at = ? WHERE id = ?`,
		lastError, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark sync task failed: %w", err)
	}
	return nil
}
