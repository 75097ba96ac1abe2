package postgres

import (
	"context"
	"time"

	"reviewhub-backend/internal/domain"
	"reviewhub-backend/internal/logger"
	"reviewhub-backend/internal/repository"
)

type activityRepository struct {
	db DBTX
}

func NewActivityRepository(db DBTX) repository.ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, entry *domain.ActivityLog) error {
	query := `INSERT INTO activity_logs (message, task_id, user_id, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	logger.DatabaseCall("INSERT", "activity_logs", "taskID", entry.TaskID)

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	err := r.db.QueryRowContext(ctx, query, entry.Message, entry.TaskID, entry.UserID, entry.CreatedAt).Scan(&entry.ID)
	logger.DatabaseResult("INSERT", 1, err, "activityID", entry.ID)
	return err
}

func (r *activityRepository) ListByTask(ctx context.Context, taskID int32) ([]domain.ActivityLog, error) {
	query := `SELECT id, message, task_id, user_id, created_at FROM activity_logs WHERE task_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.ActivityLog
	for rows.Next() {
		var e domain.ActivityLog
		if err := rows.Scan(&e.ID, &e.Message, &e.TaskID, &e.UserID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
