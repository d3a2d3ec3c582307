package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/dayplan/internal/db"
	"github.com/alexanderramin/dayplan/internal/domain"
)

// SQLiteActivityLogRepo implements ActivityLogRepo using a SQLite database.
type SQLiteActivityLogRepo struct {
	db db.DBTX
}

// NewSQLiteActivityLogRepo creates a new SQLiteActivityLogRepo.
func NewSQLiteActivityLogRepo(db db.DBTX) *SQLiteActivityLogRepo {
	return &SQLiteActivityLogRepo{db: db}
}

func (r *SQLiteActivityLogRepo) PutStart(ctx context.Context, activityID string, at time.Time) error {
	query := `INSERT INTO activity_starts (activity_id, started_at) VALUES (?, ?)
		ON CONFLICT(activity_id) DO UPDATE SET started_at = excluded.started_at`
	if _, err := r.db.ExecContext(ctx, query, activityID, formatTime(at)); err != nil {
		return fmt.Errorf("recording activity start: %w", err)
	}
	return nil
}

func (r *SQLiteActivityLogRepo) GetStart(ctx context.Context, activityID string) (time.Time, error) {
	var s string
	err := r.db.QueryRowContext(ctx, `SELECT started_at FROM activity_starts WHERE activity_id = ?`, activityID).Scan(&s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, fmt.Errorf("activity start: %w", ErrNotFound)
		}
		return time.Time{}, fmt.Errorf("reading activity start: %w", err)
	}
	t, err := parseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing started_at: %w", err)
	}
	return t, nil
}

func (r *SQLiteActivityLogRepo) DeleteStart(ctx context.Context, activityID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM activity_starts WHERE activity_id = ?`, activityID); err != nil {
		return fmt.Errorf("deleting activity start: %w", err)
	}
	return nil
}

func (r *SQLiteActivityLogRepo) AppendDuration(ctx context.Context, rec domain.DurationRecord) error {
	query := `INSERT INTO activity_durations (activity_type, estimated_minutes, actual_minutes, completed_at)
		VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		string(rec.ActivityType),
		rec.EstimatedMinutes,
		rec.ActualMinutes,
		formatTime(rec.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting duration record: %w", err)
	}
	return nil
}

// TrimDurations keeps only the newest keep records.
func (r *SQLiteActivityLogRepo) TrimDurations(ctx context.Context, keep int) error {
	query := `DELETE FROM activity_durations
		WHERE id NOT IN (SELECT id FROM activity_durations ORDER BY id DESC LIMIT ?)`
	if _, err := r.db.ExecContext(ctx, query, keep); err != nil {
		return fmt.Errorf("trimming duration log: %w", err)
	}
	return nil
}

func (r *SQLiteActivityLogRepo) ListDurations(ctx context.Context) ([]domain.DurationRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT activity_type, estimated_minutes, actual_minutes, completed_at FROM activity_durations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing duration records: %w", err)
	}
	defer rows.Close()

	var out []domain.DurationRecord
	for rows.Next() {
		var rec domain.DurationRecord
		var typ, completedAt string
		if err := rows.Scan(&typ, &rec.EstimatedMinutes, &rec.ActualMinutes, &completedAt); err != nil {
			return nil, fmt.Errorf("scanning duration record: %w", err)
		}
		rec.ActivityType = domain.ActivityType(typ)
		if rec.CompletedAt, err = parseTime(completedAt); err != nil {
			return nil, fmt.Errorf("parsing completed_at: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating duration records: %w", err)
	}
	return out, nil
}

func (r *SQLiteActivityLogRepo) AppendFeedback(ctx context.Context, rec domain.FeedbackRecord) error {
	query := `INSERT INTO activity_feedback (activity_type, rating, tag, recorded_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		string(rec.ActivityType),
		int(rec.Rating),
		rec.Tag,
		formatTime(rec.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting feedback record: %w", err)
	}
	return nil
}

// TrimFeedback keeps only the newest keep records.
func (r *SQLiteActivityLogRepo) TrimFeedback(ctx context.Context, keep int) error {
	query := `DELETE FROM activity_feedback
		WHERE id NOT IN (SELECT id FROM activity_feedback ORDER BY id DESC LIMIT ?)`
	if _, err := r.db.ExecContext(ctx, query, keep); err != nil {
		return fmt.Errorf("trimming feedback log: %w", err)
	}
	return nil
}

func (r *SQLiteActivityLogRepo) ListFeedback(ctx context.Context) ([]domain.FeedbackRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT activity_type, rating, tag, recorded_at FROM activity_feedback ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing feedback records: %w", err)
	}
	defer rows.Close()

	var out []domain.FeedbackRecord
	for rows.Next() {
		var rec domain.FeedbackRecord
		var typ, recordedAt string
		var rating int
		if err := rows.Scan(&typ, &rating, &rec.Tag, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning feedback record: %w", err)
		}
		rec.ActivityType = domain.ActivityType(typ)
		rec.Rating = domain.FeedbackRating(rating)
		if rec.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, fmt.Errorf("parsing recorded_at: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feedback records: %w", err)
	}
	return out, nil
}

// Reset clears every tracking table.
func (r *SQLiteActivityLogRepo) Reset(ctx context.Context) error {
	for _, table := range []string{"activity_starts", "activity_durations", "activity_feedback"} {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}
