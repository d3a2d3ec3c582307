package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/dayplan/internal/db"
)

// SQLitePlanCache implements PlanCache on the device-local SQLite database.
type SQLitePlanCache struct {
	db db.DBTX
}

// NewSQLitePlanCache creates a new SQLitePlanCache.
func NewSQLitePlanCache(db db.DBTX) *SQLitePlanCache {
	return &SQLitePlanCache{db: db}
}

func (c *SQLitePlanCache) Get(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := c.db.QueryRowContext(ctx, `SELECT payload FROM plan_cache WHERE cache_key = ?`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("cached plan %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("reading cached plan: %w", err)
	}
	return []byte(payload), nil
}

func (c *SQLitePlanCache) Put(ctx context.Context, e CacheEntry) error {
	query := `INSERT INTO plan_cache (cache_key, user_id, plan_date, section, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			user_id = excluded.user_id,
			plan_date = excluded.plan_date,
			section = excluded.section,
			payload = excluded.payload,
			updated_at = excluded.updated_at`
	_, err := c.db.ExecContext(ctx, query,
		e.Key,
		e.UserID,
		e.Date,
		e.Section,
		string(e.Payload),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("writing cached plan: %w", err)
	}
	return nil
}

func (c *SQLitePlanCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM plan_cache WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("deleting cached plan: %w", err)
	}
	return nil
}

// DeleteForDate drops every cached plan of a user for one date, scoped and
// legacy keys alike.
func (c *SQLitePlanCache) DeleteForDate(ctx context.Context, userID, date string) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM plan_cache WHERE user_id = ? AND plan_date = ?`, userID, date)
	if err != nil {
		return 0, fmt.Errorf("deleting cached plans for %s: %w", date, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting cleared plans for %s: %w", date, err)
	}
	return n, nil
}
