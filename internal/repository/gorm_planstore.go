package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/alexanderramin/dayplan/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"
)

type remotePlanRow struct {
	UserID    string         `gorm:"column:user_id;primaryKey;type:text;index:idx_remote_plans_user_date,priority:1"`
	DocID     string         `gorm:"column:doc_id;primaryKey;type:text"`
	PlanDate  string         `gorm:"column:plan_date;type:text;not null;index:idx_remote_plans_user_date,priority:2"`
	Section   string         `gorm:"column:section;type:text;not null;default:''"`
	Version   int            `gorm:"column:version;not null"`
	Payload   datatypes.JSON `gorm:"column:payload;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

func (remotePlanRow) TableName() string { return "remote_plans" }

type remoteCompletionRow struct {
	UserID      string    `gorm:"column:user_id;primaryKey;type:text"`
	DocID       string    `gorm:"column:doc_id;primaryKey;type:text"`
	ActivityID  string    `gorm:"column:activity_id;primaryKey;type:text"`
	CompletedAt time.Time `gorm:"column:completed_at;not null"`
}

func (remoteCompletionRow) TableName() string { return "remote_plan_completions" }

// GormPlanStore implements PlanStore on a SQL database through gorm.
type GormPlanStore struct {
	db *gorm.DB
}

// NewGormPlanStore migrates the remote plan tables and returns the store.
func NewGormPlanStore(db *gorm.DB) (*GormPlanStore, error) {
	if err := db.AutoMigrate(&remotePlanRow{}, &remoteCompletionRow{}); err != nil {
		return nil, fmt.Errorf("migrating remote plan tables: %w", err)
	}
	return &GormPlanStore{db: db}, nil
}

func newGormLogger() gormLogger.Interface {
	return gormLogger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// OpenPostgres connects to a Postgres remote store.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("missing postgres dsn")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return db, nil
}

// OpenSQLiteRemote opens a SQLite file as a stand-in remote store for local
// development and tests.
func OpenSQLiteRemote(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite remote %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func rowFromPlan(plan *domain.StudyPlan) (*remotePlanRow, error) {
	payload, err := remotePayload(plan)
	if err != nil {
		return nil, err
	}
	return &remotePlanRow{
		UserID:    plan.UserID,
		DocID:     plan.Key().DocID(),
		PlanDate:  plan.Date,
		Section:   plan.Section,
		Version:   plan.Version,
		Payload:   datatypes.JSON(payload),
		CreatedAt: plan.CreatedAt.UTC(),
		UpdatedAt: plan.UpdatedAt.UTC(),
	}, nil
}

func planFromRow(row *remotePlanRow, completed []string) (*domain.StudyPlan, error) {
	if row.Version != domain.PlanVersion {
		return nil, fmt.Errorf("plan %s: %w", row.DocID, ErrIncompatibleVersion)
	}
	p, err := DecodePlan(row.Payload)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", row.DocID, err)
	}
	p.CreatedAt = row.CreatedAt.UTC()
	p.UpdatedAt = row.UpdatedAt.UTC()
	p.CompletedActivityIDs = append([]string{}, completed...)
	return p, nil
}

func (s *GormPlanStore) completions(ctx context.Context, tx *gorm.DB, userID string, docIDs []string) (map[string][]string, error) {
	var rows []remoteCompletionRow
	err := tx.WithContext(ctx).
		Where("user_id = ? AND doc_id IN ?", userID, docIDs).
		Order("completed_at ASC").
		Order("activity_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("reading completions: %w", err)
	}
	out := make(map[string][]string, len(docIDs))
	for _, r := range rows {
		out[r.DocID] = append(out[r.DocID], r.ActivityID)
	}
	return out, nil
}

func (s *GormPlanStore) Get(ctx context.Context, userID string, key domain.PlanKey) (*domain.StudyPlan, error) {
	docID := key.DocID()
	var row remotePlanRow
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND doc_id = ?", userID, docID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("plan %s: %w", docID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading plan %s: %w", docID, err)
	}
	done, err := s.completions(ctx, s.db, userID, []string{docID})
	if err != nil {
		return nil, err
	}
	return planFromRow(&row, done[docID])
}

func (s *GormPlanStore) CreateIfAbsent(ctx context.Context, plan *domain.StudyPlan) (*domain.StudyPlan, bool, error) {
	row, err := rowFromPlan(plan)
	if err != nil {
		return nil, false, err
	}

	created := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		if err := tx.Where("user_id = ? AND doc_id = ?", row.UserID, row.DocID).
			Delete(&remoteCompletionRow{}).Error; err != nil {
			return err
		}
		return insertCompletions(tx, row, plan.CompletedActivityIDs)
	})
	if err != nil {
		return nil, false, fmt.Errorf("creating plan %s: %w", row.DocID, err)
	}
	if created {
		return plan.Clone(), true, nil
	}

	existing, err := s.Get(ctx, plan.UserID, plan.Key())
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func insertCompletions(tx *gorm.DB, row *remotePlanRow, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	rows := make([]remoteCompletionRow, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, remoteCompletionRow{
			UserID:      row.UserID,
			DocID:       row.DocID,
			ActivityID:  id,
			CompletedAt: row.UpdatedAt,
		})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (s *GormPlanStore) Put(ctx context.Context, plan *domain.StudyPlan) error {
	row, err := rowFromPlan(plan)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND doc_id = ?", row.UserID, row.DocID).
			Delete(&remoteCompletionRow{}).Error; err != nil {
			return err
		}
		return insertCompletions(tx, row, plan.CompletedActivityIDs)
	})
	if err != nil {
		return fmt.Errorf("writing plan %s: %w", row.DocID, err)
	}
	return nil
}

func (s *GormPlanStore) AddCompletion(ctx context.Context, userID string, key domain.PlanKey, activityID string, at time.Time) error {
	docID := key.DocID()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&remotePlanRow{}).
			Where("user_id = ? AND doc_id = ?", userID, docID).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&remoteCompletionRow{
			UserID:      userID,
			DocID:       docID,
			ActivityID:  activityID,
			CompletedAt: at.UTC(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&remotePlanRow{}).
			Where("user_id = ? AND doc_id = ?", userID, docID).
			Update("updated_at", at.UTC()).Error
	})
	if err != nil {
		return fmt.Errorf("adding completion to %s: %w", docID, err)
	}
	return nil
}

func (s *GormPlanStore) ListRange(ctx context.Context, userID, fromDate, toDate string) ([]*domain.StudyPlan, error) {
	var rows []remotePlanRow
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND plan_date BETWEEN ? AND ?", userID, fromDate, toDate).
		Order("plan_date DESC").
		Order("section ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	if len(rows) == 0 {
		return []*domain.StudyPlan{}, nil
	}

	docIDs := make([]string, 0, len(rows))
	for _, r := range rows {
		docIDs = append(docIDs, r.DocID)
	}
	done, err := s.completions(ctx, s.db, userID, docIDs)
	if err != nil {
		return nil, err
	}

	plans := make([]*domain.StudyPlan, 0, len(rows))
	for i := range rows {
		p, err := planFromRow(&rows[i], done[rows[i].DocID])
		if err != nil {
			if IsMiss(err) {
				continue
			}
			return nil, err
		}
		plans = append(plans, p)
	}
	sortPlans(plans)
	return plans, nil
}

func (s *GormPlanStore) Delete(ctx context.Context, userID string, key domain.PlanKey) error {
	docID := key.DocID()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND doc_id = ?", userID, docID).
			Delete(&remoteCompletionRow{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND doc_id = ?", userID, docID).
			Delete(&remotePlanRow{}).Error
	})
	if err != nil {
		return fmt.Errorf("deleting plan %s: %w", docID, err)
	}
	return nil
}
