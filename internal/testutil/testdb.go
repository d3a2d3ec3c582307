package testutil

import (
	"database/sql"
	"testing"

	"github.com/alexanderramin/dayplan/internal/db"
	"github.com/alexanderramin/dayplan/internal/repository"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The database is closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// NewTestUoW creates a UnitOfWork backed by the given test database.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}

// NewTestRedis starts an in-process Redis server and returns a client for it.
// Both are shut down when the test completes.
func NewTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() {
		client.Close()
	})
	return srv, client
}

// NewTestRedisStore returns a RedisPlanStore on a fresh in-process server.
func NewTestRedisStore(t *testing.T) (*repository.RedisPlanStore, *miniredis.Miniredis) {
	t.Helper()
	srv, client := NewTestRedis(t)
	return repository.NewRedisPlanStore(client), srv
}

// NewTestGormStore returns a GormPlanStore on an in-memory SQLite database.
func NewTestGormStore(t *testing.T) *repository.GormPlanStore {
	t.Helper()
	gdb, err := repository.OpenSQLiteRemote(":memory:")
	if err != nil {
		t.Fatalf("failed to open gorm test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	store, err := repository.NewGormPlanStore(gdb)
	if err != nil {
		t.Fatalf("failed to migrate gorm test database: %v", err)
	}
	return store
}
