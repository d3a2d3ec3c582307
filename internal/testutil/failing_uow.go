package testutil

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/alexanderramin/dayplan/internal/db"
)

// ExecFaultUoW wraps a UnitOfWork and makes the FailOn-th write of each
// transaction return Err, counting from 1. Reads pass through. Tracker
// tests use it to fail between the append and the trim of a log.
type ExecFaultUoW struct {
	Inner  db.UnitOfWork
	FailOn int32
	Err    error

	// Failed counts transactions in which the fault fired.
	Failed atomic.Int32
}

// NewExecFaultUoW injects err into the n-th write of every transaction run
// on database.
func NewExecFaultUoW(database *sql.DB, n int32, err error) *ExecFaultUoW {
	return &ExecFaultUoW{Inner: db.NewSQLiteUnitOfWork(database), FailOn: n, Err: err}
}

func (u *ExecFaultUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return u.Inner.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &faultyTx{DBTX: tx, uow: u})
	})
}

type faultyTx struct {
	db.DBTX
	uow    *ExecFaultUoW
	writes int32
}

func (f *faultyTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.writes++
	if f.writes == f.uow.FailOn {
		f.uow.Failed.Add(1)
		return nil, f.uow.Err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
