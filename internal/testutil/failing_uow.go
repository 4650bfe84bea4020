package testutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/alexanderramin/estima/internal/db"
)

// FailOnNthExecUoW injects Err on the Nth matching write inside a
// transaction, so rollback tests can fail a multi-step operation at a
// precise point. Writes are counted from 1 whether they run through Exec or
// through a RETURNING query; reads pass through. When Match is non-empty
// only writes containing it are counted.
//
// A *sql.Row cannot carry an arbitrary error, so a tripped QueryRowContext
// fails with context.Canceled and WithinTx reports Err alongside whatever
// fn returned. The transaction is always rolled back once the failure fired.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Match  string
	Err    error
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	wrapped := &failOnNthExec{DBTX: tx, failOn: u.FailOn, match: u.Match, err: u.Err}
	fnErr := fn(ctx, wrapped)
	if wrapped.tripped.Load() {
		_ = tx.Rollback()
		if fnErr == nil || errors.Is(fnErr, u.Err) {
			return u.Err
		}
		return errors.Join(u.Err, fnErr)
	}
	if fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}
	return tx.Commit()
}

type failOnNthExec struct {
	db.DBTX
	count   atomic.Int32
	tripped atomic.Bool
	failOn  int32
	match   string
	err     error
}

var writeVerbs = []string{"INSERT", "UPDATE", "DELETE", "REPLACE"}

func isWrite(query string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	for _, v := range writeVerbs {
		if strings.HasPrefix(q, v) {
			return true
		}
	}
	return false
}

// fail reports whether this statement is the one to break.
func (f *failOnNthExec) fail(query string) bool {
	if !isWrite(query) || (f.match != "" && !strings.Contains(query, f.match)) {
		return false
	}
	if f.count.Add(1) != f.failOn {
		return false
	}
	f.tripped.Store(true)
	return true
}

func (f *failOnNthExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.fail(query) {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}

func (f *failOnNthExec) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if f.fail(query) {
		return nil, f.err
	}
	return f.DBTX.QueryContext(ctx, query, args...)
}

func (f *failOnNthExec) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	if f.fail(query) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		return f.DBTX.QueryRowContext(cctx, query, args...)
	}
	return f.DBTX.QueryRowContext(ctx, query, args...)
}
