package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB implements DB with func fields so each test wires only what it
// needs.
type fakeDB struct {
	BeginFunc    func(ctx context.Context) (pgx.Tx, error)
	ExecFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (f *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return f.BeginFunc(ctx)
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return f.ExecFunc(ctx, sql, args...)
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return f.QueryFunc(ctx, sql, args...)
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return f.QueryRowFunc(ctx, sql, args...)
}

// fakeTx embeds the pgx.Tx interface and overrides only the methods the
// filing store touches. Calling anything else panics, which is the point.
type fakeTx struct {
	pgx.Tx
	ExecFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row

	committed  bool
	rolledBack bool
}

func (f *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return f.ExecFunc(ctx, sql, args...)
}

func (f *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return f.QueryRowFunc(ctx, sql, args...)
}

func (f *fakeTx) Commit(ctx context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	f.rolledBack = true
	return nil
}

// fakeRow satisfies pgx.Row with a scan func.
type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

// boolRow scans a single bool, as the EXISTS query does.
func boolRow(v bool) fakeRow {
	return fakeRow{scan: func(dest ...any) error {
		*(dest[0].(*bool)) = v
		return nil
	}}
}

// idRow scans a single int64 id.
func idRow(id int64) fakeRow {
	return fakeRow{scan: func(dest ...any) error {
		*(dest[0].(*int64)) = id
		return nil
	}}
}

// errRow fails every scan with err.
func errRow(err error) fakeRow {
	return fakeRow{scan: func(dest ...any) error { return err }}
}

// fakeRows embeds the pgx.Rows interface and serves a fixed list of scan
// funcs. Methods beyond Next/Scan/Err/Close panic.
type fakeRows struct {
	pgx.Rows
	scans []func(dest ...any) error
	idx   int
}

func rowsOf(scans ...func(dest ...any) error) *fakeRows {
	return &fakeRows{scans: scans}
}

func (r *fakeRows) Next() bool {
	return r.idx < len(r.scans)
}

func (r *fakeRows) Scan(dest ...any) error {
	scan := r.scans[r.idx]
	r.idx++
	return scan(dest...)
}

func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     {}
