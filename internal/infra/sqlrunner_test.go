package infra

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"qrbatch/internal/sqlinline"
)

type stubRow struct{ err error }

func (r stubRow) Scan(...any) error { return r.err }

type stubPool struct {
	lastSQL string
	rowErr  error
}

func (p *stubPool) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	p.lastSQL = sql
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (p *stubPool) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	p.lastSQL = sql
	return stubRow{err: p.rowErr}
}

func TestExtractMarker(t *testing.T) {
	marker, body, err := extractMarker(sqlinline.QSelectUploadedAsset)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if marker != "5e1a10af-829f-4e1d-9f62-9d725d543b48" {
		t.Fatalf("marker = %q", marker)
	}
	if body == "" || body[0:6] != "select" {
		t.Fatalf("body = %q", body)
	}
	for _, q := range []string{"", "select 1", "--sql nope\nselect 1"} {
		if _, _, err := extractMarker(q); !errors.Is(err, ErrSQLMarker) {
			t.Errorf("extractMarker(%q) err = %v", q, err)
		}
	}
}

func TestSQLRunnerStripsMarker(t *testing.T) {
	pool := &stubPool{rowErr: pgx.ErrNoRows}
	r := &SQLRunner{pool: pool, logger: zerolog.Nop()}
	if _, err := r.Exec(context.Background(), sqlinline.QInsertUploadedAsset); err != nil {
		t.Fatalf("exec: %v", err)
	}
	if pool.lastSQL[0:6] != "insert" {
		t.Fatalf("sql = %q", pool.lastSQL)
	}
	err := r.QueryRow(context.Background(), sqlinline.QSelectUploadedAsset).Scan()
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("scan err = %v", err)
	}
	if err := r.QueryRow(context.Background(), "select 1").Scan(); !errors.Is(err, ErrSQLMarker) {
		t.Fatalf("unmarked err = %v", err)
	}
	if _, err := r.Exec(context.Background(), "delete from x"); !errors.Is(err, ErrSQLMarker) {
		t.Fatalf("unmarked exec err = %v", err)
	}
}
