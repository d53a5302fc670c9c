package migrate

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSplitStatementsKeepsQuotedSemicolons(t *testing.T) {
	got := splitStatements("insert into t values ('a;b');\ncreate index i on t (x);\n")
	if len(got) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(got), got)
	}
	if got[0] != "insert into t values ('a;b');" {
		t.Fatalf("unexpected first statement %q", got[0])
	}
}

func TestCollectSQLOrdersAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_tasks.up.sql":     {Data: []byte("select 1;")},
		"0001_records.up.sql":   {Data: []byte("select 1;")},
		"0001_records.down.sql": {Data: []byte("select 1;")},
		"README.md":             {Data: []byte("notes")},
	}
	up, err := collectSQL(fsys, ".up.sql")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(up) != 2 || up[0] != "0001_records.up.sql" || up[1] != "0002_tasks.up.sql" {
		t.Fatalf("unexpected order %v", up)
	}
	seeds, err := collectSQL(fsys, ".sql")
	if err != nil {
		t.Fatalf("collect seeds: %v", err)
	}
	if len(seeds) != 2 {
		t.Fatalf("down files must not be treated as seeds: %v", seeds)
	}
	none, err := collectSQL(nil, ".sql")
	if err != nil || none != nil {
		t.Fatalf("nil fs: %v %v", none, err)
	}
}

func expectTables(mock sqlmock.Sqlmock) {
	mock.ExpectExec("create table if not exists schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists schema_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestUpAppliesPendingOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	fsys := fstest.MapFS{
		"0001_records.up.sql": {Data: []byte("create table a (id text);")},
		"0002_tasks.up.sql":   {Data: []byte("create table b (id text);\ncreate index b_idx on b (id);")},
	}
	expectTables(mock)
	mock.ExpectQuery(regexp.QuoteMeta("select name from schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_records.up.sql"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("create table b")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("create index b_idx")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec(regexp.QuoteMeta("insert into schema_migrations")).
		WithArgs("0002_tasks.up.sql", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	applied, err := NewManager(db, fsys, nil).Up(context.Background())
	if err != nil {
		t.Fatalf("up: %v", err)
	}
	if len(applied) != 1 || applied[0] != "0002_tasks.up.sql" {
		t.Fatalf("unexpected applied %v", applied)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDownWithNothingApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	expectTables(mock)
	mock.ExpectQuery(regexp.QuoteMeta("select name from schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	_, err = NewManager(db, fstest.MapFS{}, nil).Down(context.Background())
	if !errors.Is(err, ErrNothingApplied) {
		t.Fatalf("expected ErrNothingApplied, got %v", err)
	}
}

func TestDownRollsBackLatest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	fsys := fstest.MapFS{
		"0001_records.up.sql":   {Data: []byte("create table a (id text);")},
		"0001_records.down.sql": {Data: []byte("drop table a;")},
	}
	expectTables(mock)
	mock.ExpectQuery(regexp.QuoteMeta("select name from schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_records.up.sql"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("drop table a")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec(regexp.QuoteMeta("delete from schema_migrations")).
		WithArgs("0001_records.up.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))

	name, err := NewManager(db, fsys, nil).Down(context.Background())
	if err != nil {
		t.Fatalf("down: %v", err)
	}
	if name != "0001_records.up.sql" {
		t.Fatalf("unexpected rollback %s", name)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
