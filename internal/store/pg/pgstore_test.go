package pg

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"intelhub.dev/internal/dossier"
	"intelhub.dev/internal/travel"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func crossing(date string, dir travel.Direction) travel.Crossing {
	return travel.Crossing{
		SubjectID: "SUBJ-1",
		Date:      day(date),
		Direction: dir,
		Country:   "Nigeria",
		Port:      "Lagos",
		Transport: travel.Air,
		Risk:      travel.RiskHigh,
	}
}

var crossingCols = []string{"id", "subject_id", "occurred_at", "direction", "country", "port", "transport",
	"duration_days", "risk", "return_date", "linked_trip"}

func expectSubjectLock(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("select pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("SUBJ-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestAddCrossingInsertsAfterLatest(t *testing.T) {
	s, mock := newMock(t)
	expectSubjectLock(mock)
	mock.ExpectQuery(regexp.QuoteMeta("order by occurred_at desc, seq desc")).
		WithArgs("SUBJ-1").
		WillReturnRows(sqlmock.NewRows(crossingCols).
			AddRow("crs_prev", "SUBJ-1", day("2024-01-10"), "Exit", "Nigeria", "Lagos", "Air", nil, "high", nil, ""))
	mock.ExpectExec(regexp.QuoteMeta("insert into crossings")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	got, err := s.AddCrossing(context.Background(), crossing("2024-01-15", travel.Entry))
	if err != nil {
		t.Fatalf("add crossing: %v", err)
	}
	if got.Crossing.ID == "" {
		t.Fatalf("expected generated id")
	}
	if got.Previous == nil || got.Previous.ID != "crs_prev" || got.Previous.Direction != travel.Exit {
		t.Fatalf("unexpected previous %+v", got.Previous)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAddCrossingFirstForSubject(t *testing.T) {
	s, mock := newMock(t)
	expectSubjectLock(mock)
	mock.ExpectQuery(regexp.QuoteMeta("order by occurred_at desc, seq desc")).
		WithArgs("SUBJ-1").
		WillReturnRows(sqlmock.NewRows(crossingCols))
	mock.ExpectExec(regexp.QuoteMeta("insert into crossings")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	got, err := s.AddCrossing(context.Background(), crossing("2024-01-15", travel.Exit))
	if err != nil {
		t.Fatalf("add crossing: %v", err)
	}
	if got.Previous != nil {
		t.Fatalf("first crossing must have no previous, got %+v", got.Previous)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAddCrossingRejectsOutOfOrder(t *testing.T) {
	s, mock := newMock(t)
	expectSubjectLock(mock)
	mock.ExpectQuery(regexp.QuoteMeta("order by occurred_at desc, seq desc")).
		WithArgs("SUBJ-1").
		WillReturnRows(sqlmock.NewRows(crossingCols).
			AddRow("crs_prev", "SUBJ-1", day("2024-02-01"), "Exit", "Nigeria", "Lagos", "Air", nil, "high", nil, ""))
	mock.ExpectRollback()

	_, err := s.AddCrossing(context.Background(), crossing("2024-01-15", travel.Entry))
	if !errors.Is(err, travel.ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAddCrossingValidatesBeforeQuerying(t *testing.T) {
	s, mock := newMock(t)
	bad := crossing("2024-01-15", travel.Direction("Sideways"))
	if _, err := s.AddCrossing(context.Background(), bad); !errors.Is(err, travel.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListCrossingsScansNullableColumns(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("from crossings")).
		WithArgs("SUBJ-1").
		WillReturnRows(sqlmock.NewRows(crossingCols).
			AddRow("crs_1", "SUBJ-1", day("2024-01-15"), "Exit", "Nigeria", "Lagos", "Air", int64(12), "high", day("2024-01-27"), "TRIP-1").
			AddRow("crs_2", "SUBJ-1", day("2024-01-27"), "Entry", "Nigeria", "Lagos", "Air", nil, "high", nil, ""))

	got, err := s.ListCrossings(context.Background(), "SUBJ-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 crossings, got %d", len(got))
	}
	if got[0].DurationDays == nil || *got[0].DurationDays != 12 {
		t.Fatalf("expected duration 12, got %v", got[0].DurationDays)
	}
	if got[0].ReturnDate == nil || !got[0].ReturnDate.Equal(day("2024-01-27")) {
		t.Fatalf("unexpected return date %v", got[0].ReturnDate)
	}
	if got[1].DurationDays != nil || got[1].ReturnDate != nil {
		t.Fatalf("expected nil optionals on second crossing")
	}
	if got[1].Direction != travel.Entry || got[1].Risk != travel.RiskHigh {
		t.Fatalf("unexpected enums %+v", got[1])
	}
}

func TestListTasksFiltersByCase(t *testing.T) {
	s, mock := newMock(t)
	cols := []string{"id", "case_id", "title", "assignee", "status", "priority", "sla_status", "due_date", "progress"}
	mock.ExpectQuery(regexp.QuoteMeta("from tasks where case_id=$1 order by seq asc")).
		WithArgs("CASE-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("tsk-1", "CASE-1", "Review manifests", "alice", "todo", "high", "on-track", nil, 0))

	got, err := s.ListTasks(context.Background(), "CASE-1")
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(got) != 1 || got[0].Priority != dossier.PriorityHigh || !got[0].DueDate.IsZero() {
		t.Fatalf("unexpected tasks %+v", got)
	}
}

func TestUpdateTaskAppliesUpdate(t *testing.T) {
	s, mock := newMock(t)
	cols := []string{"id", "case_id", "title", "assignee", "status", "priority", "sla_status", "due_date", "progress"}
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("from tasks where id=$1 for update")).
		WithArgs("tsk-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("tsk-1", "CASE-1", "Review manifests", "alice", "review", "high", "at-risk", day("2024-03-01"), 80))
	mock.ExpectExec(regexp.QuoteMeta("update tasks set")).
		WithArgs("tsk-1", "done", 100, "at-risk", "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	done := dossier.StatusDone
	got, err := s.UpdateTask(context.Background(), "tsk-1", dossier.TaskUpdate{Status: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != dossier.StatusDone || got.Progress != 100 {
		t.Fatalf("unexpected task %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateTaskNotFound(t *testing.T) {
	s, mock := newMock(t)
	cols := []string{"id", "case_id", "title", "assignee", "status", "priority", "sla_status", "due_date", "progress"}
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("from tasks where id=$1 for update")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectRollback()

	if _, err := s.UpdateTask(context.Background(), "missing", dossier.TaskUpdate{}); !errors.Is(err, dossier.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAddTransactionUppercasesCurrency(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("insert into transactions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	got, err := s.AddTransaction(context.Background(), dossier.Transaction{
		SubjectID: "SUBJ-1",
		Date:      day("2024-01-12"),
		Amount:    250000,
		Currency:  "usd",
		Risk:      travel.RiskMedium,
	})
	if err != nil {
		t.Fatalf("add transaction: %v", err)
	}
	if got.Currency != "USD" {
		t.Fatalf("expected USD, got %s", got.Currency)
	}
}
