// Package pg implements dossier.Service on PostgreSQL through the pgx driver.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"intelhub.dev/internal/dossier"
	"intelhub.dev/internal/travel"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

var _ dossier.Service = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing handle, e.g. one from sqlmock.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

const crossingColumns = `id, subject_id, occurred_at, direction, country, port, transport,
	duration_days, risk, return_date, linked_trip`

// AddCrossing takes a per-subject advisory lock for the transaction, so
// concurrent ingests for one subject serialise even before the subject has
// any rows. The latest crossing read under that lock is returned as
// Previous.
func (s *Store) AddCrossing(ctx context.Context, c travel.Crossing) (dossier.Appended, error) {
	c, err := dossier.PrepareCrossing(c)
	if err != nil {
		return dossier.Appended{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dossier.Appended{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `select pg_advisory_xact_lock(hashtext($1))`, c.SubjectID); err != nil {
		return dossier.Appended{}, err
	}

	out := dossier.Appended{Crossing: c}
	latest, err := scanCrossing(tx.QueryRowContext(ctx, `
		select `+crossingColumns+`
		from crossings
		where subject_id=$1
		order by occurred_at desc, seq desc
		limit 1
	`, c.SubjectID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return dossier.Appended{}, err
	case c.Date.Before(latest.Date):
		return dossier.Appended{}, dossier.OutOfOrder(c, latest)
	default:
		out.Previous = &latest
	}

	if _, err := tx.ExecContext(ctx, `
		insert into crossings(`+crossingColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, c.ID, c.SubjectID, c.Date.UTC(), string(c.Direction), c.Country, c.Port, string(c.Transport),
		nullInt(c.DurationDays), string(c.Risk), nullTime(c.ReturnDate), c.LinkedTrip); err != nil {
		return dossier.Appended{}, mapInsertErr(err, c.ID)
	}
	if err := tx.Commit(); err != nil {
		return dossier.Appended{}, err
	}
	return out, nil
}

func (s *Store) ListCrossings(ctx context.Context, subjectID string) ([]travel.Crossing, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+crossingColumns+`
		from crossings
		where subject_id=$1
		order by occurred_at asc, seq asc
	`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []travel.Crossing{}
	for rows.Next() {
		c, err := scanCrossing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCrossing(row scanner) (travel.Crossing, error) {
	var (
		c        travel.Crossing
		dir, tr  string
		risk     string
		duration sql.NullInt64
		ret      sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.SubjectID, &c.Date, &dir, &c.Country, &c.Port, &tr,
		&duration, &risk, &ret, &c.LinkedTrip); err != nil {
		return travel.Crossing{}, err
	}
	c.Direction = travel.Direction(dir)
	c.Transport = travel.Transport(tr)
	c.Risk = travel.RiskTier(risk)
	c.Date = c.Date.UTC()
	if duration.Valid {
		d := int(duration.Int64)
		c.DurationDays = &d
	}
	if ret.Valid {
		r := ret.Time.UTC()
		c.ReturnDate = &r
	}
	return c, nil
}

func (s *Store) AddHotelStay(ctx context.Context, h dossier.HotelStay) (dossier.HotelStay, error) {
	h, err := dossier.PrepareHotelStay(h)
	if err != nil {
		return dossier.HotelStay{}, err
	}
	if _, err := s.db.ExecContext(ctx, `
		insert into hotel_stays(id, subject_id, hotel, city, country, check_in, nights, cost,
			currency, risk, linked_trip, confirmed)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, h.ID, h.SubjectID, h.Hotel, h.City, h.Country, h.CheckIn.UTC(), h.Nights, h.Cost,
		h.Currency, string(h.Risk), h.LinkedTrip, h.Confirmed); err != nil {
		return dossier.HotelStay{}, mapInsertErr(err, h.ID)
	}
	return h, nil
}

func (s *Store) ListHotelStays(ctx context.Context, subjectID string) ([]dossier.HotelStay, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, subject_id, hotel, city, country, check_in, nights, cost,
			currency, risk, linked_trip, confirmed
		from hotel_stays
		where subject_id=$1
		order by seq asc
	`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []dossier.HotelStay{}
	for rows.Next() {
		var (
			h    dossier.HotelStay
			risk string
		)
		if err := rows.Scan(&h.ID, &h.SubjectID, &h.Hotel, &h.City, &h.Country, &h.CheckIn, &h.Nights,
			&h.Cost, &h.Currency, &risk, &h.LinkedTrip, &h.Confirmed); err != nil {
			return nil, err
		}
		h.Risk = travel.RiskTier(risk)
		h.CheckIn = h.CheckIn.UTC()
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) AddTransaction(ctx context.Context, t dossier.Transaction) (dossier.Transaction, error) {
	t, err := dossier.PrepareTransaction(t)
	if err != nil {
		return dossier.Transaction{}, err
	}
	if _, err := s.db.ExecContext(ctx, `
		insert into transactions(id, subject_id, case_id, occurred_at, amount, currency,
			counterparty, country, channel, risk, flagged)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, t.ID, t.SubjectID, t.CaseID, t.Date.UTC(), t.Amount, t.Currency,
		t.Counterparty, t.Country, t.Channel, string(t.Risk), t.Flagged); err != nil {
		return dossier.Transaction{}, mapInsertErr(err, t.ID)
	}
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, subjectID string) ([]dossier.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, subject_id, case_id, occurred_at, amount, currency,
			counterparty, country, channel, risk, flagged
		from transactions
		where subject_id=$1
		order by seq asc
	`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []dossier.Transaction{}
	for rows.Next() {
		var (
			t    dossier.Transaction
			risk string
		)
		if err := rows.Scan(&t.ID, &t.SubjectID, &t.CaseID, &t.Date, &t.Amount, &t.Currency,
			&t.Counterparty, &t.Country, &t.Channel, &risk, &t.Flagged); err != nil {
			return nil, err
		}
		t.Risk = travel.RiskTier(risk)
		t.Date = t.Date.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) AddTask(ctx context.Context, t dossier.Task) (dossier.Task, error) {
	t, err := dossier.PrepareTask(t)
	if err != nil {
		return dossier.Task{}, err
	}
	if _, err := s.db.ExecContext(ctx, `
		insert into tasks(id, case_id, title, assignee, status, priority, sla_status, due_date, progress)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, t.ID, t.CaseID, t.Title, t.Assignee, string(t.Status), string(t.Priority),
		string(t.SLAStatus), nullDue(t.DueDate), t.Progress); err != nil {
		return dossier.Task{}, mapInsertErr(err, t.ID)
	}
	return t, nil
}

const taskColumns = `id, case_id, title, assignee, status, priority, sla_status, due_date, progress`

func (s *Store) ListTasks(ctx context.Context, caseID string) ([]dossier.Task, error) {
	q := `select ` + taskColumns + ` from tasks`
	var args []any
	if caseID != "" {
		q += ` where case_id=$1`
		args = append(args, caseID)
	}
	q += ` order by seq asc`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []dossier.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) UpdateTask(ctx context.Context, id string, u dossier.TaskUpdate) (dossier.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dossier.Task{}, err
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanTask(tx.QueryRowContext(ctx,
		`select `+taskColumns+` from tasks where id=$1 for update`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return dossier.Task{}, dossier.ErrNotFound
	}
	if err != nil {
		return dossier.Task{}, err
	}
	updated, err := u.Apply(current)
	if err != nil {
		return dossier.Task{}, err
	}
	if _, err := tx.ExecContext(ctx, `
		update tasks set status=$2, progress=$3, sla_status=$4, assignee=$5
		where id=$1
	`, id, string(updated.Status), updated.Progress, string(updated.SLAStatus), updated.Assignee); err != nil {
		return dossier.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return dossier.Task{}, err
	}
	return updated, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (dossier.Task, error) {
	var (
		t                      dossier.Task
		status, prio, slaState string
		due                    sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.CaseID, &t.Title, &t.Assignee, &status, &prio, &slaState,
		&due, &t.Progress); err != nil {
		return dossier.Task{}, err
	}
	t.Status = dossier.TaskStatus(status)
	t.Priority = dossier.Priority(prio)
	t.SLAStatus = dossier.SLAStatus(slaState)
	if due.Valid {
		t.DueDate = due.Time.UTC()
	}
	return t, nil
}

func mapInsertErr(err error, id string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: duplicate id %q", dossier.ErrInvalidRecord, id)
	}
	if strings.Contains(err.Error(), "violates check constraint") {
		return fmt.Errorf("%w: %v", dossier.ErrInvalidRecord, err)
	}
	return err
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v.UTC(), Valid: true}
}

func nullDue(v time.Time) sql.NullTime {
	if v.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v.UTC(), Valid: true}
}
