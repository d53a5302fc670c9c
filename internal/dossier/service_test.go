package dossier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"intelhub.dev/internal/travel"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func newCrossing(subject string, dir travel.Direction, country string, date time.Time) travel.Crossing {
	return travel.Crossing{
		SubjectID: subject,
		Date:      date,
		Direction: dir,
		Country:   country,
		Port:      "Port",
		Transport: travel.Air,
		Risk:      travel.RiskMedium,
	}
}

func TestAddCrossingAssignsIDAndKeepsOrder(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	a, err := s.AddCrossing(ctx, newCrossing("S-1", travel.Exit, "Nigeria", day(time.February, 9)))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(a.Crossing.ID, "crs_") {
		t.Fatalf("unexpected id %q", a.Crossing.ID)
	}
	if a.Previous != nil {
		t.Fatalf("first crossing must have no previous, got %+v", a.Previous)
	}
	b, err := s.AddCrossing(ctx, newCrossing("S-1", travel.Entry, "UAE", day(time.February, 16)))
	if err != nil {
		t.Fatal(err)
	}
	if b.Previous == nil || b.Previous.ID != a.Crossing.ID {
		t.Fatalf("previous = %+v, want %s", b.Previous, a.Crossing.ID)
	}

	got, _ := s.ListCrossings(ctx, "S-1")
	if len(got) != 2 || got[0].Country != "Nigeria" || got[1].Country != "UAE" {
		t.Fatalf("unexpected history: %+v", got)
	}
	if err := travel.CheckChronological(got); err != nil {
		t.Fatalf("stored history out of order: %v", err)
	}
}

func TestAddCrossingPreviousUnderConcurrency(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	const n = 32
	results := make([]Appended, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := s.AddCrossing(ctx, newCrossing("S-1", travel.Exit, "Nigeria", day(time.March, 1)))
			if err != nil {
				t.Errorf("add %d: %v", i, err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	// every write saw a distinct predecessor, so the results form one chain
	firsts := 0
	seen := make(map[string]bool, n)
	for _, res := range results {
		if res.Previous == nil {
			firsts++
			continue
		}
		if seen[res.Previous.ID] {
			t.Fatalf("previous %s reported twice", res.Previous.ID)
		}
		seen[res.Previous.ID] = true
	}
	if firsts != 1 {
		t.Fatalf("expected exactly one first crossing, got %d", firsts)
	}
}

func TestAddCrossingRejectsOutOfOrder(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	if _, err := s.AddCrossing(ctx, newCrossing("S-1", travel.Exit, "Nigeria", day(time.March, 1))); err != nil {
		t.Fatal(err)
	}
	_, err := s.AddCrossing(ctx, newCrossing("S-1", travel.Entry, "UAE", day(time.February, 1)))
	if !errors.Is(err, travel.ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}

	// other subjects are independent
	if _, err := s.AddCrossing(ctx, newCrossing("S-2", travel.Exit, "Iran", day(time.January, 1))); err != nil {
		t.Fatalf("unexpected error for second subject: %v", err)
	}
}

func TestAddCrossingValidates(t *testing.T) {
	s := NewInMemory()
	c := newCrossing("", travel.Exit, "Nigeria", day(time.March, 1))
	if _, err := s.AddCrossing(context.Background(), c); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord for missing subject, got %v", err)
	}
	c.SubjectID = "S-1"
	c.Direction = "Up"
	if _, err := s.AddCrossing(context.Background(), c); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord for direction, got %v", err)
	}
}

func TestListReturnsCopies(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	if _, err := s.AddHotelStay(ctx, HotelStay{SubjectID: "S-1", Hotel: "Marina", City: "Dubai", CheckIn: day(time.May, 1), Nights: 2, Cost: 40000, Currency: "USD", Risk: travel.RiskLow}); err != nil {
		t.Fatal(err)
	}
	got, _ := s.ListHotelStays(ctx, "S-1")
	got[0].Hotel = "mutated"
	again, _ := s.ListHotelStays(ctx, "S-1")
	if again[0].Hotel != "Marina" {
		t.Fatal("store returned shared slice")
	}
}

func TestTransactionsNormalizeCurrency(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	tx, err := s.AddTransaction(ctx, Transaction{SubjectID: "S-1", Date: day(time.June, 1), Amount: 5000, Currency: "usd", Risk: travel.RiskHigh})
	if err != nil {
		t.Fatal(err)
	}
	if tx.Currency != "USD" || !strings.HasPrefix(tx.ID, "txn_") {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if _, err := s.AddTransaction(ctx, Transaction{SubjectID: "S-1", Date: day(time.June, 1), Amount: 0, Currency: "USD", Risk: travel.RiskLow}); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestTaskLifecycle(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	task, err := s.AddTask(ctx, Task{CaseID: "CASE-7", Title: "Request hotel folio", Priority: PriorityHigh})
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != StatusTodo || task.SLAStatus != SLAOnTrack {
		t.Fatalf("defaults not applied: %+v", task)
	}
	other, err := s.AddTask(ctx, Task{CaseID: "CASE-8", Title: "Other", Priority: PriorityLow})
	if err != nil {
		t.Fatal(err)
	}

	done := StatusDone
	updated, err := s.UpdateTask(ctx, task.ID, TaskUpdate{Status: &done})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != StatusDone || updated.Progress != 100 {
		t.Fatalf("unexpected update: %+v", updated)
	}

	list, _ := s.ListTasks(ctx, "CASE-7")
	if len(list) != 1 || list[0].Status != StatusDone {
		t.Fatalf("unexpected list: %+v", list)
	}
	all, _ := s.ListTasks(ctx, "")
	if len(all) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(all))
	}

	if _, err := s.UpdateTask(ctx, "missing", TaskUpdate{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	bad := 150
	if _, err := s.UpdateTask(ctx, other.ID, TaskUpdate{Progress: &bad}); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestConcurrentIngest(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	N := 50
	for i := 0; i < N; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.AddTask(ctx, Task{CaseID: "CASE-1", Title: "task", Priority: PriorityLow})
		}(i)
	}
	wg.Wait()

	all, _ := s.ListTasks(ctx, "CASE-1")
	if len(all) != N {
		t.Fatalf("lost writes: %d of %d", len(all), N)
	}
}
