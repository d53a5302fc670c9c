// Package dossier stores the per-subject and per-case records the dashboard
// aggregates: crossings, hotel stays, transactions and tasks.
package dossier

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"intelhub.dev/internal/travel"
)

// Service defines record storage operations.
type Service interface {
	AddCrossing(ctx context.Context, c travel.Crossing) (Appended, error)
	ListCrossings(ctx context.Context, subjectID string) ([]travel.Crossing, error)
	AddHotelStay(ctx context.Context, h HotelStay) (HotelStay, error)
	ListHotelStays(ctx context.Context, subjectID string) ([]HotelStay, error)
	AddTransaction(ctx context.Context, t Transaction) (Transaction, error)
	ListTransactions(ctx context.Context, subjectID string) ([]Transaction, error)
	AddTask(ctx context.Context, t Task) (Task, error)
	ListTasks(ctx context.Context, caseID string) ([]Task, error)
	UpdateTask(ctx context.Context, id string, u TaskUpdate) (Task, error)
}

// Appended is a stored crossing together with the subject's latest crossing
// as it was just before the write. Previous is nil for a first crossing.
type Appended struct {
	Crossing travel.Crossing
	Previous *travel.Crossing
}

// InMemory implements Service with in-process concurrency safety.
type InMemory struct {
	mu        sync.RWMutex
	crossings map[string][]travel.Crossing // subject -> ascending by date
	stays     map[string][]HotelStay
	txs       map[string][]Transaction
	tasks     []Task
	taskIdx   map[string]int
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		crossings: make(map[string][]travel.Crossing),
		stays:     make(map[string][]HotelStay),
		txs:       make(map[string][]Transaction),
		taskIdx:   make(map[string]int),
	}
}

// AddCrossing appends a crossing to its subject's history. A crossing dated
// before the subject's latest one is rejected with travel.ErrOutOfOrder so
// stored histories always satisfy the pairing precondition.
func (s *InMemory) AddCrossing(ctx context.Context, c travel.Crossing) (Appended, error) {
	c, err := PrepareCrossing(c)
	if err != nil {
		return Appended{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	hist := s.crossings[c.SubjectID]
	out := Appended{Crossing: c}
	if n := len(hist); n > 0 {
		if c.Date.Before(hist[n-1].Date) {
			return Appended{}, OutOfOrder(c, hist[n-1])
		}
		prev := hist[n-1]
		out.Previous = &prev
	}
	s.crossings[c.SubjectID] = append(hist, c)
	return out, nil
}

func (s *InMemory) ListCrossings(ctx context.Context, subjectID string) ([]travel.Crossing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.crossings[subjectID]), nil
}

func (s *InMemory) AddHotelStay(ctx context.Context, h HotelStay) (HotelStay, error) {
	h, err := PrepareHotelStay(h)
	if err != nil {
		return HotelStay{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stays[h.SubjectID] = append(s.stays[h.SubjectID], h)
	return h, nil
}

func (s *InMemory) ListHotelStays(ctx context.Context, subjectID string) ([]HotelStay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.stays[subjectID]), nil
}

func (s *InMemory) AddTransaction(ctx context.Context, t Transaction) (Transaction, error) {
	t, err := PrepareTransaction(t)
	if err != nil {
		return Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[t.SubjectID] = append(s.txs[t.SubjectID], t)
	return t, nil
}

func (s *InMemory) ListTransactions(ctx context.Context, subjectID string) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.txs[subjectID]), nil
}

func (s *InMemory) AddTask(ctx context.Context, t Task) (Task, error) {
	t, err := PrepareTask(t)
	if err != nil {
		return Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.taskIdx[t.ID]; ok {
		return Task{}, fmt.Errorf("%w: duplicate task id %q", ErrInvalidRecord, t.ID)
	}
	s.taskIdx[t.ID] = len(s.tasks)
	s.tasks = append(s.tasks, t)
	return t, nil
}

// ListTasks returns tasks for caseID in creation order, or all tasks when
// caseID is empty.
func (s *InMemory) ListTasks(ctx context.Context, caseID string) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Task{}
	for _, t := range s.tasks {
		if caseID == "" || t.CaseID == caseID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *InMemory) UpdateTask(ctx context.Context, id string, u TaskUpdate) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.taskIdx[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	updated, err := u.Apply(s.tasks[i])
	if err != nil {
		return Task{}, err
	}
	s.tasks[i] = updated
	return updated, nil
}
