package dossier

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"intelhub.dev/internal/travel"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRecord = travel.ErrInvalidRecord
)

// HotelStay is a hotel booking attributed to a subject.
type HotelStay struct {
	ID         string          `json:"id" yaml:"id"`
	SubjectID  string          `json:"subject_id" yaml:"subject_id"`
	Hotel      string          `json:"hotel" yaml:"hotel"`
	City       string          `json:"city" yaml:"city"`
	Country    string          `json:"country" yaml:"country"`
	CheckIn    time.Time       `json:"check_in" yaml:"check_in"`
	Nights     int             `json:"nights" yaml:"nights"`
	Cost       int64           `json:"cost" yaml:"cost"` // minor units
	Currency   string          `json:"currency" yaml:"currency"`
	Risk       travel.RiskTier `json:"risk" yaml:"risk"`
	LinkedTrip string          `json:"linked_trip,omitempty" yaml:"linked_trip,omitempty"`
	Confirmed  bool            `json:"confirmed" yaml:"confirmed"`
}

func (h HotelStay) Validate() error {
	switch {
	case strings.TrimSpace(h.Hotel) == "":
		return fmt.Errorf("%w: hotel is required", ErrInvalidRecord)
	case h.CheckIn.IsZero():
		return fmt.Errorf("%w: check_in is required", ErrInvalidRecord)
	case h.Nights < 0:
		return fmt.Errorf("%w: nights must be >= 0", ErrInvalidRecord)
	case h.Cost < 0:
		return fmt.Errorf("%w: cost must be >= 0", ErrInvalidRecord)
	case !h.Risk.Valid():
		return fmt.Errorf("%w: risk %q", ErrInvalidRecord, h.Risk)
	}
	return nil
}

// TaskStatus is the kanban column of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusReview     TaskStatus = "review"
	StatusDone       TaskStatus = "done"
)

// TaskStatuses lists the kanban columns in board order.
var TaskStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusReview, StatusDone}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// SLAStatus tracks a task against its service-level deadline.
type SLAStatus string

const (
	SLAOnTrack  SLAStatus = "on-track"
	SLAAtRisk   SLAStatus = "at-risk"
	SLABreached SLAStatus = "breached"
)

var SLAStatuses = []SLAStatus{SLAOnTrack, SLAAtRisk, SLABreached}

func (s SLAStatus) Valid() bool {
	switch s {
	case SLAOnTrack, SLAAtRisk, SLABreached:
		return true
	}
	return false
}

// Task is a kanban card attached to a case.
type Task struct {
	ID        string     `json:"id" yaml:"id"`
	CaseID    string     `json:"case_id" yaml:"case_id"`
	Title     string     `json:"title" yaml:"title"`
	Assignee  string     `json:"assignee" yaml:"assignee"`
	Status    TaskStatus `json:"status" yaml:"status"`
	Priority  Priority   `json:"priority" yaml:"priority"`
	SLAStatus SLAStatus  `json:"sla_status" yaml:"sla_status"`
	DueDate   time.Time  `json:"due_date" yaml:"due_date"`
	Progress  int        `json:"progress" yaml:"progress"`
}

func (t Task) Validate() error {
	switch {
	case strings.TrimSpace(t.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidRecord)
	case !t.Status.Valid():
		return fmt.Errorf("%w: status %q", ErrInvalidRecord, t.Status)
	case !t.Priority.Valid():
		return fmt.Errorf("%w: priority %q", ErrInvalidRecord, t.Priority)
	case !t.SLAStatus.Valid():
		return fmt.Errorf("%w: sla_status %q", ErrInvalidRecord, t.SLAStatus)
	case t.Progress < 0 || t.Progress > 100:
		return fmt.Errorf("%w: progress must be within 0..100", ErrInvalidRecord)
	}
	return nil
}

// Overdue reports whether the task is unfinished past its due date.
func (t Task) Overdue(now time.Time) bool {
	return t.Status != StatusDone && !t.DueDate.IsZero() && t.DueDate.Before(now)
}

// TaskUpdate carries the fields a board move may change. Nil means unchanged.
type TaskUpdate struct {
	Status    *TaskStatus `json:"status,omitempty"`
	Progress  *int        `json:"progress,omitempty"`
	SLAStatus *SLAStatus  `json:"sla_status,omitempty"`
	Assignee  *string     `json:"assignee,omitempty"`
}

// Apply returns t with the update applied and validated.
func (u TaskUpdate) Apply(t Task) (Task, error) {
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.Progress != nil {
		t.Progress = *u.Progress
	}
	if u.SLAStatus != nil {
		t.SLAStatus = *u.SLAStatus
	}
	if u.Assignee != nil {
		t.Assignee = strings.TrimSpace(*u.Assignee)
	}
	if t.Status == StatusDone {
		t.Progress = 100
	}
	return t, t.Validate()
}

// Transaction is a financial movement linked to a subject.
type Transaction struct {
	ID           string          `json:"id" yaml:"id"`
	SubjectID    string          `json:"subject_id" yaml:"subject_id"`
	CaseID       string          `json:"case_id,omitempty" yaml:"case_id,omitempty"`
	Date         time.Time       `json:"date" yaml:"date"`
	Amount       int64           `json:"amount" yaml:"amount"` // minor units
	Currency     string          `json:"currency" yaml:"currency"`
	Counterparty string          `json:"counterparty" yaml:"counterparty"`
	Country      string          `json:"country" yaml:"country"`
	Channel      string          `json:"channel" yaml:"channel"`
	Risk         travel.RiskTier `json:"risk" yaml:"risk"`
	Flagged      bool            `json:"flagged" yaml:"flagged"`
}

func (t Transaction) Validate() error {
	switch {
	case t.Date.IsZero():
		return fmt.Errorf("%w: date is required", ErrInvalidRecord)
	case t.Amount <= 0:
		return fmt.Errorf("%w: amount must be > 0", ErrInvalidRecord)
	case strings.TrimSpace(t.Currency) == "":
		return fmt.Errorf("%w: currency is required", ErrInvalidRecord)
	case !t.Risk.Valid():
		return fmt.Errorf("%w: risk %q", ErrInvalidRecord, t.Risk)
	}
	return nil
}
