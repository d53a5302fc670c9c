package dossier

import (
	"fmt"
	"strings"

	"intelhub.dev/internal/ids"
	"intelhub.dev/internal/travel"
)

// PrepareCrossing validates c and assigns an ID when missing. Store
// implementations call it before persisting.
func PrepareCrossing(c travel.Crossing) (travel.Crossing, error) {
	c.SubjectID = strings.TrimSpace(c.SubjectID)
	if c.SubjectID == "" {
		return travel.Crossing{}, fmt.Errorf("%w: subject_id is required", ErrInvalidRecord)
	}
	if err := c.Validate(); err != nil {
		return travel.Crossing{}, err
	}
	if c.ID == "" {
		c.ID = ids.WithPrefix(ids.PrefixCrossing)
	}
	return c, nil
}

func PrepareHotelStay(h HotelStay) (HotelStay, error) {
	h.SubjectID = strings.TrimSpace(h.SubjectID)
	if h.SubjectID == "" {
		return HotelStay{}, fmt.Errorf("%w: subject_id is required", ErrInvalidRecord)
	}
	if err := h.Validate(); err != nil {
		return HotelStay{}, err
	}
	if h.ID == "" {
		h.ID = ids.WithPrefix(ids.PrefixHotelStay)
	}
	return h, nil
}

func PrepareTransaction(t Transaction) (Transaction, error) {
	t.SubjectID = strings.TrimSpace(t.SubjectID)
	if t.SubjectID == "" {
		return Transaction{}, fmt.Errorf("%w: subject_id is required", ErrInvalidRecord)
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	t.Currency = strings.ToUpper(t.Currency)
	if t.ID == "" {
		t.ID = ids.WithPrefix(ids.PrefixTransaction)
	}
	return t, nil
}

// PrepareTask fills default status and SLA, validates, and assigns an ID.
func PrepareTask(t Task) (Task, error) {
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.SLAStatus == "" {
		t.SLAStatus = SLAOnTrack
	}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	if t.ID == "" {
		t.ID = ids.WithPrefix(ids.PrefixTask)
	}
	return t, nil
}

// OutOfOrder builds the error returned when c predates latest.
func OutOfOrder(c travel.Crossing, latest travel.Crossing) error {
	return fmt.Errorf("%w: %s is before latest crossing %s",
		travel.ErrOutOfOrder, c.Date.Format("2006-01-02"), latest.Date.Format("2006-01-02"))
}
