// Package travel pairs border-crossing records into trips and derives the
// travel-pattern figures shown on a subject's profile.
package travel

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Direction of a border crossing.
type Direction string

const (
	Entry Direction = "Entry"
	Exit  Direction = "Exit"
)

func (d Direction) Valid() bool { return d == Entry || d == Exit }

// Transport method used for a crossing.
type Transport string

const (
	Air  Transport = "Air"
	Land Transport = "Land"
	Sea  Transport = "Sea"
)

func (t Transport) Valid() bool { return t == Air || t == Land || t == Sea }

// RiskTier is the three-level risk attribute shared by crossings, stays and
// transactions.
type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

func (r RiskTier) Valid() bool { return r == RiskLow || r == RiskMedium || r == RiskHigh }

// ParseRisk accepts any casing of low/medium/high.
func ParseRisk(s string) (RiskTier, error) {
	r := RiskTier(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: risk %q", ErrInvalidRecord, s)
	}
	return r, nil
}

var (
	// ErrInvalidRecord marks a crossing with a missing or out-of-range field.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrOutOfOrder marks a crossing sequence that is not ascending by date.
	ErrOutOfOrder = errors.New("records out of chronological order")
)

// Crossing is one border-crossing event for a subject.
type Crossing struct {
	ID           string     `json:"id" yaml:"id"`
	SubjectID    string     `json:"subject_id" yaml:"subject_id"`
	Date         time.Time  `json:"date" yaml:"date"`
	Direction    Direction  `json:"direction" yaml:"direction"`
	Country      string     `json:"country" yaml:"country"`
	Port         string     `json:"port" yaml:"port"`
	Transport    Transport  `json:"transport" yaml:"transport"`
	DurationDays *int       `json:"duration_days,omitempty" yaml:"duration_days,omitempty"`
	Risk         RiskTier   `json:"risk" yaml:"risk"`
	ReturnDate   *time.Time `json:"return_date,omitempty" yaml:"return_date,omitempty"`
	LinkedTrip   string     `json:"linked_trip,omitempty" yaml:"linked_trip,omitempty"`
}

// Validate checks the enumerations and required fields.
func (c Crossing) Validate() error {
	switch {
	case c.Date.IsZero():
		return fmt.Errorf("%w: date is required", ErrInvalidRecord)
	case !c.Direction.Valid():
		return fmt.Errorf("%w: direction %q", ErrInvalidRecord, c.Direction)
	case !c.Transport.Valid():
		return fmt.Errorf("%w: transport %q", ErrInvalidRecord, c.Transport)
	case !c.Risk.Valid():
		return fmt.Errorf("%w: risk %q", ErrInvalidRecord, c.Risk)
	case strings.TrimSpace(c.Country) == "":
		return fmt.Errorf("%w: country is required", ErrInvalidRecord)
	case c.DurationDays != nil && *c.DurationDays < 0:
		return fmt.Errorf("%w: duration_days must be >= 0", ErrInvalidRecord)
	}
	return nil
}

// Trip is an Exit leg followed by the Entry leg that closes it.
type Trip struct {
	Exit  Crossing `json:"exit"`
	Entry Crossing `json:"entry"`
}

// Destination is the country recorded on the exit leg.
func (t Trip) Destination() string { return t.Exit.Country }

// Risk is the exit leg's risk tier.
func (t Trip) Risk() RiskTier { return t.Exit.Risk }

// LinkedTrip is the exit leg's linked-trip label.
func (t Trip) LinkedTrip() string { return t.Exit.LinkedTrip }

// Duration returns the exit leg's recorded duration in days, or the whole
// days between the two legs when none was recorded.
func (t Trip) Duration() int {
	if t.Exit.DurationDays != nil {
		return *t.Exit.DurationDays
	}
	d := t.Entry.Date.Sub(t.Exit.Date)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// MarshalJSON adds the derived destination, duration and risk next to the
// two legs.
func (t Trip) MarshalJSON() ([]byte, error) {
	type legs Trip
	return json.Marshal(struct {
		legs
		Destination  string   `json:"destination"`
		DurationDays int      `json:"duration_days"`
		Risk         RiskTier `json:"risk"`
		LinkedTrip   string   `json:"linked_trip,omitempty"`
	}{legs(t), t.Destination(), t.Duration(), t.Risk(), t.LinkedTrip()})
}
