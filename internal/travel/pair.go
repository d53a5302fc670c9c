package travel

import (
	"fmt"
	"slices"
)

// OrphanReason explains why a crossing did not join a trip.
type OrphanReason string

const (
	// LeadingEntry is an Entry with no open Exit before it.
	LeadingEntry OrphanReason = "leading-entry"
	// ConsecutiveExit is an Exit superseded by another Exit before any Entry.
	ConsecutiveExit OrphanReason = "consecutive-exit"
	// TrailingExit is an Exit still open at the end of the sequence.
	TrailingExit OrphanReason = "trailing-exit"
	// SubjectChange is an open Exit followed by a record for another subject.
	SubjectChange OrphanReason = "subject-change"
)

// Orphan is an unpaired crossing and its position in the input.
type Orphan struct {
	Index    int          `json:"index"`
	Crossing Crossing     `json:"crossing"`
	Reason   OrphanReason `json:"reason"`
}

// Pairing is the result of PairTrips.
type Pairing struct {
	Trips   []Trip   `json:"trips"`
	Orphans []Orphan `json:"orphans"`
}

type pairState int

const (
	awaitingExit pairState = iota
	awaitingEntry
)

// PairTrips pairs each Exit with the Entry that immediately follows it.
//
// Records must already be ascending by date; they are not re-sorted. The
// scan is a two-state machine: an Exit opens a trip, the next record closes
// it if it is an Entry. Every record that does not end up in a trip is
// reported in Orphans rather than dropped. The input is not modified.
//
// A trip never spans subjects: a record whose subject differs from the open
// Exit's orphans that Exit and is then handled as if nothing were open.
// Records without a subject id match any subject.
func PairTrips(records []Crossing) Pairing {
	res := Pairing{Trips: []Trip{}, Orphans: []Orphan{}}
	state := awaitingExit
	open := -1

	for i, rec := range records {
		switch state {
		case awaitingExit:
			if rec.Direction == Exit {
				open, state = i, awaitingEntry
				continue
			}
			res.Orphans = append(res.Orphans, Orphan{Index: i, Crossing: rec, Reason: LeadingEntry})
		case awaitingEntry:
			if !sameSubject(records[open], rec) {
				res.Orphans = append(res.Orphans, Orphan{Index: open, Crossing: records[open], Reason: SubjectChange})
				open, state = -1, awaitingExit
				if rec.Direction == Exit {
					open, state = i, awaitingEntry
					continue
				}
				res.Orphans = append(res.Orphans, Orphan{Index: i, Crossing: rec, Reason: LeadingEntry})
				continue
			}
			if rec.Direction == Entry {
				res.Trips = append(res.Trips, Trip{Exit: records[open], Entry: rec})
				open, state = -1, awaitingExit
				continue
			}
			res.Orphans = append(res.Orphans, Orphan{Index: open, Crossing: records[open], Reason: ConsecutiveExit})
			open = i
		}
	}
	if state == awaitingEntry {
		res.Orphans = append(res.Orphans, Orphan{Index: open, Crossing: records[open], Reason: TrailingExit})
	}
	return res
}

func sameSubject(a, b Crossing) bool {
	return a.SubjectID == "" || b.SubjectID == "" || a.SubjectID == b.SubjectID
}

// CheckSingleSubject reports ErrInvalidRecord when records name more than one
// non-empty subject id.
func CheckSingleSubject(records []Crossing) error {
	first := ""
	for i, rec := range records {
		switch {
		case rec.SubjectID == "":
		case first == "":
			first = rec.SubjectID
		case rec.SubjectID != first:
			return fmt.Errorf("%w: record %d is for subject %q, expected %q", ErrInvalidRecord, i, rec.SubjectID, first)
		}
	}
	return nil
}

// CheckChronological reports ErrOutOfOrder when any record is dated before
// its predecessor. Equal dates are allowed.
func CheckChronological(records []Crossing) error {
	for i := 1; i < len(records); i++ {
		if records[i].Date.Before(records[i-1].Date) {
			return fmt.Errorf("%w: record %d (%s) precedes record %d (%s)", ErrOutOfOrder,
				i, records[i].Date.Format("2006-01-02"), i-1, records[i-1].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// SortChronological returns a copy of records sorted ascending by date.
// Records sharing a date keep their relative order.
func SortChronological(records []Crossing) []Crossing {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b Crossing) int {
		return a.Date.Compare(b.Date)
	})
	return out
}
