package httpapi

import (
	"net/http"

	"intelhub.dev/internal/audit"
	"intelhub.dev/internal/dossier"
	"intelhub.dev/internal/obs"
	"intelhub.dev/internal/stream"
	"intelhub.dev/internal/travel"
)

type listResponse[T any] struct {
	SubjectID string `json:"subject_id"`
	Items     []T    `json:"items"`
}

func (a *API) addCrossing(w http.ResponseWriter, r *http.Request) {
	var c travel.Crossing
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	c.SubjectID = subjectID(r)

	res, err := a.store.AddCrossing(r.Context(), c)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	stored := res.Crossing

	obs.ObserveIngest("crossing")
	events := stream.CrossingEvents(res.Previous, stored)
	for _, evt := range events {
		a.stream.Publish(evt)
	}
	_ = audit.Record(r.Context(), audit.Entry{
		Action:    "crossing.ingested",
		SubjectID: stored.SubjectID,
		RecordID:  stored.ID,
		Details: map[string]any{
			"direction":      stored.Direction,
			"trip_completed": len(events) > 1,
		},
	})
	writeJSON(w, http.StatusCreated, stored)
}

func (a *API) listCrossings(w http.ResponseWriter, r *http.Request) {
	id := subjectID(r)
	items, err := a.store.ListCrossings(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[travel.Crossing]{SubjectID: id, Items: items})
}

type subjectTripsResponse struct {
	SubjectID string `json:"subject_id"`
	travel.Report
}

// subjectTrips builds the travel card for a subject from stored crossings.
func (a *API) subjectTrips(w http.ResponseWriter, r *http.Request) {
	id := subjectID(r)
	records, err := a.store.ListCrossings(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	report := travel.Analyze(records)
	obs.ObservePairing(len(report.Trips), len(report.Orphans))
	writeJSON(w, http.StatusOK, subjectTripsResponse{SubjectID: id, Report: report})
}

func (a *API) addHotelStay(w http.ResponseWriter, r *http.Request) {
	var h dossier.HotelStay
	if err := decodeJSON(w, r, &h); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	h.SubjectID = subjectID(r)
	stored, err := a.store.AddHotelStay(r.Context(), h)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	obs.ObserveIngest("hotel_stay")
	a.stream.Publish(stream.Event{Kind: stream.RecordStored, SubjectID: stored.SubjectID, RecordID: stored.ID})
	_ = audit.Record(r.Context(), audit.Entry{
		Action:    "hotel_stay.ingested",
		SubjectID: stored.SubjectID,
		RecordID:  stored.ID,
	})
	writeJSON(w, http.StatusCreated, stored)
}

func (a *API) listHotelStays(w http.ResponseWriter, r *http.Request) {
	id := subjectID(r)
	items, err := a.store.ListHotelStays(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[dossier.HotelStay]{SubjectID: id, Items: items})
}

func (a *API) hotelSummary(w http.ResponseWriter, r *http.Request) {
	items, err := a.store.ListHotelStays(r.Context(), subjectID(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dossier.SummarizeHotelStays(items))
}

func (a *API) addTransaction(w http.ResponseWriter, r *http.Request) {
	var t dossier.Transaction
	if err := decodeJSON(w, r, &t); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	t.SubjectID = subjectID(r)
	stored, err := a.store.AddTransaction(r.Context(), t)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	obs.ObserveIngest("transaction")
	a.stream.Publish(stream.Event{Kind: stream.RecordStored, SubjectID: stored.SubjectID, RecordID: stored.ID})
	_ = audit.Record(r.Context(), audit.Entry{
		Action:    "transaction.ingested",
		SubjectID: stored.SubjectID,
		RecordID:  stored.ID,
		Details:   map[string]any{"amount": stored.Amount, "currency": stored.Currency},
	})
	writeJSON(w, http.StatusCreated, stored)
}

func (a *API) listTransactions(w http.ResponseWriter, r *http.Request) {
	id := subjectID(r)
	items, err := a.store.ListTransactions(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[dossier.Transaction]{SubjectID: id, Items: items})
}

func (a *API) transactionSummary(w http.ResponseWriter, r *http.Request) {
	items, err := a.store.ListTransactions(r.Context(), subjectID(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dossier.SummarizeTransactions(items))
}
