package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"intelhub.dev/internal/audit"
	"intelhub.dev/internal/dossier"
	"intelhub.dev/internal/obs"
	"intelhub.dev/internal/stream"
)

type taskListResponse struct {
	Items  []dossier.Task             `json:"items"`
	Badges map[dossier.TaskStatus]int `json:"badges"`
}

func (a *API) addTask(w http.ResponseWriter, r *http.Request) {
	var t dossier.Task
	if err := decodeJSON(w, r, &t); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	stored, err := a.store.AddTask(r.Context(), t)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	obs.ObserveIngest("task")
	_ = audit.Record(r.Context(), audit.Entry{
		Action:   "task.created",
		RecordID: stored.ID,
		Details:  map[string]any{"case_id": stored.CaseID, "priority": stored.Priority},
	})
	writeJSON(w, http.StatusCreated, stored)
}

// listTasks returns the kanban cards for a case, filtered by the query
// parameters. Badges count the case's tasks per status before filtering.
func (a *API) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := dossier.TaskFilter{
		Status:   dossier.TaskStatus(strings.TrimSpace(q.Get("status"))),
		Priority: dossier.Priority(strings.TrimSpace(q.Get("priority"))),
		Assignee: strings.TrimSpace(q.Get("assignee")),
		SLA:      dossier.SLAStatus(strings.TrimSpace(q.Get("sla"))),
		Query:    q.Get("q"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		handleServiceError(w, r, invalidParam("status", string(filter.Status)))
		return
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		handleServiceError(w, r, invalidParam("priority", string(filter.Priority)))
		return
	}
	if filter.SLA != "" && !filter.SLA.Valid() {
		handleServiceError(w, r, invalidParam("sla", string(filter.SLA)))
		return
	}

	tasks, err := a.store.ListTasks(r.Context(), strings.TrimSpace(q.Get("case_id")))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, taskListResponse{
		Items:  dossier.FilterTasks(tasks, filter),
		Badges: dossier.StatusBadges(tasks),
	})
}

func (a *API) taskSummary(w http.ResponseWriter, r *http.Request) {
	tasks, err := a.store.ListTasks(r.Context(), strings.TrimSpace(r.URL.Query().Get("case_id")))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dossier.SummarizeTasks(tasks, a.now()))
}

func (a *API) updateTask(w http.ResponseWriter, r *http.Request) {
	var u dossier.TaskUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	updated, err := a.store.UpdateTask(r.Context(), id, u)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	a.stream.Publish(stream.Event{Kind: stream.TaskUpdated, RecordID: updated.ID})
	_ = audit.Record(r.Context(), audit.Entry{
		Action:   "task.updated",
		RecordID: updated.ID,
		Details: map[string]any{
			"status":     updated.Status,
			"progress":   updated.Progress,
			"sla_status": updated.SLAStatus,
		},
	})
	writeJSON(w, http.StatusOK, updated)
}

func invalidParam(name, value string) error {
	return fmt.Errorf("%w: unknown %s %q", dossier.ErrInvalidRecord, name, value)
}
