package httpapi

import (
	"fmt"
	"math"
	"net/http"
	"strings"

	"intelhub.dev/internal/audit"
	"intelhub.dev/internal/obs"
	"intelhub.dev/internal/stats"
	"intelhub.dev/internal/travel"
)

type tripsRequest struct {
	Records []travel.Crossing `json:"records"`
	// Sort pairs a chronologically sorted copy instead of rejecting
	// out-of-order input.
	Sort bool `json:"sort"`
}

// analyzeTrips pairs the posted crossings without storing them.
func (a *API) analyzeTrips(w http.ResponseWriter, r *http.Request) {
	var req tripsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	for i, c := range req.Records {
		if err := c.Validate(); err != nil {
			handleServiceError(w, r, fmt.Errorf("records[%d]: %w", i, err))
			return
		}
	}
	if err := travel.CheckSingleSubject(req.Records); err != nil {
		handleServiceError(w, r, err)
		return
	}
	records := req.Records
	if err := travel.CheckChronological(records); err != nil {
		if !req.Sort {
			handleServiceError(w, r, err)
			return
		}
		records = travel.SortChronological(records)
	}

	report := travel.Analyze(records)
	obs.ObservePairing(len(report.Trips), len(report.Orphans))
	_ = audit.Record(r.Context(), audit.Entry{
		Action: "analysis.trips",
		Details: map[string]any{
			"records": len(records),
			"trips":   len(report.Trips),
			"orphans": len(report.Orphans),
			"sorted":  req.Sort,
		},
	})
	writeJSON(w, http.StatusOK, report)
}

type aggregateItem struct {
	Key   string   `json:"key"`
	Value *float64 `json:"value,omitempty"`
}

type aggregateRequest struct {
	Items []aggregateItem `json:"items"`
}

type aggregateResponse struct {
	Total   int                         `json:"total"`
	Sum     float64                     `json:"sum"`
	Mean    stats.Metric                `json:"mean"`
	Buckets []stats.KeyedBucket[string] `json:"buckets"`
}

// aggregate groups arbitrary keyed values; items without a value count as 1.
func (a *API) aggregate(w http.ResponseWriter, r *http.Request) {
	var req aggregateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	values := make([]float64, 0, len(req.Items))
	for i, it := range req.Items {
		if strings.TrimSpace(it.Key) == "" {
			handleServiceError(w, r, fmt.Errorf("%w: items[%d]: key is required", travel.ErrInvalidRecord, i))
			return
		}
		v := itemValue(it)
		if !finite(v) {
			handleServiceError(w, r, fmt.Errorf("%w: items[%d]: value must be finite", travel.ErrInvalidRecord, i))
			return
		}
		values = append(values, v)
	}

	buckets := stats.GroupAndSum(req.Items,
		func(it aggregateItem) string { return strings.TrimSpace(it.Key) },
		itemValue,
	)
	resp := aggregateResponse{
		Total:   len(req.Items),
		Mean:    stats.MeanMetric(values),
		Buckets: stats.SortBuckets(buckets),
	}
	for _, v := range values {
		resp.Sum += v
	}
	if !finite(resp.Sum) || !finiteBuckets(resp.Buckets) {
		handleServiceError(w, r, fmt.Errorf("%w: sum of values overflows", travel.ErrInvalidRecord))
		return
	}
	_ = audit.Record(r.Context(), audit.Entry{
		Action:  "analysis.aggregate",
		Details: map[string]any{"items": len(req.Items), "buckets": len(resp.Buckets)},
	})
	writeJSON(w, http.StatusOK, resp)
}

func itemValue(it aggregateItem) float64 {
	if it.Value == nil {
		return 1
	}
	return *it.Value
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func finiteBuckets(buckets []stats.KeyedBucket[string]) bool {
	for _, b := range buckets {
		if !finite(b.Sum) {
			return false
		}
	}
	return true
}
