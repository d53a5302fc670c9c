package dossier

import (
	"strings"
	"time"

	"intelhub.dev/internal/stats"
	"intelhub.dev/internal/travel"
)

// HotelSummary backs the hotel-stays widget.
type HotelSummary struct {
	Stays          int                         `json:"stays"`
	Nights         int                         `json:"nights"`
	TotalCost      int64                       `json:"total_cost"`
	Confirmed      int                         `json:"confirmed"`
	HighRisk       int                         `json:"high_risk"`
	AvgNightlyCost stats.Metric                `json:"avg_nightly_cost"`
	CostByCity     []stats.KeyedBucket[string] `json:"cost_by_city"`
	ByRisk         map[travel.RiskTier]int     `json:"by_risk"`
}

func SummarizeHotelStays(stays []HotelStay) HotelSummary {
	out := HotelSummary{
		Stays: len(stays),
		Confirmed: stats.CountByPredicate(stays, func(h HotelStay) bool {
			return h.Confirmed
		}),
		HighRisk: stats.CountByPredicate(stays, func(h HotelStay) bool {
			return h.Risk == travel.RiskHigh
		}),
		ByRisk: stats.CountBy(stays, func(h HotelStay) travel.RiskTier { return h.Risk }),
		CostByCity: stats.SortBuckets(stats.GroupAndSum(stays,
			func(h HotelStay) string { return h.City },
			func(h HotelStay) float64 { return float64(h.Cost) },
		)),
	}
	for _, h := range stays {
		out.Nights += h.Nights
		out.TotalCost += h.Cost
	}
	if avg, err := stats.Ratio(float64(out.TotalCost), float64(out.Nights)); err == nil {
		out.AvgNightlyCost = stats.Some(avg)
	}
	return out
}

// TaskSummary backs the kanban header and SLA dashboard counters.
type TaskSummary struct {
	Total           int                         `json:"total"`
	ByStatus        map[TaskStatus]int          `json:"by_status"`
	ByPriority      map[Priority]int            `json:"by_priority"`
	BySLA           map[SLAStatus]int           `json:"by_sla"`
	Overdue         int                         `json:"overdue"`
	AverageProgress stats.Metric                `json:"average_progress"`
	Workload        []stats.KeyedBucket[string] `json:"workload"`
}

// SummarizeTasks computes counters as of now. Every known status, priority
// and SLA value is present in the maps, zero when unused.
func SummarizeTasks(tasks []Task, now time.Time) TaskSummary {
	out := TaskSummary{
		Total:      len(tasks),
		ByStatus:   StatusBadges(tasks),
		ByPriority: map[Priority]int{},
		BySLA:      map[SLAStatus]int{},
		Overdue:    stats.CountByPredicate(tasks, func(t Task) bool { return t.Overdue(now) }),
	}
	for _, p := range Priorities {
		out.ByPriority[p] = stats.CountByPredicate(tasks, func(t Task) bool { return t.Priority == p })
	}
	for _, s := range SLAStatuses {
		out.BySLA[s] = stats.CountByPredicate(tasks, func(t Task) bool { return t.SLAStatus == s })
	}

	progress := make([]float64, 0, len(tasks))
	var open []Task
	for _, t := range tasks {
		progress = append(progress, float64(t.Progress))
		if t.Status != StatusDone {
			open = append(open, t)
		}
	}
	out.AverageProgress = stats.MeanMetric(progress)

	// open tasks per assignee, weighted by remaining progress
	out.Workload = stats.SortBuckets(stats.GroupAndSum(open,
		func(t Task) string {
			if t.Assignee == "" {
				return "unassigned"
			}
			return t.Assignee
		},
		func(t Task) float64 { return float64(100 - t.Progress) },
	))
	return out
}

// TransactionSummary backs the financial-activity widget.
type TransactionSummary struct {
	Count            int                         `json:"count"`
	TotalAmount      int64                       `json:"total_amount"`
	Flagged          int                         `json:"flagged"`
	HighRisk         int                         `json:"high_risk"`
	AverageAmount    stats.Metric                `json:"average_amount"`
	ByCounterparty   []stats.KeyedBucket[string] `json:"by_counterparty"`
	ByCountry        []stats.KeyedBucket[string] `json:"by_country"`
	CurrencyMismatch bool                        `json:"currency_mismatch"`
}

// SummarizeTransactions totals amounts in minor units. Amounts in different
// currencies are summed as-is and CurrencyMismatch is set.
func SummarizeTransactions(txs []Transaction) TransactionSummary {
	amount := func(t Transaction) float64 { return float64(t.Amount) }
	out := TransactionSummary{
		Count:          len(txs),
		Flagged:        stats.CountByPredicate(txs, func(t Transaction) bool { return t.Flagged }),
		HighRisk:       stats.CountByPredicate(txs, func(t Transaction) bool { return t.Risk == travel.RiskHigh }),
		ByCounterparty: stats.SortBuckets(stats.GroupAndSum(txs, func(t Transaction) string { return t.Counterparty }, amount)),
		ByCountry:      stats.SortBuckets(stats.GroupAndSum(txs, func(t Transaction) string { return t.Country }, amount)),
	}
	amounts := make([]float64, 0, len(txs))
	for _, t := range txs {
		out.TotalAmount += t.Amount
		amounts = append(amounts, float64(t.Amount))
		if !strings.EqualFold(t.Currency, txs[0].Currency) {
			out.CurrencyMismatch = true
		}
	}
	out.AverageAmount = stats.MeanMetric(amounts)
	return out
}

// TaskFilter selects kanban cards. Empty fields match everything.
type TaskFilter struct {
	Status   TaskStatus
	Priority Priority
	Assignee string
	SLA      SLAStatus
	Query    string
}

func (f TaskFilter) Match(t Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Assignee != "" && !strings.EqualFold(t.Assignee, f.Assignee) {
		return false
	}
	if f.SLA != "" && t.SLAStatus != f.SLA {
		return false
	}
	if q := strings.TrimSpace(f.Query); q != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(q)) {
		return false
	}
	return true
}

// FilterTasks returns the tasks matching f, preserving order.
func FilterTasks(tasks []Task, f TaskFilter) []Task {
	out := []Task{}
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// StatusBadges returns the per-column counts shown on the filter tabs.
func StatusBadges(tasks []Task) map[TaskStatus]int {
	out := make(map[TaskStatus]int, len(TaskStatuses))
	for _, s := range TaskStatuses {
		out[s] = stats.CountByPredicate(tasks, func(t Task) bool { return t.Status == s })
	}
	return out
}
