package travel

import (
	"cmp"
	"slices"

	"intelhub.dev/internal/stats"
)

// TripStats are the headline counters of a subject's travel card.
type TripStats struct {
	TotalCrossings          int          `json:"total_crossings"`
	ExitCount               int          `json:"exit_count"`
	TripCount               int          `json:"trip_count"`
	HighRiskTripCount       int          `json:"high_risk_trip_count"`
	DistinctExitCountries   int          `json:"distinct_exit_countries"`
	UnpairedCount           int          `json:"unpaired_count"`
	AverageDurationOverall  stats.Metric `json:"average_duration_overall"`
	AverageDurationHighRisk stats.Metric `json:"average_duration_high_risk"`
}

// ComputeStats derives counters from trips and the full record list.
// Averages with no contributing trips are undefined rather than NaN.
func ComputeStats(trips []Trip, all []Crossing) TripStats {
	isExit := func(c Crossing) bool { return c.Direction == Exit }
	exitCountries := stats.CountBy(all, func(c Crossing) string {
		if !isExit(c) {
			return ""
		}
		return c.Country
	})
	delete(exitCountries, "")

	var overall, high []float64
	for _, t := range trips {
		d := float64(t.Duration())
		overall = append(overall, d)
		if t.Risk() == RiskHigh {
			high = append(high, d)
		}
	}

	return TripStats{
		TotalCrossings:          len(all),
		ExitCount:               stats.CountByPredicate(all, isExit),
		TripCount:               len(trips),
		HighRiskTripCount:       len(high),
		DistinctExitCountries:   len(exitCountries),
		AverageDurationOverall:  stats.MeanMetric(overall),
		AverageDurationHighRisk: stats.MeanMetric(high),
	}
}

// CountryFrequency is one row of the exit-destination bar chart.
type CountryFrequency struct {
	Country string  `json:"country"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// FrequencyByCountry counts Exit records per country, most frequent first.
// Ties keep first-seen order. Percent is relative to the busiest country.
func FrequencyByCountry(records []Crossing) []CountryFrequency {
	out := []CountryFrequency{}
	pos := map[string]int{}
	for _, c := range records {
		if c.Direction != Exit {
			continue
		}
		i, ok := pos[c.Country]
		if !ok {
			i = len(out)
			pos[c.Country] = i
			out = append(out, CountryFrequency{Country: c.Country})
		}
		out[i].Count++
	}

	slices.SortStableFunc(out, func(a, b CountryFrequency) int {
		return cmp.Compare(b.Count, a.Count)
	})

	counts := make([]float64, len(out))
	for i, f := range out {
		counts[i] = float64(f.Count)
	}
	for i := range out {
		out[i].Percent = stats.PercentageOfMax(counts[i], counts)
	}
	return out
}

// Report bundles everything the travel card renders for one subject.
type Report struct {
	Pairing
	Stats     TripStats          `json:"stats"`
	Frequency []CountryFrequency `json:"frequency"`
}

// Analyze pairs records and derives stats and frequency in one call.
func Analyze(records []Crossing) Report {
	p := PairTrips(records)
	st := ComputeStats(p.Trips, records)
	st.UnpairedCount = len(p.Orphans)
	return Report{
		Pairing:   p,
		Stats:     st,
		Frequency: FrequencyByCountry(records),
	}
}
