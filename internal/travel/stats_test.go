package travel

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestAnalyzeExampleScenario(t *testing.T) {
	recs := exampleRecords()
	rep := Analyze(recs)

	if len(rep.Trips) != 2 {
		t.Fatalf("got %d trips, want 2", len(rep.Trips))
	}
	if rep.Stats.HighRiskTripCount != 2 {
		t.Fatalf("high risk trips = %d, want 2", rep.Stats.HighRiskTripCount)
	}
	if rep.Stats.TotalCrossings != 4 || rep.Stats.ExitCount != 2 || rep.Stats.DistinctExitCountries != 2 {
		t.Fatalf("unexpected counters: %+v", rep.Stats)
	}
	if rep.Stats.UnpairedCount != 0 {
		t.Fatalf("unexpected unpaired count %d", rep.Stats.UnpairedCount)
	}

	want := []CountryFrequency{
		{Country: "Nigeria", Count: 1, Percent: 100},
		{Country: "Pakistan", Count: 1, Percent: 100},
	}
	if diff := cmp.Diff(want, rep.Frequency); diff != "" {
		t.Fatalf("frequency mismatch (-want +got):\n%s", diff)
	}

	// 7 and 8 days between legs
	if m := rep.Stats.AverageDurationHighRisk; !m.Valid || m.Value != 7.5 {
		t.Fatalf("unexpected high-risk average: %+v", m)
	}
	if m := rep.Stats.AverageDurationOverall; !m.Valid || m.Value != 7.5 {
		t.Fatalf("unexpected overall average: %+v", m)
	}
}

func TestComputeStatsNoHighRiskTrips(t *testing.T) {
	recs := []Crossing{
		crossing("a", Exit, "France", RiskLow, day(2024, time.June, 1)),
		crossing("b", Entry, "UAE", RiskLow, day(2024, time.June, 5)),
	}
	p := PairTrips(recs)
	st := ComputeStats(p.Trips, recs)

	if st.HighRiskTripCount != 0 {
		t.Fatalf("unexpected high risk count %d", st.HighRiskTripCount)
	}
	if st.AverageDurationHighRisk.Valid {
		t.Fatalf("expected undefined high-risk average, got %+v", st.AverageDurationHighRisk)
	}
	if !st.AverageDurationOverall.Valid || st.AverageDurationOverall.Value != 4 {
		t.Fatalf("unexpected overall average: %+v", st.AverageDurationOverall)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	st := ComputeStats(nil, nil)
	if st.AverageDurationOverall.Valid || st.AverageDurationHighRisk.Valid {
		t.Fatalf("expected undefined averages, got %+v", st)
	}
}

func TestTripDurationPrefersRecordedValue(t *testing.T) {
	days := 12
	exit := crossing("a", Exit, "Nigeria", RiskHigh, day(2024, time.February, 9))
	exit.DurationDays = &days
	trip := Trip{Exit: exit, Entry: crossing("b", Entry, "UAE", RiskLow, day(2024, time.February, 16))}
	if trip.Duration() != 12 {
		t.Fatalf("got %d, want recorded 12", trip.Duration())
	}
	if trip.Destination() != "Nigeria" || trip.Risk() != RiskHigh {
		t.Fatalf("exit-leg attributes not inherited: %s %s", trip.Destination(), trip.Risk())
	}
}

func TestFrequencyByCountryUsesRuntimeMax(t *testing.T) {
	d := day(2024, time.January, 1)
	var recs []Crossing
	for i, c := range []string{"Turkey", "Nigeria", "Turkey", "Pakistan", "Turkey", "Nigeria"} {
		recs = append(recs,
			crossing("x", Exit, c, RiskMedium, d.AddDate(0, 0, 2*i)),
			crossing("n", Entry, "UAE", RiskLow, d.AddDate(0, 0, 2*i+1)),
		)
	}

	got := FrequencyByCountry(recs)
	want := []CountryFrequency{
		{Country: "Turkey", Count: 3, Percent: 100},
		{Country: "Nigeria", Count: 2, Percent: 200.0 / 3},
		{Country: "Pakistan", Count: 1, Percent: 100.0 / 3},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("frequency mismatch (-want +got):\n%s", diff)
	}
}

func TestFrequencyByCountryNoExits(t *testing.T) {
	got := FrequencyByCountry([]Crossing{crossing("n", Entry, "UAE", RiskLow, day(2024, time.January, 1))})
	if len(got) != 0 {
		t.Fatalf("expected empty frequency, got %+v", got)
	}
}
