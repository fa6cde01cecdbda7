package domain

import (
	"math"
	"testing"
	"time"
)

func snap(stage LifecycleStage) ContactSnapshot {
	return ContactSnapshot{Stage: stage, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestComputeFunnelPercentages(t *testing.T) {
	contacts := []ContactSnapshot{
		snap(StageLead), snap(StageLead), snap(StageLead), snap(StageLead),
		snap(StageCustomer),
	}

	report := ComputeFunnel(contacts)

	if got := report.Stage(StageLead).Percentage; got != 80 {
		t.Fatalf("expected Lead 80%%, got %v", got)
	}
	if got := report.Stage(StageCustomer).Percentage; got != 20 {
		t.Fatalf("expected Customer 20%%, got %v", got)
	}
	if report.TotalContacts != 5 {
		t.Fatalf("expected 5 contacts, got %d", report.TotalContacts)
	}
}

func TestPercentageIsNotRounded(t *testing.T) {
	got := Percentage(1, 3)
	if math.Abs(got-100.0/3) > 1e-9 {
		t.Fatalf("expected 33.333..., got %v", got)
	}
	if got == 33.3 {
		t.Fatal("expected unrounded percentage")
	}
}

func TestComputeFunnelEmptyPopulation(t *testing.T) {
	report := ComputeFunnel(nil)

	for _, s := range AllStages() {
		st := report.Stage(s)
		if st.Count != 0 || st.Percentage != 0 {
			t.Fatalf("expected zero stat for %s, got %+v", s, st)
		}
	}
	if report.AvgLeadToCustomerDays != nil {
		t.Fatalf("expected absent cycle time, got %d", *report.AvgLeadToCustomerDays)
	}
	if report.HealthScore != 0 {
		t.Fatalf("expected health 0, got %d", report.HealthScore)
	}
}

func TestChurnedCountsTowardTotalOnly(t *testing.T) {
	report := ComputeFunnel([]ContactSnapshot{snap(StageLead), snap(StageChurned)})

	if report.Churned.Count != 1 || report.Churned.Percentage != 50 {
		t.Fatalf("unexpected churned stat %+v", report.Churned)
	}
	if len(report.Stages) != len(ForwardStages()) {
		t.Fatalf("expected only forward stages in funnel, got %d", len(report.Stages))
	}
}

func TestConversionRates(t *testing.T) {
	counts := map[LifecycleStage]int{
		StageLead:        4,
		StageMQL:         2,
		StageSQL:         1,
		StageOpportunity: 0,
		StageCustomer:    1,
	}

	rates := ConversionRates(counts)
	if len(rates) != 5 {
		t.Fatalf("expected 5 adjacent rates, got %d", len(rates))
	}

	want := []float64{
		50,  // (2+1+0+1) / (4+4)
		50,  // (1+0+1) / (2+2)
		50,  // (0+1) / (1+1)
		100, // 1 / (0+1)
		0,   // 0 / (1+0)
	}
	for i, w := range want {
		if rates[i].Rate != w {
			t.Fatalf("rate %s->%s = %v, want %v", rates[i].From, rates[i].To, rates[i].Rate, w)
		}
	}
}

func TestConversionRateRoundsToOneDecimal(t *testing.T) {
	rates := ConversionRates(map[LifecycleStage]int{StageLead: 2, StageMQL: 1})
	if rates[0].Rate != 33.3 {
		t.Fatalf("expected 33.3, got %v", rates[0].Rate)
	}
}

func TestHealthScore(t *testing.T) {
	cases := []struct {
		rates []float64
		want  int
	}{
		{[]float64{50, 50}, 100},
		{[]float64{10, 10}, 20},
		{[]float64{80, 90}, 100},
		{nil, 0},
	}
	for _, tc := range cases {
		if got := HealthScore(tc.rates); got != tc.want {
			t.Fatalf("HealthScore(%v) = %d, want %d", tc.rates, got, tc.want)
		}
	}
}

func TestAverageLeadToCustomerDays(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := created.Add(d)
		return &v
	}

	contacts := []ContactSnapshot{
		{Stage: StageCustomer, CreatedAt: created, StageChangedAt: at(10 * 24 * time.Hour)},
		{Stage: StageCustomer, CreatedAt: created, StageChangedAt: at(21*24*time.Hour + 5*time.Hour)},
		{Stage: StageCustomer, CreatedAt: created, StageChangedAt: at(-48 * time.Hour)},
		{Stage: StageLead, CreatedAt: created, StageChangedAt: at(100 * 24 * time.Hour)},
	}

	got := AverageLeadToCustomerDays(contacts)
	if got == nil || *got != 16 {
		t.Fatalf("expected 16 days (10 and 21 averaged, negative dropped), got %v", got)
	}
}

func TestAverageLeadToCustomerDaysAllDiscarded(t *testing.T) {
	created := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	earlier := created.Add(-72 * time.Hour)

	got := AverageLeadToCustomerDays([]ContactSnapshot{{Stage: StageCustomer, CreatedAt: created, StageChangedAt: &earlier}})
	if got != nil {
		t.Fatalf("expected absent average, got %d", *got)
	}
}

func TestWeightedValue(t *testing.T) {
	estimate := int64(1_000_000)
	probability := 20
	got := WeightedValue(&estimate, &probability)
	if got == nil || *got != 200_000 {
		t.Fatalf("expected 200000, got %v", got)
	}
	if WeightedValue(nil, &probability) != nil || WeightedValue(&estimate, nil) != nil {
		t.Fatal("expected nil weighted value when an input is missing")
	}
}
