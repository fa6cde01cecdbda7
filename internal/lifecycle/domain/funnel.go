package domain

import (
	"math"
	"time"
)

// ContactSnapshot is the slice of a contact the funnel needs.
type ContactSnapshot struct {
	Stage          LifecycleStage
	CreatedAt      time.Time
	StageChangedAt *time.Time
}

// StageStat is the occupancy of a single stage.
type StageStat struct {
	Stage      LifecycleStage `json:"stage"`
	Label      string         `json:"label"`
	Count      int            `json:"count"`
	Percentage float64        `json:"percentage"`
}

// ConversionRate is the adjacent-stage rate from From to To.
type ConversionRate struct {
	From LifecycleStage `json:"from"`
	To   LifecycleStage `json:"to"`
	Rate float64        `json:"rate"`
}

// FunnelReport is a point-in-time view of the lifecycle funnel.
//
// Conversion rates are derived from current stage occupancy, not from tracked
// cohorts. They approximate progression only while stage regressions are rare.
type FunnelReport struct {
	TotalContacts         int              `json:"totalContacts"`
	Stages                []StageStat      `json:"stages"`
	Churned               StageStat        `json:"churned"`
	ConversionRates       []ConversionRate `json:"conversionRates"`
	ConversionRateMethod  string           `json:"conversionRateMethod"`
	HealthScore           int              `json:"healthScore"`
	AvgLeadToCustomerDays *int             `json:"avgLeadToCustomerDays"`
}

// ConversionRateMethodSnapshot labels rates computed from stage occupancy.
const ConversionRateMethodSnapshot = "occupancy-snapshot"

// Stage returns the stat for s, including Churned.
func (r FunnelReport) Stage(s LifecycleStage) StageStat {
	if s == StageChurned {
		return r.Churned
	}
	for _, st := range r.Stages {
		if st.Stage == s {
			return st
		}
	}
	return StageStat{Stage: s, Label: s.Label()}
}

// ComputeFunnel builds the funnel report for the whole contact population.
func ComputeFunnel(contacts []ContactSnapshot) FunnelReport {
	counts := make(map[LifecycleStage]int, len(stageLabels))
	for _, c := range contacts {
		if c.Stage.Valid() {
			counts[c.Stage]++
		}
	}

	total := len(contacts)
	stat := func(s LifecycleStage) StageStat {
		return StageStat{
			Stage:      s,
			Label:      s.Label(),
			Count:      counts[s],
			Percentage: Percentage(counts[s], total),
		}
	}

	report := FunnelReport{
		TotalContacts:        total,
		Stages:               make([]StageStat, 0, len(forwardStages)),
		Churned:              stat(StageChurned),
		ConversionRateMethod: ConversionRateMethodSnapshot,
	}
	for _, s := range forwardStages {
		report.Stages = append(report.Stages, stat(s))
	}

	report.ConversionRates = ConversionRates(counts)
	rates := make([]float64, 0, len(report.ConversionRates))
	for _, cr := range report.ConversionRates {
		rates = append(rates, cr.Rate)
	}
	report.HealthScore = HealthScore(rates)
	report.AvgLeadToCustomerDays = AverageLeadToCustomerDays(contacts)

	return report
}

// Percentage returns count / total × 100, 0 when total is 0. It is not
// rounded; only conversion rates are.
func Percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) * 100 / float64(total)
}

// ConversionRates computes the rate for every adjacent forward pair. For the
// pair (i, i+1) the contacts at or past i+1 are divided by those at or past i.
func ConversionRates(counts map[LifecycleStage]int) []ConversionRate {
	rates := make([]ConversionRate, 0, len(forwardStages)-1)
	for i := 0; i+1 < len(forwardStages); i++ {
		reachedBeyond := 0
		for _, s := range forwardStages[i+1:] {
			reachedBeyond += counts[s]
		}
		passedThrough := counts[forwardStages[i]] + reachedBeyond

		rate := 0.0
		if passedThrough > 0 {
			rate = roundTo1(float64(reachedBeyond) / float64(passedThrough) * 100)
		}
		rates = append(rates, ConversionRate{From: forwardStages[i], To: forwardStages[i+1], Rate: rate})
	}
	return rates
}

// HealthScore returns round(min(100, mean(rates) × 2)), 0 for no rates.
func HealthScore(rates []float64) int {
	if len(rates) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range rates {
		sum += r
	}
	return int(math.Round(math.Min(100, sum/float64(len(rates))*2)))
}

// AverageLeadToCustomerDays averages whole days from creation to the last
// stage change over contacts currently in Customer. Negative spans are
// dropped. Nil means there was nothing to average.
func AverageLeadToCustomerDays(contacts []ContactSnapshot) *int {
	sum, n := 0, 0
	for _, c := range contacts {
		if c.Stage != StageCustomer || c.StageChangedAt == nil {
			continue
		}
		days := WholeDaysBetween(*c.StageChangedAt, c.CreatedAt)
		if days < 0 {
			continue
		}
		sum += days
		n++
	}
	if n == 0 {
		return nil
	}
	avg := int(math.Round(float64(sum) / float64(n)))
	return &avg
}

// WholeDaysBetween returns the number of whole days from earlier to later,
// truncated toward zero. It is negative when later precedes earlier.
func WholeDaysBetween(later, earlier time.Time) int {
	return int(later.Sub(earlier).Hours() / 24)
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}
