// Package dashboard derives the views shown on the dashboard from the
// session's newsletter and recommendation lists. Everything here is pure:
// the same inputs always give the same output, and no input is mutated.
package dashboard

import (
	"fmt"
	"math"
	"strings"

	"newsletter_dashboard/internal/models"
)

// Engagement thresholds for the two aggregate counters. Both comparisons
// are strict.
const (
	LowEngagementBelow  = 0.5
	HighEngagementAbove = 0.8
)

// Metrics are the aggregates over the full, unfiltered newsletter list.
type Metrics struct {
	TotalSpend         float64 `json:"totalSpend"`
	LowEngagementPaid  int     `json:"lowEngagementPaidCount"`
	HighEngagementFree int     `json:"highEngagementFreeCount"`
}

// Filter returns the newsletters whose name or author contains term,
// ignoring case. An empty term returns every newsletter in order.
func Filter(list []models.Newsletter, term string) []models.Newsletter {
	out := make([]models.Newsletter, 0, len(list))
	if term == "" {
		return append(out, list...)
	}

	needle := strings.ToLower(term)
	for _, n := range list {
		if strings.Contains(strings.ToLower(n.Name), needle) ||
			strings.Contains(strings.ToLower(n.Author), needle) {
			out = append(out, n)
		}
	}
	return out
}

// ComputeMetrics aggregates spend and engagement buckets over list.
func ComputeMetrics(list []models.Newsletter) Metrics {
	var m Metrics
	for _, n := range list {
		if n.Paid {
			m.TotalSpend += n.Cost
			if n.Engagement < LowEngagementBelow {
				m.LowEngagementPaid++
			}
			continue
		}
		if n.Engagement > HighEngagementAbove {
			m.HighEngagementFree++
		}
	}
	return m
}

// FormatSpend renders a monthly amount the way the spend card shows it.
func FormatSpend(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// Percent renders a [0,1] ratio as a whole percentage.
func Percent(ratio float64) int {
	return int(math.Round(ratio * 100))
}
