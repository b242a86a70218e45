package analyzer

import (
	"sort"

	"github.com/mveiga/prospector/internal/database"
)

const (
	reportTopPainPoints = 10
	reportTopCustomers  = 20
	reportDetailItems   = 5
)

// GenerateReport computes cross-customer statistics over all stored
// profiles: totals, the high-engagement count, a pain-point frequency
// histogram (one occurrence per profile per distinct pain point), and the
// top profiles by score with truncated detail lists.
func GenerateReport(customers []database.Customer) *ReportResult {
	report := &ReportResult{
		TopPainPoints: []PainPointCount{},
		Customers:     []ReportCustomer{},
	}

	if len(customers) == 0 {
		return report
	}

	report.TotalCustomers = len(customers)

	painPointCounts := make(map[string]int)
	var painPointOrder []string
	for _, customer := range customers {
		if customer.EngagementLevel == database.EngagementHigh {
			report.HighPriorityCount++
		}
		report.TotalMessages += customer.MessageCount

		for _, painPoint := range customer.PainPoints {
			if _, ok := painPointCounts[painPoint]; !ok {
				painPointOrder = append(painPointOrder, painPoint)
			}
			painPointCounts[painPoint]++
		}
	}

	histogram := make([]PainPointCount, 0, len(painPointOrder))
	for _, painPoint := range painPointOrder {
		histogram = append(histogram, PainPointCount{PainPoint: painPoint, Count: painPointCounts[painPoint]})
	}
	sort.SliceStable(histogram, func(i, j int) bool {
		return histogram[i].Count > histogram[j].Count
	})
	if len(histogram) > reportTopPainPoints {
		histogram = histogram[:reportTopPainPoints]
	}
	report.TopPainPoints = histogram

	ranked := append([]database.Customer(nil), customers...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > reportTopCustomers {
		ranked = ranked[:reportTopCustomers]
	}

	for _, customer := range ranked {
		report.Customers = append(report.Customers, ReportCustomer{
			Username:        customer.Username,
			Score:           customer.Score,
			EngagementLevel: customer.EngagementLevel,
			PainPoints:      truncate(customer.PainPoints, reportDetailItems),
			Interests:       truncate(customer.Interests, reportDetailItems),
		})
	}

	return report
}

func truncate(values []string, n int) []string {
	if len(values) > n {
		values = values[:n]
	}
	return append([]string(nil), values...)
}
