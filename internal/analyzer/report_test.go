package analyzer_test

import (
	"fmt"
	"testing"

	"github.com/mveiga/prospector/internal/analyzer"
	"github.com/mveiga/prospector/internal/database"
)

func TestGenerateReportEmpty(t *testing.T) {
	t.Parallel()

	report := analyzer.GenerateReport(nil)

	if report.TotalCustomers != 0 || report.HighPriorityCount != 0 || report.TotalMessages != 0 {
		t.Errorf("empty report totals: %+v", report)
	}
	if report.TopPainPoints == nil || report.Customers == nil {
		t.Error("empty report should have empty, non-nil slices")
	}
}

func TestGenerateReportHistogram(t *testing.T) {
	t.Parallel()

	customers := []database.Customer{
		{Username: "alice", Score: 0.9, EngagementLevel: database.EngagementHigh,
			PainPoints: database.StringList{"A", "B"}, MessageCount: 6},
		{Username: "bob", Score: 0.7, EngagementLevel: database.EngagementMedium,
			PainPoints: database.StringList{"A", "C"}, MessageCount: 3},
	}

	report := analyzer.GenerateReport(customers)

	if report.TotalCustomers != 2 {
		t.Errorf("total customers: got %d, want 2", report.TotalCustomers)
	}
	if report.HighPriorityCount != 1 {
		t.Errorf("high priority count: got %d, want 1", report.HighPriorityCount)
	}
	if report.TotalMessages != 9 {
		t.Errorf("total messages: got %d, want 9", report.TotalMessages)
	}

	counts := make(map[string]int)
	for _, pp := range report.TopPainPoints {
		counts[pp.PainPoint] = pp.Count
	}
	if counts["A"] != 2 || counts["B"] != 1 || counts["C"] != 1 {
		t.Errorf("pain point histogram: got %v, want A:2 B:1 C:1", counts)
	}
	if report.TopPainPoints[0].PainPoint != "A" {
		t.Errorf("histogram should be sorted by count, first entry is %q", report.TopPainPoints[0].PainPoint)
	}
}

func TestGenerateReportHistogramCountsPerProfile(t *testing.T) {
	t.Parallel()

	// Each profile contributes at most one occurrence per distinct pain
	// point because profile lists are already sets.
	customers := []database.Customer{
		{Username: "alice", Score: 0.9, PainPoints: database.StringList{"A"}},
		{Username: "bob", Score: 0.8, PainPoints: database.StringList{"A"}},
		{Username: "carol", Score: 0.7, PainPoints: database.StringList{"A"}},
	}

	report := analyzer.GenerateReport(customers)
	if len(report.TopPainPoints) != 1 || report.TopPainPoints[0].Count != 3 {
		t.Errorf("histogram: got %+v, want single entry A:3", report.TopPainPoints)
	}
}

func TestGenerateReportTruncation(t *testing.T) {
	t.Parallel()

	var customers []database.Customer
	for i := 0; i < 25; i++ {
		customers = append(customers, database.Customer{
			Username: fmt.Sprintf("user-%02d", i),
			Score:    float64(i) / 25,
			PainPoints: database.StringList{
				"p1", "p2", "p3", "p4", "p5", "p6", "p7",
			},
		})
	}

	report := analyzer.GenerateReport(customers)

	if len(report.Customers) != 20 {
		t.Errorf("customer list should cap at 20, got %d", len(report.Customers))
	}
	if report.Customers[0].Username != "user-24" {
		t.Errorf("customer list should be sorted by descending score, first is %q", report.Customers[0].Username)
	}
	if len(report.Customers[0].PainPoints) != 5 {
		t.Errorf("per-customer pain points should cap at 5, got %d", len(report.Customers[0].PainPoints))
	}
	if len(report.TopPainPoints) > 10 {
		t.Errorf("pain point histogram should cap at 10, got %d", len(report.TopPainPoints))
	}
}
