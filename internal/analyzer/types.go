package analyzer

// MessageIntent is the model's normalized assessment of a single message.
// JSON tags match the structured reply requested from the model.
type MessageIntent struct {
	MessageID   int64    `json:"message_id"`
	Author      string   `json:"author"`
	IntentScore float64  `json:"intent_score"`
	IntentType  string   `json:"intent_type"`
	PainPoints  []string `json:"pain_points"`
	Interests   []string `json:"interests"`
	Keywords    []string `json:"keywords"`
	Explanation string   `json:"explanation"`
}

// AuthorAggregate collects one author's intent records within a single
// analysis run. It is built by AggregateByAuthor and discarded after the run.
type AuthorAggregate struct {
	Author   string
	AuthorID string

	Records      []MessageIntent
	PainPoints   []string
	Interests    []string
	TotalScore   float64
	MessageCount int
}

// AverageScore returns the mean intent score across the author's records.
func (a *AuthorAggregate) AverageScore() float64 {
	if a.MessageCount == 0 {
		return 0
	}
	return a.TotalScore / float64(a.MessageCount)
}

// CandidateResult describes an author whose run-average score crossed the
// potential-customer threshold.
type CandidateResult struct {
	Username        string   `json:"username"`
	AuthorID        string   `json:"author_id,omitempty"`
	Score           float64  `json:"score"`
	PainPoints      []string `json:"pain_points"`
	Interests       []string `json:"interests"`
	MessageCount    int      `json:"message_count"`
	EngagementLevel string   `json:"engagement_level"`
}

// Run statuses reported by AnalyzeChannel.
const (
	StatusSuccess    = "success"
	StatusNoMessages = "no_messages"
)

// RunResult is the outcome of one channel analysis run.
type RunResult struct {
	Status                string
	TotalMessagesAnalyzed int
	Candidates            []CandidateResult
	Summary               string
	BatchesProcessed      int
	BatchesFailed         int
}

// PainPointCount is one entry of the report's pain-point histogram.
type PainPointCount struct {
	PainPoint string `json:"pain_point"`
	Count     int    `json:"count"`
}

// ReportCustomer is one profile line of the cross-customer report.
type ReportCustomer struct {
	Username        string   `json:"username"`
	Score           float64  `json:"score"`
	EngagementLevel string   `json:"engagement_level"`
	PainPoints      []string `json:"pain_points"`
	Interests       []string `json:"interests"`
}

// ReportResult aggregates statistics across all stored customer profiles.
type ReportResult struct {
	TotalCustomers    int
	HighPriorityCount int
	TotalMessages     int64
	TopPainPoints     []PainPointCount
	Customers         []ReportCustomer
}

// ChannelInsights is the structured portion of a channel analysis snapshot.
type ChannelInsights struct {
	PotentialCustomersCount int           `json:"potential_customers_count"`
	MessagesAnalyzed        int           `json:"messages_analyzed"`
	TopCustomers            []TopCustomer `json:"top_customers"`
}

// TopCustomer is the username/score pair recorded in a snapshot.
type TopCustomer struct {
	Username string  `json:"username"`
	Score    float64 `json:"score"`
}
