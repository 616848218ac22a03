package models

// RiskAssessment is the classifier verdict attached to every stored message.
// A zero value is the neutral result used when classification is unavailable.
type RiskAssessment struct {
	Score           float64  `json:"spam_score"`
	Confidence      *float64 `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
	HighlightedText string   `json:"highlighted_text"`
	FinalDecision   string   `json:"final_decision"`
	Suggestion      string   `json:"suggestion"`
}

// NeutralAssessment returns the safe default: score 0, no confidence, empty text fields
func NeutralAssessment() RiskAssessment {
	return RiskAssessment{}
}

// Channel identifies the ingestion channel of a message
type Channel string

const (
	ChannelEmail Channel = "mail"
	ChannelSMS   Channel = "sms"
)

// IngestOutcome is the terminal state of one message in the ingestion pipeline
type IngestOutcome string

const (
	OutcomeStored    IngestOutcome = "stored"
	OutcomeDuplicate IngestOutcome = "duplicate"
	OutcomeFailed    IngestOutcome = "failed"
)

// IngestResult reports the outcome for one message
type IngestResult struct {
	Key      string         `json:"key"`
	Outcome  IngestOutcome  `json:"outcome"`
	Risk     RiskAssessment `json:"risk"`
	Notified bool           `json:"notified"`
	Error    string         `json:"error,omitempty"`
}

// IngestSummary aggregates the per-message outcomes of one batch
type IngestSummary struct {
	Stored     int             `json:"new_inserted"`
	Duplicates int             `json:"duplicates"`
	Failed     int             `json:"failed"`
	Results    []*IngestResult `json:"-"`
}

// Add records a per-message result in the summary
func (s *IngestSummary) Add(r *IngestResult) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case OutcomeStored:
		s.Stored++
	case OutcomeDuplicate:
		s.Duplicates++
	case OutcomeFailed:
		s.Failed++
	}
}
