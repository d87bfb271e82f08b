package model

// OutcomeStatus is the result of applying an action to one instance.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeSkipped   OutcomeStatus = "skipped"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome reports what happened to a single instance of a batch.
type Outcome struct {
	InstanceID string        `json:"instance_id"`
	Label      string        `json:"label"`
	Status     OutcomeStatus `json:"status"`
	Reason     string        `json:"reason,omitempty"`
	Message    string        `json:"message"`
}

// ActionReport is the aggregated result of one batch.
type ActionReport struct {
	Action    ActionKind `json:"action"`
	Outcomes  []Outcome  `json:"outcomes"`
	Succeeded int        `json:"succeeded"`
	Skipped   int        `json:"skipped"`
	Failed    int        `json:"failed"`
}

// NewActionReport tallies outcomes into a report.
func NewActionReport(action ActionKind, outcomes []Outcome) ActionReport {
	r := ActionReport{Action: action, Outcomes: outcomes}
	if r.Outcomes == nil {
		r.Outcomes = []Outcome{}
	}
	for _, o := range outcomes {
		switch o.Status {
		case OutcomeSucceeded:
			r.Succeeded++
		case OutcomeSkipped:
			r.Skipped++
		case OutcomeFailed:
			r.Failed++
		}
	}
	return r
}

// Proposal is the first phase of a promote or demote: the instances that
// may proceed to confirmation and the warnings for those that were dropped.
type Proposal struct {
	Action     ActionKind `json:"action"`
	Candidates []Instance `json:"candidates"`
	Warnings   []string   `json:"warnings,omitempty"`
}

// CandidateIDs lists the identifiers a confirmation request must carry.
func (p *Proposal) CandidateIDs() []string {
	ids := make([]string, len(p.Candidates))
	for i, c := range p.Candidates {
		ids[i] = c.ID
	}
	return ids
}
