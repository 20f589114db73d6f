package model

import "time"

// ReportVersion identifies the output schema the final document is written in.
const ReportVersion = "v0.2"

// Usage is the token accounting attached to every LLM stage reply.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add returns the element-wise sum of two usages.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// Tracker accumulates usage and cost across pipeline stages. Values are
// folded immutably: every mutation produces a new Tracker.
type Tracker struct {
	Costs            float64    `json:"costs"`
	Start            time.Time  `json:"start"`
	PromptTokens     int        `json:"prompt_tokens"`
	CompletionTokens int        `json:"completion_tokens"`
	TotalTokens      int        `json:"total_tokens"`
	UnmatchedClaims  []Claim    `json:"unmatchedClaims"`
	End              *time.Time `json:"end,omitempty"`
	Duration         string     `json:"duration,omitempty"`
}

// NewTracker returns a zeroed tracker started at the given time.
func NewTracker(start time.Time) Tracker {
	return Tracker{Start: start, UnmatchedClaims: []Claim{}}
}

// Fold returns a new tracker with one successful stage's usage and cost
// added to the running totals.
func (t Tracker) Fold(usage Usage, cost float64) Tracker {
	t.Costs += cost
	t.PromptTokens += usage.PromptTokens
	t.CompletionTokens += usage.CompletionTokens
	t.TotalTokens += usage.TotalTokens
	return t
}

// Finalize stamps the end time and a human-readable duration.
func (t Tracker) Finalize(end time.Time) Tracker {
	t.End = &end
	t.Duration = end.Sub(t.Start).Round(time.Second).String()
	return t
}

// ReportTopic is an assembled topic with minted identifiers and the sorted
// claims attached under each subtopic.
type ReportTopic struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	NumClaims   int              `json:"numClaims"`
	NumPeople   int              `json:"numPeople"`
	Subtopics   []ReportSubtopic `json:"subtopics"`
}

// ReportSubtopic is an assembled subtopic branch.
type ReportSubtopic struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	NumClaims   int           `json:"numClaims"`
	NumPeople   int           `json:"numPeople"`
	Claims      []ReportClaim `json:"claims"`
}

// ReportClaim is an assembled claim; duplicates carry their own minted ids.
type ReportClaim struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Quote      string        `json:"quote"`
	Speaker    string        `json:"speaker,omitempty"`
	CommentID  string        `json:"commentId"`
	Duplicates []ReportClaim `json:"duplicates,omitempty"`
}

// Report is the final assembled document.
type Report struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Question     string        `json:"question"`
	Instructions Instructions  `json:"instructions"`
	Tree         []ReportTopic `json:"tree"`
	Sources      []SourceRow   `json:"sources"`
	Tracker      Tracker       `json:"tracker"`
	Addons       *CruxResult   `json:"addons,omitempty"`
}

// ReportEnvelope wraps the report in the versioned output schema that is
// persisted to storage.
type ReportEnvelope struct {
	Version string `json:"version"`
	Data    Report `json:"data"`
}
