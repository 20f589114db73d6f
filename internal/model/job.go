package model

import "time"

// PipelineJob is the unit of work delivered through the queue. It is created
// by the API layer, serialized to JSON for transport, and deserialized
// unchanged by the consumer.
type PipelineJob struct {
	Config        JobConfig     `json:"config"`
	Data          []SourceRow   `json:"data"`
	ReportDetails ReportDetails `json:"reportDetails"`
}

// Identity returns the id a job's status record is keyed by: the report id
// when present, otherwise the legacy firebase job id.
func (j *PipelineJob) Identity() string {
	if j.Config.ReportID != "" {
		return j.Config.ReportID
	}
	return j.Config.FirebaseJobID
}

// JobConfig carries everything the pipeline needs besides the source data.
type JobConfig struct {
	Env           string       `json:"env,omitempty"`
	Auth          string       `json:"auth,omitempty"` // "public" or "authenticated"
	FirebaseJobID string       `json:"firebaseJobId,omitempty"`
	ReportID      string       `json:"reportId,omitempty"`
	LLM           LLMConfig    `json:"llm"`
	Instructions  Instructions `json:"instructions"`
	APIKey        string       `json:"apiKey,omitempty"`
	Options       JobOptions   `json:"options"`
}

// LLMConfig selects the model used for every stage call.
type LLMConfig struct {
	ModelName string `json:"model_name"`
}

// Instructions are free-form prompt fragments, one per stage.
type Instructions struct {
	Clustering string `json:"clusteringInstructions,omitempty"`
	Extraction string `json:"extractionInstructions,omitempty"`
	Dedup      string `json:"dedupInstructions,omitempty"`
	Crux       string `json:"cruxInstructions,omitempty"`
}

// JobOptions are feature flags for optional pipeline branches.
type JobOptions struct {
	Cruxes bool `json:"cruxes,omitempty"`
}

// SourceRow is one input comment with its attribution.
type SourceRow struct {
	ID        string `json:"id" validate:"required"`
	Comment   string `json:"comment" validate:"required"`
	Interview string `json:"interview,omitempty"`
}

// ReportDetails describes the report being generated.
type ReportDetails struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Question    string `json:"question"`
	Filename    string `json:"filename"`
}

// Job is the external status record for a pipeline job, keyed by the job's
// identity. It is the single source of truth for idempotency decisions.
type Job struct {
	ID          string       `json:"id"`
	Status      JobStatus    `json:"status"`
	Error       *string      `json:"error,omitempty"`
	Filename    string       `json:"filename,omitempty"`
	ReportURL   string       `json:"reportUrl,omitempty"`
	Stats       *ReportStats `json:"stats,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	StartedAt   *time.Time   `json:"startedAt,omitempty"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	RetryCount  int          `json:"retryCount"`
}

// ReportStats are the summary counts attached to a finished job.
type ReportStats struct {
	NumTopics    int `json:"numTopics"`
	NumSubtopics int `json:"numSubtopics"`
	NumClaims    int `json:"numClaims"`
	NumPeople    int `json:"numPeople"`
}
