package model

import "time"

// CreateReportRequest is the API submission that becomes a PipelineJob.
type CreateReportRequest struct {
	ReportDetails ReportDetails `json:"reportDetails" validate:"required"`
	Data          []SourceRow   `json:"data" validate:"required,min=1,dive"`
	Instructions  Instructions  `json:"instructions"`
	ModelName     string        `json:"modelName,omitempty"`
	APIKey        string        `json:"apiKey,omitempty"`
	Cruxes        bool          `json:"cruxes,omitempty"`
}

// CreateReportResponse acknowledges an enqueued report job.
type CreateReportResponse struct {
	ReportID  string    `json:"reportId"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// StatusResponse is what polling clients see. Internal stage errors are
// reduced to the coarse failed status plus a message.
type StatusResponse struct {
	ReportID  string       `json:"reportId"`
	Status    JobStatus    `json:"status"`
	Error     *string      `json:"error,omitempty"`
	ReportURL string       `json:"reportUrl,omitempty"`
	Stats     *ReportStats `json:"stats,omitempty"`
}
