package model

// JobStatus is the coarse progress value surfaced to polling clients.
type JobStatus string

const (
	StatusNotFound    JobStatus = "notFound"
	StatusQueued      JobStatus = "queued"
	StatusClustering  JobStatus = "clustering"
	StatusExtraction  JobStatus = "extraction"
	StatusSorting     JobStatus = "sorting"
	StatusDedup       JobStatus = "dedup"
	StatusSummarizing JobStatus = "summarizing"
	StatusWrappingUp  JobStatus = "wrappingup"
	StatusFinished    JobStatus = "finished"
	StatusFailed      JobStatus = "failed"
)

// InFlight reports whether a worker currently owns the job. Queued is not
// in-flight: the queued record is written at enqueue time and the delivery
// itself is what starts processing.
func (s JobStatus) InFlight() bool {
	switch s {
	case StatusClustering, StatusExtraction, StatusSorting,
		StatusDedup, StatusSummarizing, StatusWrappingUp:
		return true
	}
	return false
}

// Terminal reports whether the job will make no further progress.
func (s JobStatus) Terminal() bool {
	return s == StatusFinished || s == StatusFailed
}
