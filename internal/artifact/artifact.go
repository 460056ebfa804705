package artifact

import "time"

// Kind classifies a file written by a run.
type Kind string

const (
	KindReport  Kind = "report"
	KindChart   Kind = "chart"
	KindMetrics Kind = "metrics"
	KindDataset Kind = "dataset"
)

// Artifact holds metadata for one file written by a run.
type Artifact struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"` // relative to the run directory when inside it
	Kind        Kind      `json:"kind"`
	Description string    `json:"description"`
	Bytes       int64     `json:"bytes"`
	WrittenAt   time.Time `json:"written_at"`
}
