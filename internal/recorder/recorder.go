package recorder

import (
	"time"

	"BistRadar/internal/model"
)

// ScanRun holds the metadata of one analysis request. Computed signals are not part of it.
type ScanRun struct {
	ID        string        `json:"id"`
	Source    model.Source  `json:"source"`
	Mode      model.Mode    `json:"mode"`
	Target    string        `json:"target"` // symbol, or UNIVERSE for a full scan
	Requested int           `json:"requested"`
	Analyzed  int           `json:"analyzed"`
	Skipped   int           `json:"skipped"`
	Results   int           `json:"results"`
	Partial   bool          `json:"partial"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Recorder persists the scan log.
type Recorder interface {
	RecordScan(run *ScanRun) error
	RecentScans(limit int) ([]ScanRun, error)
	Close() error
}
