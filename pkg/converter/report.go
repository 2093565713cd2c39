package converter

import "time"

// Report summarizes the result of a single Run.
type Report struct {
	Summary RunSummary  `json:"summary"`
	Results []JobResult `json:"results"`
}

// RunSummary contains aggregated statistics for a Run.
type RunSummary struct {
	RunID           string      `json:"runId"`
	InputPath       string      `json:"inputPath"`
	OutputPath      string      `json:"outputPath"`
	ConverterPath   string      `json:"converterPath,omitempty"`
	ConfigFilePath  string      `json:"configFilePath,omitempty"`
	Mode            Mode        `json:"mode"`
	Format          string      `json:"format,omitempty"`
	Profile         string      `json:"profile,omitempty"`
	Flatten         bool        `json:"flatten"`
	Overwrite       bool        `json:"overwrite"`
	Concurrency     int         `json:"concurrency"`
	State           RunState    `json:"state"`
	Counters        RunCounters `json:"counters"`
	DurationSeconds float64     `json:"durationSeconds"`
	Timestamp       time.Time   `json:"timestamp"`
}
