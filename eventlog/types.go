// Package eventlog records a YAML trace of a phlow run: Events (the
// dispatcher records one per pipeline execution it handles; the module_call
// event type exists, but no caller in this module records one), plus
// run-level metadata and a summary. Reworked from the teacher's CI-run event log
// (eventlog/types.go) for phlow's domain: a "step" event there becomes a
// "pipeline" event here, a shelled-out "command" event becomes a
// "module_call" event, and the CI-specific fields (working directory,
// captured stdout, exit code) are replaced by the module name and
// pipeline/step ids the engine package already tracks.
package eventlog

import "time"

// Result is the final outcome of a pipeline run or module call.
type Result string

const (
	ResultPass    Result = "pass"
	ResultFail    Result = "fail"
	ResultSkipped Result = "skipped"
)

// EventType indicates what a logged Event describes.
type EventType string

const (
	// EventTypePipeline logs one full pipeline execution handled by the
	// dispatcher's worker pool (RunOnce records no event).
	EventTypePipeline EventType = "pipeline"
	// EventTypeModuleCall logs one module bus request/reply.
	EventTypeModuleCall EventType = "module_call"
)

// Event is a single recorded occurrence in the log.
type Event struct {
	ID       string    `yaml:"id"`
	Type     EventType `yaml:"type,omitempty"`
	Start    float64   `yaml:"start"`           // seconds since the logger was created
	Duration float64   `yaml:"duration"`        // seconds
	Error    string    `yaml:"error,omitempty"` // error message if failed
	Result   Result    `yaml:"result,omitempty"`

	// Module-call fields.
	Module   string `yaml:"module,omitempty"`
	Pipeline int    `yaml:"pipeline,omitempty"`
}

// GitInfo is the repository state the run was invoked from.
type GitInfo struct {
	Commit     string `yaml:"commit,omitempty"`
	Branch     string `yaml:"branch,omitempty"`
	RemoteURL  string `yaml:"remote_url,omitempty"`
	Repository string `yaml:"repository,omitempty"`
}

// RunMetadata describes the environment a run executed in.
type RunMetadata struct {
	RunID      string    `yaml:"run_id"`
	CreatedAt  time.Time `yaml:"created_at"`
	Script     string    `yaml:"script,omitempty"`
	ModulePath string    `yaml:"module_path,omitempty"`
	Git        *GitInfo  `yaml:"git,omitempty"`
}

// RunSummary aggregates a run's events.
type RunSummary struct {
	Duration        float64 `yaml:"duration"`
	PipelinesRun    int     `yaml:"pipelines_run"`
	ModuleCalls     int     `yaml:"module_calls"`
	FailedPipelines int     `yaml:"failed_pipelines"`
	MemoryAlloc     uint64  `yaml:"memory_alloc,omitempty"`
	Goroutines      int     `yaml:"goroutines,omitempty"`
}

// Log is the complete document a Logger flushes to YAML.
type Log struct {
	Metadata RunMetadata `yaml:"metadata"`
	Events   []*Event    `yaml:"events"`
	Summary  *RunSummary `yaml:"summary,omitempty"`
}
