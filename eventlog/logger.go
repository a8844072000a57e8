package eventlog

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"
)

// Logger accumulates Events for one phlow run and, if given a path, flushes
// them to a YAML file on Finish. A nil *Logger is valid and a no-op, so
// callers (runtime.Dispatcher) can carry it unconditionally without a
// "logging enabled" branch at every call site.
type Logger struct {
	mu      sync.Mutex
	path    string
	started time.Time
	events  []*Event
	meta    RunMetadata
}

// NewLogger starts a logger for script, optionally writing its Log to path
// on Finish (an empty path disables the flush; RecordEvent still
// accumulates events so Summary() keeps working in that case).
func NewLogger(path, script string) *Logger {
	return &Logger{
		path:    path,
		started: time.Now(),
		meta: RunMetadata{
			RunID:      ulid.Make().String(),
			CreatedAt:  time.Now(),
			Script:     script,
			ModulePath: CaptureModulePath(),
			Git:        CaptureGitInfo(),
		},
	}
}

// RecordEvent appends ev, stamping Start relative to the logger's creation
// time if the caller left it zero.
func (l *Logger) RecordEvent(ev Event) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if ev.Start == 0 {
		ev.Start = time.Since(l.started).Seconds()
	}
	l.events = append(l.events, &ev)
}

// Summary aggregates the events recorded so far.
func (l *Logger) Summary() RunSummary {
	if l == nil {
		return RunSummary{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	s := RunSummary{Duration: time.Since(l.started).Seconds()}
	for _, ev := range l.events {
		switch ev.Type {
		case EventTypePipeline:
			s.PipelinesRun++
			if ev.Result == ResultFail {
				s.FailedPipelines++
			}
		case EventTypeModuleCall:
			s.ModuleCalls++
		}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	s.MemoryAlloc = mem.Alloc
	s.Goroutines = runtime.NumGoroutine()
	return s
}

// Finish writes the accumulated Log to the logger's path, if one was given.
func (l *Logger) Finish() error {
	if l == nil || l.path == "" {
		return nil
	}
	l.mu.Lock()
	doc := Log{Metadata: l.meta, Events: l.events}
	l.mu.Unlock()

	summary := l.Summary()
	doc.Summary = &summary

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("eventlog: marshal log: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("eventlog: write %q: %w", l.path, err)
	}
	return nil
}
