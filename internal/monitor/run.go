package monitor

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Phase is the lifecycle state of one compiler pass.
type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseRunning      Phase = "running"
	PhaseCompleted    Phase = "completed"
	PhaseFailed       Phase = "failed"
)

// EventKind classifies what a log line told us.
type EventKind string

const (
	EventProgress  EventKind = "progress"
	EventCompleted EventKind = "completed"
	EventCuriosity EventKind = "curiosity"
	EventError     EventKind = "error"
)

// Event is one observation derived from a log line.
type Event struct {
	Kind EventKind
	Line string

	// Progress
	Chapter     int
	ChapterName string
	Progress    Progress

	// Completion
	Pages int
	Bytes int64
}

// Run is the state of one compiler pass. All fields are guarded by mu; read
// them through Snapshot.
type Run struct {
	mu sync.Mutex

	ID            string
	Source        string
	Pass          int
	Phase         Phase
	Chapter       int // highest chapter number seen; never decreases
	TotalChapters int
	PDFObserved   bool
	Pages         int
	Bytes         int64
	StartedAt     time.Time
	UpdatedAt     time.Time

	lines       []string
	errors      []string
	curiosities []string
}

// NewRun creates a run in the Initializing phase.
func NewRun(source string, pass, totalChapters int) *Run {
	now := time.Now()
	return &Run{
		ID:            uuid.NewString(),
		Source:        source,
		Pass:          pass,
		Phase:         PhaseInitializing,
		TotalChapters: totalChapters,
		StartedAt:     now,
		UpdatedAt:     now,
	}
}

// Start moves the run to Running and resets its clock.
func (r *Run) Start(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Phase = PhaseRunning
	r.StartedAt = now
	r.UpdatedAt = now
}

// Feed records one log line and returns what it revealed, in the order
// curiosity, progress, completion, error. Blank lines are ignored.
func (r *Run) Feed(line string, now time.Time) []Event {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines = append(r.lines, line)
	r.UpdatedAt = now

	var events []Event

	if IsCuriosity(line) {
		r.curiosities = append(r.curiosities, line)
		events = append(events, Event{Kind: EventCuriosity, Line: line})
	}

	if n, name, ok := ParseChapterLine(line); ok && n > 0 {
		r.Chapter = max(r.Chapter, n)
		events = append(events, Event{
			Kind:        EventProgress,
			Line:        line,
			Chapter:     n,
			ChapterName: name,
			Progress:    r.progressLocked(now),
		})
	}

	if pages, size, ok := ParseCompletion(line); ok {
		r.Phase = PhaseCompleted
		r.PDFObserved = true
		if pages > 0 {
			r.Pages = pages
			r.Bytes = size
		}
		events = append(events, Event{Kind: EventCompleted, Line: line, Pages: pages, Bytes: size})
	}

	if IsErrorLine(line) {
		r.errors = append(r.errors, line)
		events = append(events, Event{Kind: EventError, Line: line})
	}

	return events
}

// Finish settles the phase once the subprocess has exited. A run that saw the
// completion marker stays Completed.
func (r *Run) Finish(success bool, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UpdatedAt = now
	switch {
	case success:
		r.Phase = PhaseCompleted
	case r.Phase != PhaseCompleted:
		r.Phase = PhaseFailed
	}
}

// Completed reports whether the completion marker has been seen.
func (r *Run) Completed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.PDFObserved
}

// Lines returns a copy of the accumulated log lines.
func (r *Run) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

func (r *Run) progressLocked(now time.Time) Progress {
	return NewProgress(r.Chapter, r.TotalChapters, now.Sub(r.StartedAt))
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID            string    `json:"run_id"`
	Source        string    `json:"source"`
	Pass          int       `json:"pass"`
	Phase         Phase     `json:"phase"`
	Chapter       int       `json:"chapter"`
	TotalChapters int       `json:"total_chapters"`
	Percent       float64   `json:"percent"`
	PDFObserved   bool      `json:"pdf_observed"`
	Pages         int       `json:"pages"`
	Bytes         int64     `json:"bytes"`
	LineCount     int       `json:"line_count"`
	Errors        []string  `json:"errors"`
	Curiosities   []string  `json:"curiosities"`
	StartedAt     time.Time `json:"started_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs := append([]string{}, r.errors...)
	curios := append([]string{}, r.curiosities...)
	return RunSnapshot{
		ID:            r.ID,
		Source:        r.Source,
		Pass:          r.Pass,
		Phase:         r.Phase,
		Chapter:       r.Chapter,
		TotalChapters: r.TotalChapters,
		Percent:       NewProgress(r.Chapter, r.TotalChapters, 0).Fraction * 100,
		PDFObserved:   r.PDFObserved,
		Pages:         r.Pages,
		Bytes:         r.Bytes,
		LineCount:     len(r.lines),
		Errors:        errs,
		Curiosities:   curios,
		StartedAt:     r.StartedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
