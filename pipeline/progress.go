package pipeline

import (
	"fmt"
	"io"
	"sort"
	"time"

	"imageprep/logging"
	"imageprep/types"
)

// Recorder receives every stage outcome, e.g. the run journal
type Recorder interface {
	Record(event types.Event) error
}

// Summary holds per-stage action counts for a run
type Summary struct {
	Counts    map[types.Stage]map[types.Action]int
	StartedAt time.Time
	Elapsed   time.Duration
}

// Count returns how many files ended a stage with the given action
func (s *Summary) Count(stage types.Stage, action types.Action) int {
	if s == nil || s.Counts[stage] == nil {
		return 0
	}
	return s.Counts[stage][action]
}

// Total returns how many files ended with the given action across all stages
func (s *Summary) Total(action types.Action) int {
	total := 0
	for _, actions := range s.Counts {
		total += actions[action]
	}
	return total
}

// ProgressTracker prints progress lines and keeps the run summary
type ProgressTracker struct {
	out      io.Writer
	recorder Recorder
	runID    int64
	summary  *Summary
}

// NewProgressTracker creates a tracker writing console lines to out.
// recorder may be nil.
func NewProgressTracker(out io.Writer, recorder Recorder, runID int64) *ProgressTracker {
	if out == nil {
		out = io.Discard
	}
	return &ProgressTracker{
		out:      out,
		recorder: recorder,
		runID:    runID,
		summary: &Summary{
			Counts:    make(map[types.Stage]map[types.Action]int),
			StartedAt: time.Now(),
		},
	}
}

// Printf writes a console line and mirrors it to the debug log when one is open
func (p *ProgressTracker) Printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format+"\n", args...)
	if logging.IsEnabled() {
		logging.LogDebug(format, args...)
	}
}

// Track counts the event and forwards it to the recorder
func (p *ProgressTracker) Track(event types.Event) {
	if p.summary.Counts[event.Stage] == nil {
		p.summary.Counts[event.Stage] = make(map[types.Action]int)
	}
	p.summary.Counts[event.Stage][event.Action]++

	logging.LogEvent(event)

	if p.recorder == nil {
		return
	}
	event.RunID = p.runID
	if event.At.IsZero() {
		event.At = time.Now()
	}
	if err := p.recorder.Record(event); err != nil {
		logging.LogError("Failed to journal event for %s: %v", event.Path, err)
	}
}

// Summary returns the counts gathered so far
func (p *ProgressTracker) Summary() *Summary {
	p.summary.Elapsed = time.Since(p.summary.StartedAt)
	return p.summary
}

// PrintSummary displays statistics after a run
func PrintSummary(w io.Writer, s *Summary) {
	stages := []types.Stage{types.StageNormalize, types.StageCap, types.StageReconcile}

	fmt.Fprintf(w, "\nSummary (%v):\n", s.Elapsed.Round(time.Millisecond))
	for _, stage := range stages {
		actions := s.Counts[stage]
		if len(actions) == 0 {
			continue
		}

		names := make([]string, 0, len(actions))
		for action := range actions {
			names = append(names, string(action))
		}
		sort.Strings(names)

		fmt.Fprintf(w, "- %s:", stage)
		for _, name := range names {
			fmt.Fprintf(w, " %s=%d", name, actions[types.Action(name)])
		}
		fmt.Fprintln(w)
	}

	if failed := s.Total(types.ActionFailed); failed > 0 {
		fmt.Fprintf(w, "Encountered %d errors during processing.\n", failed)
	}
	if missing := s.Total(types.ActionMissingCounterpart); missing > 0 {
		fmt.Fprintf(w, "%d base images had no reference counterpart.\n", missing)
	}
}
