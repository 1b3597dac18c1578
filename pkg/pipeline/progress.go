package pipeline

import (
	"log"
	"sync"
)

// Progress receives (phase, fraction) updates while a conversion runs.
// Implementations must not block.
type Progress interface {
	Report(phase string, fraction float64)
}

// ProgressFunc adapts a function to Progress.
type ProgressFunc func(phase string, fraction float64)

// Report calls f.
func (f ProgressFunc) Report(phase string, fraction float64) {
	f(phase, fraction)
}

// LogProgress logs each phase at 10% steps, one "progress <phase> <n>%"
// line per step.
type LogProgress struct {
	logger *log.Logger

	mu   sync.Mutex
	last map[string]int
}

// NewLogProgress returns a LogProgress writing to l, or to the standard
// logger when l is nil.
func NewLogProgress(l *log.Logger) *LogProgress {
	if l == nil {
		l = log.Default()
	}
	return &LogProgress{logger: l, last: make(map[string]int)}
}

// Report logs the fraction when it crosses a new 10% step.
func (p *LogProgress) Report(phase string, fraction float64) {
	step := int(fraction * 10)
	if step < 0 {
		step = 0
	}
	if step > 10 {
		step = 10
	}

	p.mu.Lock()
	last, seen := p.last[phase]
	if seen && step <= last {
		p.mu.Unlock()
		return
	}
	p.last[phase] = step
	p.mu.Unlock()

	p.logger.Printf("progress %s %d%%", phase, step*10)
}

// reporter binds a phase name to an optional Progress.
func reporter(p Progress, phase string) func(float64) {
	if p == nil {
		return nil
	}
	return func(f float64) { p.Report(phase, f) }
}
