// Package progress turns transfer and checkout counters into throttled,
// human readable progress lines.
//
// A Reporter owns its own Throttle so concurrent operations never share
// "last emitted" state. Percentages are always floored.
package progress

import (
	"strconv"
	"strings"
	"sync"
)

// DefaultBarWidth is the number of cells rendered between the brackets.
const DefaultBarWidth = 40

// Throttle decides whether a percentage is worth emitting.
//
// The first sample is always emitted. Repeats are suppressed, 100 is always
// emitted once, and otherwise a sample is emitted only when it crosses into a
// new 5% bucket. A zero sample resets the bucket without being emitted.
type Throttle struct {
	mu   sync.Mutex
	last int
}

// NewThrottle returns a throttle that has not emitted anything yet.
func NewThrottle() *Throttle {
	return &Throttle{last: -1}
}

// Allow reports whether percent should be emitted and records it if so.
func (t *Throttle) Allow(percent int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.last == -1:
		t.last = percent
		return true
	case percent == t.last:
		return false
	case percent >= 100:
		t.last = 100
		return true
	case percent == 0:
		t.last = 0
		return false
	case percent/5 > t.last/5:
		t.last = percent
		return true
	default:
		return false
	}
}

// Reset forgets the last emitted value.
func (t *Throttle) Reset() {
	t.mu.Lock()
	t.last = -1
	t.mu.Unlock()
}

// Percent returns floor(completed*100/total). A zero total yields 0.
func Percent(completed, total uint64) int {
	if total == 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return int(completed * 100 / total)
}

// Bar renders a fixed-width bar such as "[=====     ] 50%".
func Bar(percent, width int) string {
	if width <= 0 {
		width = DefaultBarWidth
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := percent * width / 100

	var b strings.Builder
	b.Grow(width + 8)
	b.WriteByte('[')
	b.WriteString(strings.Repeat("=", filled))
	b.WriteString(strings.Repeat(" ", width-filled))
	b.WriteString("] ")
	b.WriteString(strconv.Itoa(percent))
	b.WriteByte('%')
	return b.String()
}

// Sample is one observation of a counter pair.
type Sample struct {
	Completed uint64
	Total     uint64
	Percent   int
}

// Bar renders the sample with DefaultBarWidth.
func (s Sample) Bar() string {
	return Bar(s.Percent, DefaultBarWidth)
}

// Reporter feeds counter observations through a Throttle and hands the
// survivors to an emit function.
type Reporter struct {
	throttle *Throttle
	emit     func(Sample)
}

// NewReporter creates a reporter with a fresh throttle. A nil emit discards
// every sample.
func NewReporter(emit func(Sample)) *Reporter {
	if emit == nil {
		emit = func(Sample) {}
	}
	return &Reporter{throttle: NewThrottle(), emit: emit}
}

// Observe records completed/total and emits when the throttle allows it.
// Observations with a zero total are ignored. It reports whether a line was
// emitted.
func (r *Reporter) Observe(completed, total uint64) bool {
	if total == 0 {
		return false
	}

	p := Percent(completed, total)
	if !r.throttle.Allow(p) {
		return false
	}

	r.emit(Sample{Completed: completed, Total: total, Percent: p})
	return true
}
