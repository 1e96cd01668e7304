package progress

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var sidebandLine = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z ]*?):\s+\d+% \((\d+)/(\d+)\)`)

// SidebandWriter parses the human readable progress a git server sends on
// the sideband channel ("Receiving objects:  45% (45/100)") and reports it
// per phase. Lines that carry no counters are ignored.
//
// It implements io.Writer so it can be handed to go-git as the Progress of
// a fetch, clone or push.
type SidebandWriter struct {
	mu        sync.Mutex
	buf       []byte
	phase     string
	reporter  *Reporter
	emitPhase func(phase string, s Sample)
}

// NewSidebandWriter creates a writer that calls emit for every throttled
// sample. The throttle restarts whenever the server moves to a new phase.
func NewSidebandWriter(emit func(phase string, s Sample)) *SidebandWriter {
	if emit == nil {
		emit = func(string, Sample) {}
	}
	return &SidebandWriter{emitPhase: emit}
}

// Write implements io.Writer.
func (w *SidebandWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexAny(w.buf, "\r\n")
		if i < 0 {
			break
		}
		line := string(w.buf[:i])
		w.buf = w.buf[i+1:]
		w.handle(line)
	}
	return len(p), nil
}

func (w *SidebandWriter) handle(line string) {
	m := sidebandLine.FindStringSubmatch(line)
	if m == nil {
		return
	}

	phase := strings.TrimSpace(m[1])
	completed, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return
	}
	total, err := strconv.ParseUint(m[3], 10, 64)
	if err != nil {
		return
	}

	if phase != w.phase || w.reporter == nil {
		w.phase = phase
		w.reporter = NewReporter(func(s Sample) { w.emitPhase(phase, s) })
	}
	w.reporter.Observe(completed, total)
}
