// Package dispatch runs repository operations in the background.
//
// Submitting work never blocks the caller. Tasks that share a key (the
// resolved repository path) run one at a time in submission order; tasks
// with different keys run in parallel, bounded by the worker count.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/input-output-hk/catalyst-forge-libs/gitsync/logging"
)

// DefaultWorkers bounds how many keys make progress at once.
const DefaultWorkers = 4

// ErrClosed is returned by Submit after Shutdown has been called.
var ErrClosed = errors.New("dispatcher is shut down")

// Func is the body of a task. ctx is canceled when shutdown gives up
// waiting; log carries the task id and operation name.
type Func func(ctx context.Context, log logging.Logger)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithWorkers sets the worker bound. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithLogger sets the logger tasks inherit.
func WithLogger(l logging.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

type taskIDKey struct{}

// TaskID returns the id of the task ctx was handed to, or "".
func TaskID(ctx context.Context) string {
	id, _ := ctx.Value(taskIDKey{}).(string)
	return id
}

type task struct {
	id   string
	name string
	fn   Func
}

type lane struct {
	pending []task
}

// Dispatcher schedules detached tasks.
type Dispatcher struct {
	workers int
	log     logging.Logger
	sem     *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	lanes  map[string]*lane
	wg     sync.WaitGroup
}

// New creates a running dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		workers: DefaultWorkers,
		log:     logging.Nop(),
		lanes:   make(map[string]*lane),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.sem = semaphore.NewWeighted(int64(d.workers))
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d
}

// Submit queues fn under key and returns the task id immediately.
func (d *Dispatcher) Submit(key, name string, fn Func) (string, error) {
	if fn == nil {
		return "", fmt.Errorf("task %q: nil func", name)
	}

	t := task{id: uuid.NewString(), name: name, fn: fn}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return "", ErrClosed
	}
	d.wg.Add(1)
	l, running := d.lanes[key]
	if !running {
		l = &lane{}
		d.lanes[key] = l
	}
	l.pending = append(l.pending, t)
	d.mu.Unlock()

	if !running {
		go d.drain(key, l)
	}
	return t.id, nil
}

// Pending returns the number of queued tasks that have not started yet.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, l := range d.lanes {
		n += len(l.pending)
	}
	return n
}

func (d *Dispatcher) drain(key string, l *lane) {
	for {
		d.mu.Lock()
		if len(l.pending) == 0 {
			delete(d.lanes, key)
			d.mu.Unlock()
			return
		}
		t := l.pending[0]
		l.pending = l.pending[1:]
		d.mu.Unlock()

		d.run(t)
	}
}

func (d *Dispatcher) run(t task) {
	defer d.wg.Done()

	log := d.log.With("task", t.id, "op", t.name)

	if err := d.sem.Acquire(d.ctx, 1); err != nil {
		log.Error("Task {cyan}%s{white} dropped: {red}%s", t.name, err.Error())
		return
	}
	defer d.sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Task {cyan}%s{white} panicked: {red}%v", t.name, r)
			log.Error("%s", debug.Stack())
		}
	}()

	t.fn(context.WithValue(d.ctx, taskIDKey{}, t.id), log)
}

// Shutdown stops accepting work and waits for submitted tasks. If ctx ends
// first, running tasks are canceled and ctx's error is returned. It is safe
// to call more than once.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}
}
