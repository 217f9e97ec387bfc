package quiz

import (
	"context"
	"sync"
	"time"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
)

// DefaultTickInterval is how often a Runner advances its engine.
const DefaultTickInterval = 100 * time.Millisecond

// Listener receives engine events in transition order. It must not call
// back into the Runner that emitted them.
type Listener func(Event)

// Runner drives an Engine from a ticker goroutine and serializes player
// commands with ticks. Each Start gets its own tick loop tagged with the
// engine generation, so a loop left over from a previous session can
// never advance the new one.
type Runner struct {
	mu       sync.Mutex
	emitMu   sync.Mutex
	engine   *Engine
	ctx      context.Context
	clock    func() time.Time
	interval time.Duration
	listener Listener
	loop     *tickLoop
}

// NewRunner wraps engine. ctx bounds the lifetime of every tick loop the
// runner starts; a nil clock uses time.Now.
func NewRunner(ctx context.Context, engine *Engine, clock func() time.Time, interval time.Duration, listener Listener) *Runner {
	if clock == nil {
		clock = time.Now
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if listener == nil {
		listener = func(Event) {}
	}
	return &Runner{
		engine:   engine,
		ctx:      ctx,
		clock:    clock,
		interval: interval,
		listener: listener,
	}
}

// Start begins a new session, cancelling the tick loop of any previous one.
func (r *Runner) Start(ctx context.Context, category entities.Category) (Snapshot, error) {
	r.mu.Lock()
	now := r.clock()
	events, err := r.engine.Start(ctx, category, now)
	if err != nil {
		r.mu.Unlock()
		return Snapshot{}, err
	}

	if r.loop != nil {
		r.loop.stop()
	}
	r.loop = newTickLoop()
	go r.run(r.loop, r.engine.Generation())

	snap := r.engine.Snapshot(now)
	r.emitLocked(events)
	return snap, nil
}

// Submit answers the current question. generation and index identify the
// question the answer was given for; answers to anything else are dropped.
func (r *Runner) Submit(generation uint64, index, answer int) bool {
	r.mu.Lock()
	if r.engine.Generation() != generation || r.engine.current != index {
		r.mu.Unlock()
		return false
	}
	events := r.engine.Submit(answer, r.clock())
	r.emitLocked(events)
	return len(events) > 0
}

func (r *Runner) Pause() bool {
	r.mu.Lock()
	events := r.engine.Pause(r.clock())
	r.emitLocked(events)
	return len(events) > 0
}

func (r *Runner) Resume() bool {
	r.mu.Lock()
	events := r.engine.Resume(r.clock())
	r.emitLocked(events)
	return len(events) > 0
}

// End aborts the running session, completing it with the answers so far.
func (r *Runner) End() bool {
	r.mu.Lock()
	events := r.engine.End(r.clock())
	r.emitLocked(events)
	return len(events) > 0
}

// Snapshot returns the current engine view.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Snapshot(r.clock())
}

// Stop halts the tick loop. Calling it more than once is safe.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loop != nil {
		r.loop.stop()
	}
}

func (r *Runner) run(loop *tickLoop, generation uint64) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-loop.done:
			return
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			if !r.tick(loop, generation) {
				return
			}
		}
	}
}

// tick reports whether the loop should keep running.
func (r *Runner) tick(loop *tickLoop, generation uint64) bool {
	r.mu.Lock()
	if r.engine.Generation() != generation {
		r.mu.Unlock()
		return false
	}

	events := r.engine.Tick(r.clock())
	finished := r.engine.State() == StateCompleted
	if finished {
		loop.stop()
	}
	r.emitLocked(events)
	return !finished
}

// emitLocked hands events to the listener after releasing r.mu. emitMu is
// taken before r.mu is released so listeners see events in the order the
// engine produced them.
func (r *Runner) emitLocked(events []Event) {
	if len(events) == 0 {
		r.mu.Unlock()
		return
	}
	r.emitMu.Lock()
	r.mu.Unlock()
	defer r.emitMu.Unlock()

	for _, ev := range events {
		r.listener(ev)
	}
}

type tickLoop struct {
	once sync.Once
	done chan struct{}
}

func newTickLoop() *tickLoop {
	return &tickLoop{done: make(chan struct{})}
}

func (l *tickLoop) stop() {
	l.once.Do(func() { close(l.done) })
}
