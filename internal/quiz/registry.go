package quiz

import (
	"sync"
)

// Registry keeps one Runner per player.
type Registry struct {
	mu      sync.RWMutex
	runners map[int64]*Runner
	factory func(playerID int64) *Runner
}

// NewRegistry creates a registry that builds missing runners with factory.
func NewRegistry(factory func(playerID int64) *Runner) *Registry {
	return &Registry{
		runners: make(map[int64]*Runner),
		factory: factory,
	}
}

// GetOrCreate returns the player's runner, creating it on first use.
func (r *Registry) GetOrCreate(playerID int64) *Runner {
	r.mu.RLock()
	runner, ok := r.runners[playerID]
	r.mu.RUnlock()
	if ok {
		return runner
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if runner, ok = r.runners[playerID]; ok {
		return runner
	}
	runner = r.factory(playerID)
	r.runners[playerID] = runner
	return runner
}

// Get returns the player's runner if one exists.
func (r *Registry) Get(playerID int64) (*Runner, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	runner, ok := r.runners[playerID]
	return runner, ok
}

// Delete stops and forgets the player's runner.
func (r *Registry) Delete(playerID int64) {
	r.mu.Lock()
	runner, ok := r.runners[playerID]
	delete(r.runners, playerID)
	r.mu.Unlock()

	if ok {
		runner.Stop()
	}
}

// StopAll halts every tick loop, used on shutdown.
func (r *Registry) StopAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, runner := range r.runners {
		runner.Stop()
	}
}
