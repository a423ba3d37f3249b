package regsync

import (
	"sync"

	"github.com/agentstation/regsync/pkg/reconciler"
)

// Hook function types for run events
type (
	// OutcomeHook is called once per record, after its outcome is final
	OutcomeHook func(outcome reconciler.Outcome)

	// ModuleHook is called once per matched client in the module phase
	ModuleHook func(outcome reconciler.ModuleOutcome)
)

// hooks manages event callbacks. Callbacks run serially, in completion
// order, from the goroutine that recorded the event.
type hooks struct {
	mu        sync.RWMutex
	onOutcome []OutcomeHook
	onModules []ModuleHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnOutcome registers a callback for record outcomes.
func (c *Client) OnOutcome(fn OutcomeHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onOutcome = append(c.hooks.onOutcome, fn)
}

// OnModules registers a callback for module outcomes.
func (c *Client) OnModules(fn ModuleHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onModules = append(c.hooks.onModules, fn)
}

func (h *hooks) triggerOutcome(o reconciler.Outcome) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onOutcome {
		hook(o)
	}
}

func (h *hooks) triggerModules(o reconciler.ModuleOutcome) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onModules {
		hook(o)
	}
}
