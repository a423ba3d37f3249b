package regsync

import (
	"sync"
	"time"

	"github.com/agentstation/regsync/pkg/metrics"
	"github.com/agentstation/regsync/pkg/reconciler"
	"github.com/agentstation/regsync/pkg/records"
	pkgsync "github.com/agentstation/regsync/pkg/sync"
)

// collector is the single aggregation point for a run. Workers hand it
// outcomes by input position; it keeps input order regardless of the
// order in which records finish.
type collector struct {
	mu       sync.Mutex
	outcomes []reconciler.Outcome
	done     []bool
	hooks    *hooks
	metrics  *metrics.Metrics
}

func newCollector(n int, h *hooks, m *metrics.Metrics) *collector {
	return &collector{
		outcomes: make([]reconciler.Outcome, n),
		done:     make([]bool, n),
		hooks:    h,
		metrics:  m,
	}
}

// add records the outcome of the record at position i.
func (c *collector) add(i int, o reconciler.Outcome, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.outcomes[i] = o
	c.done[i] = true
	c.metrics.ObserveRecord(string(o.Action), elapsed)
	c.metrics.ObserveFailure(o.Err)
	c.hooks.triggerOutcome(o)
}

// finish gives every record that never started a skipped outcome, so each
// input record ends with exactly one outcome, and returns the outcomes
// with their statistics.
func (c *collector) finish(locals []records.Local, reason string, dryRun bool) ([]reconciler.Outcome, pkgsync.Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stats pkgsync.Stats
	for i := range c.outcomes {
		if !c.done[i] {
			o := reconciler.Outcome{
				Identifier: locals[i].Key(),
				Name:       locals[i].Name,
				Action:     reconciler.ActionSkipped,
				Message:    reason,
				DryRun:     dryRun,
			}
			if o.Identifier == "" {
				o.Identifier = locals[i].Identifier
			}
			c.outcomes[i] = o
			c.done[i] = true
			c.metrics.ObserveRecord(string(o.Action), 0)
			c.hooks.triggerOutcome(o)
		}
		stats.Record(c.outcomes[i])
	}
	return c.outcomes, stats
}
