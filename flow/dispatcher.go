package flow

import (
	"sync"
)

// A dispatcher collects actions into per-tick batches. Dispatch appends to
// the open batch; freeze swaps the open batch for a fresh one. Actions that
// arrive after a freeze land in the next batch, never in the frozen one.
type dispatcher struct {
	mu   sync.Mutex
	open []DispatchedAction
}

func newDispatcher() *dispatcher {
	return &dispatcher{
		open: make([]DispatchedAction, 0, 64),
	}
}

func (d *dispatcher) dispatch(a DispatchedAction) {
	d.mu.Lock()
	d.open = append(d.open, a)
	d.mu.Unlock()
}

// freeze hands out the current batch and opens an empty one.
func (d *dispatcher) freeze() []DispatchedAction {
	d.mu.Lock()
	batch := d.open
	d.open = make([]DispatchedAction, 0, cap(batch))
	d.mu.Unlock()

	return batch
}

func (d *dispatcher) pendingCount() int {
	d.mu.Lock()
	n := len(d.open)
	d.mu.Unlock()

	return n
}
