package monitoring

import (
	"sync"
	"time"

	"github.com/reflowlab/reflow/flow"
	"github.com/reflowlab/reflow/reconcile"
)

// A ProgressBar is a tracker of mount progress shown by the monitor.
type ProgressBar struct {
	sync.Mutex
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// IncrementInProgress adds to the number of in-progress elements.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress += amount
}

// IncrementFinished adds a certain amount to the finished elements.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// MoveInProgressToFinished reduces the number of in-progress items by a
// certain amount and increases the finished items by the same amount.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress -= amount
	b.Finished += amount
}

// A mountProgressHook advances a progress bar as a scope settles mounts.
// Failed mounts also count as settled so the bar can complete.
type mountProgressHook struct {
	bar *ProgressBar
}

// Func updates the bar on mount lifecycle events.
func (h *mountProgressHook) Func(ctx flow.HookCtx) {
	switch ctx.Pos {
	case reconcile.HookPosMount, reconcile.HookPosMountFailure:
		h.bar.IncrementFinished(1)
	}
}
