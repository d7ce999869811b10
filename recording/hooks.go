package recording

import (
	"fmt"
	"sync"

	"github.com/reflowlab/reflow/flow"
	"github.com/reflowlab/reflow/reconcile"
)

// A TickTrace is one row of the per-tick trace table.
type TickTrace struct {
	Tick      uint64
	Actions   int
	Delivered int
	Remaining int
	ElapsedNs int64
}

// An ActionTrace is one row of the dispatched-action trace table.
type ActionTrace struct {
	ID   string
	Type string
}

// A MountTrace is one row of the mount/unmount trace table.
type MountTrace struct {
	Scope string
	Key   string
	Event string
}

// A PipelineHook records tick summaries and dispatched actions from a
// flow.Context into a Recorder. Attach it with Context.AcceptHook. Dispatch
// can happen on any goroutine, so inserts are serialized here.
type PipelineHook struct {
	mu  sync.Mutex
	rec Recorder
}

// NewPipelineHook creates the trace tables and returns the hook.
func NewPipelineHook(rec Recorder) *PipelineHook {
	rec.CreateTable("ticks", TickTrace{})
	rec.CreateTable("actions", ActionTrace{})

	return &PipelineHook{rec: rec}
}

// Func records tick-end summaries and accepted actions.
func (h *PipelineHook) Func(ctx flow.HookCtx) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch ctx.Pos {
	case flow.HookPosTickEnd:
		stats, ok := ctx.Item.(flow.TickStats)
		if !ok {
			return
		}

		h.rec.InsertData("ticks", TickTrace{
			Tick:      stats.Tick,
			Actions:   stats.Actions,
			Delivered: stats.Delivered,
			Remaining: stats.Remaining,
			ElapsedNs: stats.Elapsed.Nanoseconds(),
		})
	case flow.HookPosDispatch:
		da, ok := ctx.Item.(flow.DispatchedAction)
		if !ok {
			return
		}

		h.rec.InsertData("actions", ActionTrace{
			ID:   da.ID,
			Type: fmt.Sprintf("%T", da.Action),
		})
	}
}

// A MountHook records mount lifecycle events from a reconcile.Scope into a
// Recorder. Attach it with Scope.AcceptHook. Mount hooks fire from mount
// goroutines, so inserts are serialized here.
type MountHook struct {
	mu  sync.Mutex
	rec Recorder
}

// NewMountHook creates the mount trace table and returns the hook.
func NewMountHook(rec Recorder) *MountHook {
	rec.CreateTable("mounts", MountTrace{})

	return &MountHook{rec: rec}
}

// Func records mount, unmount, update, and mount-failure events.
func (h *MountHook) Func(ctx flow.HookCtx) {
	h.mu.Lock()
	defer h.mu.Unlock()

	scope, ok := ctx.Domain.(*reconcile.Scope)
	if !ok {
		return
	}

	var key string
	switch item := ctx.Item.(type) {
	case *reconcile.MountedElement:
		key = item.Key
	case reconcile.MountedElement:
		key = item.Key
	case string:
		key = item
	default:
		return
	}

	switch ctx.Pos {
	case reconcile.HookPosMount,
		reconcile.HookPosUnmount,
		reconcile.HookPosUpdate,
		reconcile.HookPosMountFailure:
		h.rec.InsertData("mounts", MountTrace{
			Scope: scope.Name(),
			Key:   key,
			Event: ctx.Pos.Name,
		})
	}
}
