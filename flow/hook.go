package flow

// HookPos defines the enum of possible hooking positions.
type HookPos struct {
	Name string
}

// HookCtx is the context that holds all the information about the site that a
// hook is triggered.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable defines an object that accepts Hooks.
type Hookable interface {
	// AcceptHook registers a hook
	AcceptHook(hook Hook)
}

// HookPosTickStart is a hook position that triggers at the beginning of a
// tick, before the action batch is frozen.
var HookPosTickStart = &HookPos{Name: "TickStart"}

// HookPosTickEnd is a hook position that triggers after the notification
// queue finished draining for the tick.
var HookPosTickEnd = &HookPos{Name: "TickEnd"}

// HookPosDispatch is a hook position that triggers when an action is
// accepted into the open batch.
var HookPosDispatch = &HookPos{Name: "Dispatch"}

// HookPosActionApply is a hook position that triggers before a reducer
// handles an action.
var HookPosActionApply = &HookPos{Name: "ActionApply"}

// HookPosNotifyPush is a hook position that triggers when a change
// notification enters the queue.
var HookPosNotifyPush = &HookPos{Name: "NotifyPush"}

// HookPosNotifyDeliver is a hook position that triggers before a
// notification is delivered to a subscriber.
var HookPosNotifyDeliver = &HookPos{Name: "NotifyDeliver"}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// A HookableBase provides some utility function for other type that implement
// the Hookable interface.
type HookableBase struct {
	Hooks []Hook
}

// NewHookableBase creates a HookableBase object.
func NewHookableBase() *HookableBase {
	h := new(HookableBase)
	h.Hooks = make([]Hook, 0)
	return h
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.Hooks)
}

// InvokeHook triggers the registered Hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
