package flow

import (
	"log"
)

// A LogHook is a hook that is responsible for recording information from the
// pipeline.
type LogHook interface {
	Hook
}

// LogHookBase provides the common logic for all LogHooks.
type LogHookBase struct {
	*log.Logger
}

// ActionLogger is a hook that prints every action accepted into a batch.
type ActionLogger struct {
	LogHookBase
}

// NewActionLogger returns an ActionLogger that writes to the given logger.
func NewActionLogger(logger *log.Logger) *ActionLogger {
	h := new(ActionLogger)
	h.Logger = logger
	return h
}

// Func writes the action information into the logger.
func (h *ActionLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosDispatch {
		return
	}

	da, ok := ctx.Item.(DispatchedAction)
	if !ok {
		return
	}

	h.Printf("action %s, %T", da.ID, da.Action)
}

// NotificationLogger is a hook that prints every notification delivery.
type NotificationLogger struct {
	LogHookBase
}

// NewNotificationLogger returns a NotificationLogger that writes to the
// given logger.
func NewNotificationLogger(logger *log.Logger) *NotificationLogger {
	h := new(NotificationLogger)
	h.Logger = logger
	return h
}

// Func writes the notification information into the logger.
func (h *NotificationLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosNotifyDeliver {
		return
	}

	n, ok := ctx.Item.(ChangeNotification)
	if !ok {
		return
	}

	h.Printf("notify %s, %s", n.Type, n.Priority)
}
