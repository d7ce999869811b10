package flow

import (
	"fmt"
	"log"
	"os"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petermattis/goid"
)

// DefaultBudget is the shared draining budget for the high and normal
// notification tiers when none is configured. The critical tier ignores the
// budget entirely.
const DefaultBudget = 8 * time.Millisecond

// A TickStats summarizes one completed tick. It travels as the Item of
// HookPosTickEnd.
type TickStats struct {
	Tick      uint64
	Actions   int
	Delivered int
	Remaining int
	Elapsed   time.Duration
}

// A Context is the explicit root object of one pipeline instance. It owns
// the action batcher, the state store, the notification queue, and the
// subscription registry. All pipeline entry points hang off a Context;
// nothing is process-global, and the lifecycle of every registration is
// bound to it.
//
// Dispatch is safe from any goroutine. Step calls from different
// goroutines serialize on the tick lock; the registration calls and
// Subscribe must not race a tick. Pause and Continue expose the tick lock
// so other goroutines can read the pipeline state consistently.
type Context struct {
	HookableBase

	logger *log.Logger
	idGen  IDGenerator
	budget time.Duration
	clock  func() time.Time

	batcher  *dispatcher
	store    *store
	queue    *notificationQueue
	registry *subscriptionRegistry
	reducers map[reflect.Type]func(tx *Tx, a Action) error

	tickLock   sync.Mutex
	pauseLock  sync.Mutex
	pauseCount int
	stepperID  atomic.Int64

	closeMu sync.Mutex
	closed  bool

	tickCount uint64
}

// NewContext creates a pipeline Context with the default configuration:
// sequential IDs, the default budget, the wall clock, and a logger writing
// to stderr.
func NewContext() *Context {
	return &Context{
		logger:   log.New(os.Stderr, "", log.LstdFlags),
		idGen:    &sequentialIDGenerator{},
		budget:   DefaultBudget,
		clock:    time.Now,
		batcher:  newDispatcher(),
		store:    newStore(),
		queue:    newNotificationQueue(),
		registry: newSubscriptionRegistry(),
		reducers: make(map[reflect.Type]func(tx *Tx, a Action) error),
	}
}

// WithBudget sets the per-tick draining budget.
func (c *Context) WithBudget(budget time.Duration) *Context {
	c.budget = budget
	return c
}

// WithClock replaces the clock used for budget accounting. Tests inject a
// fake clock here.
func (c *Context) WithClock(clock func() time.Time) *Context {
	c.clock = clock
	return c
}

// WithLogger replaces the logger that recoverable failures are reported to.
func (c *Context) WithLogger(logger *log.Logger) *Context {
	c.logger = logger
	return c
}

// WithParallelIDs makes the Context assign xid-based action IDs instead of
// deterministic sequential ones.
func (c *Context) WithParallelIDs() *Context {
	c.idGen = xidGenerator{}
	return c
}

// Dispatch accepts an action into the open batch and returns immediately.
// It is safe to call from any goroutine. Dispatching on a closed Context is
// a configuration error and panics.
func (c *Context) Dispatch(a Action) {
	c.mustBeOpen("Dispatch")

	da := DispatchedAction{ID: c.idGen.Generate(), Action: a}
	c.batcher.dispatch(da)

	if c.NumHooks() > 0 {
		c.InvokeHook(HookCtx{
			Domain: c,
			Pos:    HookPosDispatch,
			Item:   da,
		})
	}
}

// Step runs exactly one tick: freeze the batch, run reducers in dispatch
// order, detect state changes, and drain the notification queue under the
// budget. Reducer errors abort the tick and propagate to the caller.
// Concurrent Step calls serialize; reentrant stepping from within a tick
// is a protocol violation and panics.
func (c *Context) Step() error {
	c.mustBeOpen("Step")

	gid := goid.Get()
	if c.stepperID.Load() == gid {
		c.logger.Panic("tick already in progress, Step must not be reentered")
	}

	c.tickLock.Lock()
	defer c.tickLock.Unlock()

	c.stepperID.Store(gid)
	defer c.stepperID.Store(0)

	c.tickCount++
	start := c.clock()

	c.InvokeHook(HookCtx{Domain: c, Pos: HookPosTickStart, Item: c.tickCount})

	batch := c.batcher.freeze()
	if err := c.runReducers(batch); err != nil {
		return err
	}

	c.store.detectChanges(func(n ChangeNotification) {
		c.queue.push(n)

		if c.NumHooks() > 0 {
			c.InvokeHook(HookCtx{Domain: c, Pos: HookPosNotifyPush, Item: n})
		}
	})

	delivered := c.queue.drain(c.budget, c.clock, c.deliver)

	critical, high, normal := c.queue.depths()
	c.InvokeHook(HookCtx{
		Domain: c,
		Pos:    HookPosTickEnd,
		Item: TickStats{
			Tick:      c.tickCount,
			Actions:   len(batch),
			Delivered: delivered,
			Remaining: critical + high + normal,
			Elapsed:   c.clock().Sub(start),
		},
	})

	return nil
}

// Pause blocks until the in-flight tick, if any, completes and prevents
// further ticks until Continue is called. Pauses nest; every Pause needs a
// matching Continue.
func (c *Context) Pause() {
	c.pauseLock.Lock()
	defer c.pauseLock.Unlock()

	c.pauseCount++
	if c.pauseCount == 1 {
		c.tickLock.Lock()
	}
}

// Continue resumes ticking after a Pause.
func (c *Context) Continue() {
	c.pauseLock.Lock()
	defer c.pauseLock.Unlock()

	if c.pauseCount == 0 {
		return
	}

	c.pauseCount--
	if c.pauseCount == 0 {
		c.tickLock.Unlock()
	}
}

func (c *Context) runReducers(batch []DispatchedAction) error {
	tx := &Tx{s: c.store}

	for _, da := range batch {
		t := reflect.TypeOf(da.Action)

		reduce, found := c.reducers[t]
		if !found {
			c.logger.Panicf("no reducer registered for action type %s", t)
		}

		if c.NumHooks() > 0 {
			c.InvokeHook(HookCtx{Domain: c, Pos: HookPosActionApply, Item: da})
		}

		if err := reduce(tx, da.Action); err != nil {
			return fmt.Errorf("reducer for %s: %w", t, err)
		}
	}

	return nil
}

func (c *Context) deliver(n ChangeNotification) {
	for _, s := range c.registry.listFor(n.Type) {
		if c.NumHooks() > 0 {
			c.InvokeHook(HookCtx{
				Domain: c,
				Pos:    HookPosNotifyDeliver,
				Item:   n,
				Detail: s,
			})
		}

		c.safeNotify(s, n)
	}
}

// safeNotify isolates a panicking subscriber. The failure is logged and the
// remaining deliveries of the tick proceed.
func (c *Context) safeNotify(s Subscriber, n ChangeNotification) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Printf("subscriber for %s panicked: %v", n.Type, r)
		}
	}()

	s.Notify(n)
}

// Subscribe registers s for notifications of state type t. If a current
// value for t exists, it is delivered synchronously before Subscribe
// returns, so there is no stale gap between subscribing and the next tick.
// Duplicate registrations are additive.
func (c *Context) Subscribe(t reflect.Type, s Subscriber) {
	c.mustBeOpen("Subscribe")

	c.registry.add(t, s)

	if v, ok := c.store.current(t); ok {
		c.safeNotify(s, ChangeNotification{
			Type:     t,
			New:      v,
			Priority: c.store.records[t].priority,
		})
	}
}

// Unsubscribe removes one registration of s for t. It is a no-op if s is
// not registered.
func (c *Context) Unsubscribe(t reflect.Type, s Subscriber) {
	c.registry.remove(t, s)
}

// Close marks the Context as closed. Dispatch and Step on a closed Context
// panic. Close is idempotent.
func (c *Context) Close() {
	c.closeMu.Lock()
	c.closed = true
	c.closeMu.Unlock()
}

func (c *Context) mustBeOpen(op string) {
	c.closeMu.Lock()
	closed := c.closed
	c.closeMu.Unlock()

	if closed {
		c.logger.Panicf("%s called on a closed pipeline context", op)
	}
}

// TickCount returns the number of completed or in-progress ticks.
func (c *Context) TickCount() uint64 {
	return c.tickCount
}

// QueueDepths reports the number of undelivered notifications per tier.
func (c *Context) QueueDepths() (critical, high, normal int) {
	return c.queue.depths()
}

// PendingActions reports the number of actions waiting in the open batch.
func (c *Context) PendingActions() int {
	return c.batcher.pendingCount()
}

// StateTypes lists the registered state record types in registration order.
func (c *Context) StateTypes() []reflect.Type {
	return c.store.types()
}

// CurrentValue returns the live record for t, if any.
func (c *Context) CurrentValue(t reflect.Type) (interface{}, bool) {
	return c.store.current(t)
}

// RegisterState registers T as a watched state record whose change
// notifications carry priority p. Registering the same type twice is a
// configuration error and panics.
func RegisterState[T any](c *Context, p Priority) {
	if err := c.store.register(typeOf[T](), p); err != nil {
		c.logger.Panic(err)
	}
}

// RegisterReducer installs the reducer for action type T. Each action type
// has exactly one reducer; a second registration panics.
func RegisterReducer[T any](c *Context, reduce func(tx *Tx, action T) error) {
	t := typeOf[T]()

	if _, exists := c.reducers[t]; exists {
		c.logger.Panicf("reducer for action type %s is already registered", t)
	}

	c.reducers[t] = func(tx *Tx, a Action) error {
		return reduce(tx, a.(T))
	}
}

// SubscribeFunc registers fn for notifications of state type T and returns
// the Subscriber handle identifying the registration.
func SubscribeFunc[T any](c *Context, fn func(n ChangeNotification)) Subscriber {
	s := NewSubscriber(fn)
	c.Subscribe(typeOf[T](), s)

	return s
}

// UnsubscribeFunc removes one registration previously made for type T.
func UnsubscribeFunc[T any](c *Context, s Subscriber) {
	c.Unsubscribe(typeOf[T](), s)
}
