package reconcile

import (
	"context"
	"log"
	"os"
	"sort"
	"sync"

	"github.com/reflowlab/reflow/flow"
)

// HookPosMount is a hook position that triggers after an instance is
// attached to the scope.
var HookPosMount = &flow.HookPos{Name: "Mount"}

// HookPosUnmount is a hook position that triggers after an instance is
// unmounted.
var HookPosUnmount = &flow.HookPos{Name: "Unmount"}

// HookPosUpdate is a hook position that triggers after new props are
// forwarded to an owned element.
var HookPosUpdate = &flow.HookPos{Name: "Update"}

// HookPosMountFailure is a hook position that triggers when a mount fails.
var HookPosMountFailure = &flow.HookPos{Name: "MountFailure"}

// A mountToken tracks one in-flight asynchronous mount. The token, not the
// key, identifies the element lifetime: a key that is removed and
// redeclared gets a fresh token and therefore a fresh instance.
type mountToken struct {
	key       string
	order     int
	props     interface{}
	mounter   Mounter
	cancelled bool
}

// A Scope owns the mounted tree of one parent scope and reconciles it
// against declared element lists. Reconciliation passes for one Scope never
// run concurrently: a Declare call that arrives while a pass is in flight
// parks its list as the pending declaration, and any number of such calls
// coalesce into exactly one follow-up pass.
type Scope struct {
	flow.HookableBase

	name   string
	logger *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	passDone   *sync.Cond
	owned      map[string]*MountedElement
	mounting   map[string]*mountToken
	busy       bool
	pending    []Element
	hasPending bool
	disposed   bool
}

// NewScope creates a Scope with the given name.
func NewScope(name string) *Scope {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scope{
		name:     name,
		logger:   log.New(os.Stderr, "", log.LstdFlags),
		ctx:      ctx,
		cancel:   cancel,
		owned:    make(map[string]*MountedElement),
		mounting: make(map[string]*mountToken),
	}
	s.passDone = sync.NewCond(&s.mu)

	return s
}

// WithLogger replaces the logger mount failures are reported to.
func (s *Scope) WithLogger(logger *log.Logger) *Scope {
	s.logger = logger
	return s
}

// Name returns the name of the Scope.
func (s *Scope) Name() string {
	return s.name
}

// Declare reconciles the owned tree against a freshly declared element
// list. A duplicate key fails the whole call with a DuplicateKeyError and
// leaves the owned tree untouched. Declare returns once the synchronous
// part of the pass is done; mounts complete asynchronously and never block
// a pass.
func (s *Scope) Declare(elements []Element) error {
	seen := make(map[string]struct{}, len(elements))
	for _, e := range elements {
		if _, dup := seen[e.Key]; dup {
			return &DuplicateKeyError{Scope: s.name, Key: e.Key}
		}

		seen[e.Key] = struct{}{}
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrScopeDisposed
	}

	if s.busy {
		// Coalesce: the latest declaration wins, earlier pending ones are
		// superseded.
		s.pending = elements
		s.hasPending = true
		s.mu.Unlock()

		return nil
	}

	s.busy = true
	s.mu.Unlock()

	for {
		s.runPass(elements)

		s.mu.Lock()
		if s.hasPending && !s.disposed {
			elements = s.pending
			s.pending = nil
			s.hasPending = false
			s.mu.Unlock()

			continue
		}

		s.busy = false
		s.passDone.Broadcast()
		s.mu.Unlock()

		return nil
	}
}

type updateOp struct {
	me    *MountedElement
	props interface{}
}

func (s *Scope) runPass(elements []Element) {
	declared := make(map[string]struct{}, len(elements))
	for _, e := range elements {
		declared[e.Key] = struct{}{}
	}

	s.mu.Lock()

	if s.disposed {
		s.mu.Unlock()
		return
	}

	removed := s.collectRemovalsLocked(declared)

	var updates []updateOp
	var newMounts []*mountToken

	for _, e := range elements {
		if me, found := s.owned[e.Key]; found {
			me.Order = e.Order
			me.Props = e.Props
			updates = append(updates, updateOp{me: me, props: e.Props})

			continue
		}

		if tok, found := s.mounting[e.Key]; found {
			// The element is already being mounted; refresh what the
			// attach step will use.
			tok.order = e.Order
			tok.props = e.Props

			continue
		}

		tok := &mountToken{
			key:     e.Key,
			order:   e.Order,
			props:   e.Props,
			mounter: e.Mounter,
		}
		s.mounting[e.Key] = tok
		newMounts = append(newMounts, tok)
	}

	s.mu.Unlock()

	// Mounter callbacks run outside the scope lock. The pass gate already
	// guarantees that no second pass touches the tree meanwhile.
	for _, me := range removed {
		me.mounter.Unmount(me.Instance)
		s.InvokeHook(flow.HookCtx{Domain: s, Pos: HookPosUnmount, Item: me})
	}

	for _, u := range updates {
		u.me.mounter.Update(u.me.Instance, u.props)
		s.InvokeHook(flow.HookCtx{Domain: s, Pos: HookPosUpdate, Item: u.me})
	}

	for _, tok := range newMounts {
		go s.runMount(tok, tok.props)
	}
}

// collectRemovalsLocked drops every owned element that is not declared
// anymore and cancels in-flight mounts for removed keys. Removals are
// returned in sibling order so unmounting stays deterministic.
func (s *Scope) collectRemovalsLocked(
	declared map[string]struct{},
) []*MountedElement {
	var removed []*MountedElement

	for key, me := range s.owned {
		if _, keep := declared[key]; !keep {
			removed = append(removed, me)
			delete(s.owned, key)
		}
	}

	sort.Slice(removed, func(i, j int) bool {
		return removed[i].Order < removed[j].Order
	})

	for key, tok := range s.mounting {
		if _, keep := declared[key]; !keep {
			tok.cancelled = true
			delete(s.mounting, key)
		}
	}

	return removed
}

// runMount executes one asynchronous mount. The attach step is the only
// place a mount goroutine touches the tree, and it is serialized on the
// scope lock. A completion whose token was invalidated meanwhile tears the
// instance down instead of attaching it.
func (s *Scope) runMount(tok *mountToken, props interface{}) {
	inst, err := tok.mounter.Mount(s.ctx, props)

	s.mu.Lock()

	current := !s.disposed && !tok.cancelled && s.mounting[tok.key] == tok
	if current {
		delete(s.mounting, tok.key)
	}

	if err != nil {
		s.mu.Unlock()

		if current {
			s.logger.Printf("scope %s: mounting %q failed: %v",
				s.name, tok.key, err)
			s.InvokeHook(flow.HookCtx{
				Domain: s,
				Pos:    HookPosMountFailure,
				Item:   tok.key,
				Detail: err,
			})
		}

		return
	}

	if !current {
		s.mu.Unlock()

		// Completed past its cancellation checkpoint: tear down, never
		// attach.
		tok.mounter.Unmount(inst)

		return
	}

	me := &MountedElement{
		Key:      tok.key,
		Order:    tok.order,
		Props:    tok.props,
		Instance: inst,
		mounter:  tok.mounter,
	}
	s.owned[tok.key] = me
	latestProps := tok.props

	s.mu.Unlock()

	me.mounter.Update(inst, latestProps)
	s.InvokeHook(flow.HookCtx{Domain: s, Pos: HookPosMount, Item: me})
}

// Dispose tears the scope down: it cancels every in-flight mount, prevents
// any future attach, and unmounts all owned elements. A pass in flight
// finishes its callbacks first; Dispose waits on the pass gate so its
// unmounts never interleave with a pass. Declare calls after Dispose fail
// with ErrScopeDisposed.
func (s *Scope) Dispose() {
	s.mu.Lock()

	if s.disposed {
		s.mu.Unlock()
		return
	}

	s.disposed = true
	s.cancel()

	for key, tok := range s.mounting {
		tok.cancelled = true
		delete(s.mounting, key)
	}

	for s.busy {
		s.passDone.Wait()
	}

	var all []*MountedElement
	for key, me := range s.owned {
		all = append(all, me)
		delete(s.owned, key)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Order < all[j].Order
	})

	s.mu.Unlock()

	for _, me := range all {
		me.mounter.Unmount(me.Instance)
		s.InvokeHook(flow.HookCtx{Domain: s, Pos: HookPosUnmount, Item: me})
	}
}

// Elements returns a snapshot of the owned elements in sibling order.
func (s *Scope) Elements() []MountedElement {
	s.mu.Lock()

	out := make([]MountedElement, 0, len(s.owned))
	for _, me := range s.owned {
		out = append(out, *me)
	}

	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})

	return out
}

// PendingMounts reports the number of in-flight mounts.
func (s *Scope) PendingMounts() int {
	s.mu.Lock()
	n := len(s.mounting)
	s.mu.Unlock()

	return n
}
