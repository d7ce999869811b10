package reconcile

import (
	"context"
)

// An Instance is the opaque handle a Mounter produces for a mounted
// element.
type Instance interface{}

// A Mounter produces and destroys visual instances for declared elements.
// Mounters are external capabilities: asset loading, widget construction,
// and rendering all live behind this interface.
type Mounter interface {
	// Mount produces an instance for the given props. It runs on its own
	// goroutine and may suspend; it must honor ctx cancellation at its
	// suspension points.
	Mount(ctx context.Context, props interface{}) (Instance, error)

	// Update forwards new props to an existing instance. It never causes a
	// remount.
	Update(instance Instance, props interface{})

	// Unmount destroys an instance.
	Unmount(instance Instance)
}

// An Element is one entry of a declared tree. Declaration functions produce
// a fresh, ordered Element list each pass.
type Element struct {
	// Key identifies the element within its parent scope. Keys must be
	// unique within one declaration pass.
	Key string

	// Order is the sibling position. The declared order is authoritative
	// and is reapplied on every pass.
	Order int

	// Props is the opaque property bag forwarded to the Mounter.
	Props interface{}

	// Mounter mounts, updates, and unmounts this element. It runs at most
	// once per element lifetime; redeclaring a removed key mounts a brand
	// new instance.
	Mounter Mounter
}

// A MountedElement is an element the scope currently owns, together with
// the instance its Mounter produced.
type MountedElement struct {
	Key      string
	Order    int
	Props    interface{}
	Instance Instance

	mounter Mounter
}
