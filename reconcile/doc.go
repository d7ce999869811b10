// Package reconcile diffs declared keyed element lists against the mounted
// tree of a parent scope and applies the minimal set of mount, update, and
// unmount operations. Mounts run asynchronously and attach through a
// serialized step; passes for one scope coalesce through a single-slot
// gate.
package reconcile
