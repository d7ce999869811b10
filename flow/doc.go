// Package flow implements the core of the Reflow pipeline: per-tick action
// batching, reducer dispatch, state change detection, and budgeted
// notification delivery.
//
// A pipeline is rooted at a Context. Producers Dispatch actions at any
// time; once per tick the host calls Step (or lets a Ticker do it), which
// freezes the batch, applies it through the registered reducers, compares
// every state record against its baseline, and delivers change
// notifications to subscribers through a three-tier, time-budgeted queue.
package flow
