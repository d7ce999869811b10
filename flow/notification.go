package flow

import (
	"reflect"
	"time"
)

// Priority selects which tier of the notification queue a change
// notification travels through.
type Priority int

// The three notification tiers. Critical notifications are always delivered
// in the tick they are queued, regardless of the time budget.
const (
	PriorityNormal Priority = iota
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	}

	return "unknown"
}

// A ChangeNotification reports that the state record of Type changed during
// a tick.
type ChangeNotification struct {
	Type     reflect.Type
	New      interface{}
	Old      interface{}
	HasOld   bool
	Priority Priority
}

// A notificationQueue holds undelivered change notifications in three FIFO
// tiers. It has exactly one consumer per tick; only the Context drains it.
type notificationQueue struct {
	critical []ChangeNotification
	high     []ChangeNotification
	normal   []ChangeNotification
}

func newNotificationQueue() *notificationQueue {
	return &notificationQueue{}
}

func (q *notificationQueue) push(n ChangeNotification) {
	switch n.Priority {
	case PriorityCritical:
		q.critical = append(q.critical, n)
	case PriorityHigh:
		q.high = append(q.high, n)
	default:
		q.normal = append(q.normal, n)
	}
}

func (q *notificationQueue) depths() (critical, high, normal int) {
	return len(q.critical), len(q.high), len(q.normal)
}

// drain delivers queued notifications for one tick. The critical tier is
// drained completely with no budget check. The high tier is drained while
// the elapsed time stays under the budget, then the normal tier under the
// same shared budget. Whatever remains stays queued, order preserved, for
// the next tick. Returns the number of notifications delivered.
func (q *notificationQueue) drain(
	budget time.Duration,
	clock func() time.Time,
	deliver func(n ChangeNotification),
) int {
	delivered := 0
	start := clock()

	for len(q.critical) > 0 {
		n := q.critical[0]
		q.critical = q.critical[1:]
		deliver(n)
		delivered++
	}

	for len(q.high) > 0 && clock().Sub(start) < budget {
		n := q.high[0]
		q.high = q.high[1:]
		deliver(n)
		delivered++
	}

	for len(q.normal) > 0 && clock().Sub(start) < budget {
		n := q.normal[0]
		q.normal = q.normal[1:]
		deliver(n)
		delivered++
	}

	return delivered
}
