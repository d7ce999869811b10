package flow

import (
	"reflect"
)

// A Subscriber receives change notifications for the state types it is
// registered for.
type Subscriber interface {
	// Notify delivers one change notification. It is invoked only on the
	// tick-processing goroutine, except for the synchronous replay that
	// happens during Subscribe.
	Notify(n ChangeNotification)
}

// A subscriptionRegistry indexes subscribers by state type. Registrations
// are additive: subscribing the same subscriber twice for the same type
// results in two deliveries per notification.
type subscriptionRegistry struct {
	subscribers map[reflect.Type][]Subscriber
}

func newSubscriptionRegistry() *subscriptionRegistry {
	return &subscriptionRegistry{
		subscribers: make(map[reflect.Type][]Subscriber),
	}
}

func (r *subscriptionRegistry) add(t reflect.Type, s Subscriber) {
	r.subscribers[t] = append(r.subscribers[t], s)
}

// remove drops one registration of s for t. It is a no-op if s is not
// registered.
func (r *subscriptionRegistry) remove(t reflect.Type, s Subscriber) {
	list := r.subscribers[t]
	for i, registered := range list {
		if registered == s {
			r.subscribers[t] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

func (r *subscriptionRegistry) listFor(t reflect.Type) []Subscriber {
	return r.subscribers[t]
}

// A funcSubscriber adapts a plain function to the Subscriber interface. It
// is a pointer type so that registrations stay comparable for Unsubscribe.
type funcSubscriber struct {
	fn func(n ChangeNotification)
}

// NewSubscriber wraps fn as a Subscriber. The returned value identifies the
// registration; keep it to unsubscribe later.
func NewSubscriber(fn func(n ChangeNotification)) Subscriber {
	return &funcSubscriber{fn: fn}
}

// Notify calls the wrapped function.
func (f *funcSubscriber) Notify(n ChangeNotification) {
	f.fn(n)
}
