package flow

import (
	"fmt"
	"reflect"
)

// A record is the single live instance of one state type, together with the
// baseline used for change detection.
type record struct {
	typ         reflect.Type
	value       interface{}
	hasValue    bool
	baseline    interface{}
	hasBaseline bool
	priority    Priority
}

// A store owns all registered state records. It is mutated only on the
// tick-processing goroutine: by reducers through a Tx during the batch, and
// by the change detector right after.
type store struct {
	records map[reflect.Type]*record
	order   []reflect.Type
}

func newStore() *store {
	return &store{
		records: make(map[reflect.Type]*record),
	}
}

func (s *store) register(t reflect.Type, priority Priority) error {
	if _, exists := s.records[t]; exists {
		return fmt.Errorf("state type %s is already registered", t)
	}

	s.records[t] = &record{typ: t, priority: priority}
	s.order = append(s.order, t)

	return nil
}

func (s *store) put(value interface{}) error {
	t := reflect.TypeOf(value)

	rec, found := s.records[t]
	if !found {
		return fmt.Errorf("state type %s is not registered", t)
	}

	rec.value = value
	rec.hasValue = true

	return nil
}

func (s *store) current(t reflect.Type) (interface{}, bool) {
	rec, found := s.records[t]
	if !found || !rec.hasValue {
		return nil, false
	}

	return rec.value, true
}

func (s *store) types() []reflect.Type {
	out := make([]reflect.Type, len(s.order))
	copy(out, s.order)

	return out
}

// detectChanges compares every record that holds a value against its
// baseline and emits a notification on structural difference. The baseline
// advances together with the emission, so an unchanged record stays silent
// on the following ticks. Records are visited in registration order.
func (s *store) detectChanges(emit func(n ChangeNotification)) {
	for _, t := range s.order {
		rec := s.records[t]
		if !rec.hasValue {
			continue
		}

		if rec.hasBaseline && reflect.DeepEqual(rec.value, rec.baseline) {
			continue
		}

		emit(ChangeNotification{
			Type:     t,
			New:      rec.value,
			Old:      rec.baseline,
			HasOld:   rec.hasBaseline,
			Priority: rec.priority,
		})

		rec.baseline = rec.value
		rec.hasBaseline = true
	}
}

// A Tx is the handle reducers use to read and write state records during a
// tick. It is only valid for the duration of the reducer call.
type Tx struct {
	s *store
}

// Put installs value as the live record for its concrete type. The type must
// have been registered on the Context beforehand.
func (tx *Tx) Put(value interface{}) error {
	return tx.s.put(value)
}

// Current returns the live record for t, if any.
func (tx *Tx) Current(t reflect.Type) (interface{}, bool) {
	return tx.s.current(t)
}

// Put installs value as the live record for type T on the transaction.
func Put[T any](tx *Tx, value T) error {
	return tx.s.put(value)
}

// Get reads the live record of type T, if one exists.
func Get[T any](tx *Tx) (T, bool) {
	var zero T

	v, ok := tx.s.current(typeOf[T]())
	if !ok {
		return zero, false
	}

	return v.(T), true
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
