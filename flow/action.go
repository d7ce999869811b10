package flow

// An Action is an immutable, type-tagged value produced by the application
// and consumed exactly once by a reducer. Any value can serve as an action;
// reducers are looked up by the action's concrete type.
type Action any

// A DispatchedAction is an action together with the ID the pipeline assigned
// when it was accepted into a batch.
type DispatchedAction struct {
	ID     string
	Action Action
}
