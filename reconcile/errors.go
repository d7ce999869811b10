package reconcile

import (
	"errors"
	"fmt"
)

// ErrScopeDisposed is returned by Declare after the scope has been torn
// down.
var ErrScopeDisposed = errors.New("scope is disposed")

// A DuplicateKeyError reports that one declaration pass used the same key
// twice. The pass fails as a whole; the owned tree is left untouched.
type DuplicateKeyError struct {
	Scope string
	Key   string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q declared in scope %s", e.Key, e.Scope)
}
