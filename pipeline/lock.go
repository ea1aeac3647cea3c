package pipeline

import (
	"errors"
	"fmt"
	"sync"
)

// ErrStageBusy is returned when a run of a transformation is attempted while
// another run of the same transformation is still in flight. Two concurrent
// runs reading the same checkpoint could double-process a window before
// either commits, so each stage holds an advisory lock keyed by its name for
// the duration of a run. Different stages may run concurrently.
var ErrStageBusy = errors.New("transformation already running")

var stageLocks sync.Map // name -> *sync.Mutex

func acquireStageLock(name string) (release func(), err error) {
	v, _ := stageLocks.LoadOrStore(name, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	if !mu.TryLock() {
		return nil, fmt.Errorf("%w: %s", ErrStageBusy, name)
	}
	return mu.Unlock, nil
}
