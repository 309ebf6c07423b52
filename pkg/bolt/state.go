package bolt

import (
	"context"
	"sync"
)

// initFuture is the one-shot signal spec.md §4.4 calls ConnectionState:
// resolved with the negotiated server version on INIT SUCCESS, rejected
// with the INIT error on INIT FAILURE or a fatal error before INIT
// completes.
//
// Deferred rejection policy: if the error arrives before anyone calls
// wait, it is only memorized here — nothing is "thrown" until a caller
// actually asks for the result via wait, matching spec.md §4.4's note
// that premature rejection signals should be avoided.
type initFuture struct {
	done chan struct{}

	mu      sync.Mutex
	settled bool
	version serverVersion
	err     error
}

func newInitFuture() *initFuture {
	return &initFuture{done: make(chan struct{})}
}

func (f *initFuture) resolve(v serverVersion) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settled {
		return
	}
	f.settled = true
	f.version = v
	close(f.done)
}

func (f *initFuture) reject(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settled {
		return
	}
	f.settled = true
	f.err = err
	close(f.done)
}

// wait blocks until the future settles or ctx is done, then returns the
// INIT error (nil on success).
func (f *initFuture) wait(ctx context.Context) error {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
