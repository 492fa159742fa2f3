package engine

import "sync"

// backendRC reference-counts global backend init/free so that static
// pre-flight validation and a live session can hold the backend at the same
// time without either tearing it down under the other.
type backendRC struct {
	mu   sync.Mutex
	refs int
	init func()
	free func()
}

func (b *backendRC) acquire() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refs == 0 && b.init != nil {
		b.init()
	}
	b.refs++
}

func (b *backendRC) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refs == 0 {
		return
	}
	b.refs--
	if b.refs == 0 && b.free != nil {
		b.free()
	}
}
