package practice

import "sync"

const observerBuffer = 16

type observer struct {
	ch   chan Snapshot
	last uint64
}

// feed fans snapshots out to observers. Delivery never blocks the
// publisher: a full observer loses its oldest pending snapshot.
type feed struct {
	mu        sync.Mutex
	observers map[int]*observer
	next      int
	closed    bool
}

func newFeed() *feed {
	return &feed{observers: make(map[int]*observer)}
}

func (f *feed) subscribe() (<-chan Snapshot, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan Snapshot, observerBuffer)
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	id := f.next
	f.next++
	f.observers[id] = &observer{ch: ch}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if obs, ok := f.observers[id]; ok {
				delete(f.observers, id)
				close(obs.ch)
			}
		})
	}
}

func (f *feed) publish(snap Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, obs := range f.observers {
		// Concurrent publishers may race; never deliver an older version.
		if snap.Version <= obs.last {
			continue
		}
		obs.last = snap.Version
		select {
		case obs.ch <- snap:
		default:
			select {
			case <-obs.ch:
			default:
			}
			select {
			case obs.ch <- snap:
			default:
			}
		}
	}
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for id, obs := range f.observers {
		close(obs.ch)
		delete(f.observers, id)
	}
}

func (f *feed) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.observers)
}
