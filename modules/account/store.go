package account

import (
	"sync"
	"time"
)

// Closer is implemented by values kept in a FlowStore.
type Closer interface {
	Close()
}

type storeEntry[V Closer] struct {
	value   V
	expires time.Time
}

// StoreOption configures a FlowStore.
type StoreOption func(*storeConfig)

type storeConfig struct {
	interval time.Duration
	now      func() time.Time
}

// WithCleanupInterval sets how often expired flows are removed. Zero
// disables the background sweep.
func WithCleanupInterval(d time.Duration) StoreOption {
	return func(c *storeConfig) { c.interval = d }
}

// WithStoreClock replaces time.Now.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(c *storeConfig) { c.now = now }
}

// FlowStore keeps live flows in memory. Entries expire ttl after their last
// access and are closed when they expire, are deleted or replaced.
type FlowStore[V Closer] struct {
	mu      sync.Mutex
	items   map[string]storeEntry[V]
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
}

// NewFlowStore creates a store and starts the cleanup goroutine.
func NewFlowStore[V Closer](ttl time.Duration, opts ...StoreOption) *FlowStore[V] {
	cfg := storeConfig{interval: time.Minute, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &FlowStore[V]{
		items: make(map[string]storeEntry[V]),
		ttl:   ttl,
		now:   cfg.now,
		stop:  make(chan struct{}),
	}
	if cfg.interval > 0 {
		s.wg.Add(1)
		go s.cleanup(cfg.interval)
	}
	return s
}

// Put stores v under id, closing any value it replaces.
func (s *FlowStore[V]) Put(id string, v V) {
	s.mu.Lock()
	old, replaced := s.items[id]
	s.items[id] = storeEntry[V]{value: v, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()

	if replaced {
		old.value.Close()
	}
}

// Get returns the live value for id and extends its lifetime.
func (s *FlowStore[V]) Get(id string) (V, bool) {
	s.mu.Lock()
	e, ok := s.items[id]
	now := s.now()
	if ok && now.After(e.expires) {
		delete(s.items, id)
		s.mu.Unlock()
		e.value.Close()
		var zero V
		return zero, false
	}
	if ok {
		e.expires = now.Add(s.ttl)
		s.items[id] = e
	}
	s.mu.Unlock()
	return e.value, ok
}

// Delete removes and closes the value for id.
func (s *FlowStore[V]) Delete(id string) {
	s.mu.Lock()
	e, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()

	if ok {
		e.value.Close()
	}
}

// Len returns the number of stored values, expired or not.
func (s *FlowStore[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// RemoveExpired closes and drops every expired value.
func (s *FlowStore[V]) RemoveExpired() int {
	now := s.now()
	var expired []V

	s.mu.Lock()
	for id, e := range s.items {
		if now.After(e.expires) {
			expired = append(expired, e.value)
			delete(s.items, id)
		}
	}
	s.mu.Unlock()

	for _, v := range expired {
		v.Close()
	}
	return len(expired)
}

// Close stops the cleanup goroutine and closes every value.
func (s *FlowStore[V]) Close() {
	s.stopped.Do(func() { close(s.stop) })
	s.wg.Wait()

	s.mu.Lock()
	items := s.items
	s.items = make(map[string]storeEntry[V])
	s.mu.Unlock()

	for _, e := range items {
		e.value.Close()
	}
}

func (s *FlowStore[V]) cleanup(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.RemoveExpired()
		}
	}
}
