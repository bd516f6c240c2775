package ratelimiter

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"
)

// State is a snapshot of a tracker.
type State struct {
	Attempts  int  `json:"attempts"`
	Countdown int  `json:"countdown"` // seconds until the next attempt is allowed
	IsLimited bool `json:"isLimited"`
}

// Tracker enforces a Policy for one action key. It is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	key    string
	store  Store
	policy Policy
	now    func() time.Time
	tick   time.Duration
	entry  Entry
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithPolicy overrides DefaultPolicy.
func WithPolicy(p Policy) TrackerOption {
	return func(t *Tracker) {
		t.policy = p
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithTickInterval sets the Watch interval. Defaults to one second.
func WithTickInterval(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.tick = d
		}
	}
}

// NewTracker creates a tracker with no attempts. Call Load to pick up the
// persisted entry.
func NewTracker(key string, store Store, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		key:    key,
		store:  store,
		policy: DefaultPolicy(),
		now:    time.Now,
		tick:   time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Key returns the action key.
func (t *Tracker) Key() string { return t.key }

// Load reads the persisted entry. Entries older than the staleness window are
// deleted and the tracker starts from zero.
func (t *Tracker) Load(ctx context.Context) error {
	e, err := t.store.Load(ctx, t.key)
	switch {
	case errors.Is(err, ErrEntryNotFound):
		e = Entry{}
	case err != nil:
		return err
	}

	if e.Attempts > 0 && t.now().Sub(e.Time()) > t.policy.Staleness {
		if err := t.store.Delete(ctx, t.key); err != nil {
			return err
		}
		e = Entry{}
	}

	t.mu.Lock()
	t.entry = e
	t.mu.Unlock()
	return nil
}

// State returns the current snapshot, recomputing the countdown from the
// wall clock.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

func (t *Tracker) stateLocked() State {
	countdown := t.countdownLocked()
	return State{
		Attempts:  t.entry.Attempts,
		Countdown: countdown,
		IsLimited: t.entry.Attempts >= t.policy.MaxAttempts && countdown > 0,
	}
}

func (t *Tracker) countdownLocked() int {
	if t.entry.Attempts == 0 {
		return 0
	}
	remaining := t.policy.Cooldown(t.entry.Attempts) - t.now().Sub(t.entry.Time())
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Seconds()))
}

// CanAttempt reports whether no cooldown is running.
func (t *Tracker) CanAttempt() bool {
	return t.State().Countdown == 0
}

// RecordAttempt records the outcome of an attempt. A failure increments the
// counter and persists it; a success clears it and deletes the entry.
func (t *Tracker) RecordAttempt(ctx context.Context, success bool) (State, error) {
	t.mu.Lock()
	if success {
		t.entry = Entry{}
		t.mu.Unlock()
		return State{}, t.store.Delete(ctx, t.key)
	}

	t.entry = Entry{
		Attempts:  t.entry.Attempts + 1,
		Timestamp: t.now().UnixMilli(),
	}
	entry, state := t.entry, t.stateLocked()
	t.mu.Unlock()

	return state, t.store.Save(ctx, t.key, entry)
}

// Reset clears the tracker and its persisted entry.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	t.entry = Entry{}
	t.mu.Unlock()
	return t.store.Delete(ctx, t.key)
}

// GuardOption adjusts how Guard records the outcome of fn.
type GuardOption func(*guardConfig)

type guardConfig struct {
	skip          func(error) bool
	success       func(error) bool
	onRecordError func(error)
}

// SkipRecord leaves the tracker untouched when skip reports true for the
// error of fn, e.g. for input rejected before any provider call.
func SkipRecord(skip func(error) bool) GuardOption {
	return func(c *guardConfig) { c.skip = skip }
}

// CountAsSuccess records errors for which ok reports true as successful
// attempts.
func CountAsSuccess(ok func(error) bool) GuardOption {
	return func(c *guardConfig) { c.success = ok }
}

// OnRecordError receives store failures instead of Guard joining them into
// its result.
func OnRecordError(fn func(error)) GuardOption {
	return func(c *guardConfig) { c.onRecordError = fn }
}

// Guard runs fn when no cooldown is running and records its outcome. It
// returns ErrLimited without calling fn otherwise.
//
// Example:
//
//	_, err := t.Guard(ctx, send,
//	    ratelimiter.SkipRecord(validator.IsValidationError),
//	    ratelimiter.OnRecordError(func(err error) { log.Error("record attempt", "err", err) }),
//	)
func (t *Tracker) Guard(ctx context.Context, fn func(context.Context) error, opts ...GuardOption) (State, error) {
	var cfg guardConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if !t.CanAttempt() {
		return t.State(), ErrLimited
	}
	fnErr := fn(ctx)
	if fnErr != nil && cfg.skip != nil && cfg.skip(fnErr) {
		return t.State(), fnErr
	}

	success := fnErr == nil || (cfg.success != nil && cfg.success(fnErr))
	state, err := t.RecordAttempt(ctx, success)
	if err != nil && cfg.onRecordError != nil {
		cfg.onRecordError(err)
		err = nil
	}
	if fnErr != nil {
		return state, errors.Join(fnErr, err)
	}
	return state, err
}

// Watch calls fn with the current state, then once per tick while the
// countdown is running. It returns when the countdown reaches zero or ctx is
// done.
func (t *Tracker) Watch(ctx context.Context, fn func(State)) {
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		s := t.State()
		fn(s)
		if s.Countdown == 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
