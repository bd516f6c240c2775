// Package ratelimiter tracks failed attempts of user-triggered actions such as
// "resend confirmation code" and enforces an escalating cooldown between them.
//
// A Tracker owns the state of one action key. Each failed attempt is recorded
// with a wall-clock timestamp; the cooldown after the n-th failure is taken
// from Policy.Cooldowns, and once the attempt count reaches
// Policy.MaxAttempts the longer Policy.Lockout applies. The remaining cooldown
// is always derived from the stored timestamp, so a tracker rebuilt from the
// store on the next request sees the same countdown.
//
// Entries are persisted through a Store:
//
//   - MemoryStore keeps entries in process, with periodic cleanup.
//   - RedisStore shares entries between instances; keys expire after the
//     policy staleness window.
//   - CookieStore keeps the entry in a signed cookie on the browser that made
//     the attempt, one cookie per action.
//
// Entries older than Policy.Staleness are discarded on load.
//
//	tr := ratelimiter.NewTracker("resend-signup-code", store)
//	if err := tr.Load(ctx); err != nil { ... }
//	if !tr.CanAttempt() {
//	    return tr.State().Countdown
//	}
//	err := resend()
//	tr.RecordAttempt(ctx, err == nil)
package ratelimiter
