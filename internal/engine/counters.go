package engine

import "sync/atomic"

// Counters tracks session progress. All fields are mutated with atomic
// increments only; no lock is ever held around them.
type Counters struct {
	Queued    atomic.Int64 // descriptors offered to the queue
	InFlight  atomic.Int64 // descriptors currently being probed
	Completed atomic.Int64 // descriptors fully processed
	Accepted  atomic.Int64 // outcomes that became Findings
	Filtered  atomic.Int64 // outcomes rejected by the acceptor
	Errors    atomic.Int64 // terminal probe errors (diagnostics)
	Skipped   atomic.Int64 // wordlist entries invalid for the mode
}

// Snapshot is a point-in-time copy of the counters, safe to hand to a
// progress consumer.
type Snapshot struct {
	Queued    int64
	InFlight  int64
	Completed int64
	Accepted  int64
	Filtered  int64
	Errors    int64
	Skipped   int64
}

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Queued:    c.Queued.Load(),
		InFlight:  c.InFlight.Load(),
		Completed: c.Completed.Load(),
		Accepted:  c.Accepted.Load(),
		Filtered:  c.Filtered.Load(),
		Errors:    c.Errors.Load(),
		Skipped:   c.Skipped.Load(),
	}
}
