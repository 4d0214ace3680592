package decoder

import "sync/atomic"

// Stats counts check and summary events dispatched and dump requests
// actually sent. It is the only mutable state the Decoder itself carries
// across invocations — everything else lives in the store, per the
// decoder's stateless-between-events invariant. No handler increments
// storeErrors, so StoreErrors in a snapshot always reads zero.
type Stats struct {
	checksProcessed     uint64
	summariesProcessed  uint64
	dumpsPushed         uint64
	storeErrors         uint64
}

func (s *Stats) incChecks()     { atomic.AddUint64(&s.checksProcessed, 1) }
func (s *Stats) incSummaries()  { atomic.AddUint64(&s.summariesProcessed, 1) }
func (s *Stats) incDumps()      { atomic.AddUint64(&s.dumpsPushed, 1) }
func (s *Stats) incStoreErrors() { atomic.AddUint64(&s.storeErrors, 1) }

// StatsSnapshot is a point-in-time read of Stats.
type StatsSnapshot struct {
	ChecksProcessed    uint64
	SummariesProcessed uint64
	DumpsPushed        uint64
	StoreErrors        uint64
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		ChecksProcessed:    atomic.LoadUint64(&s.checksProcessed),
		SummariesProcessed: atomic.LoadUint64(&s.summariesProcessed),
		DumpsPushed:        atomic.LoadUint64(&s.dumpsPushed),
		StoreErrors:        atomic.LoadUint64(&s.storeErrors),
	}
}
