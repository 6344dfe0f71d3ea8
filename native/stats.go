package native

import "sync/atomic"

// outstanding counts live allocations across every Client in the process.
var outstanding atomic.Int64

// Outstanding returns the number of allocations made by any Client in this
// process that have not been freed. It is meant for diagnostics and leak
// checks, not for control flow.
func Outstanding() int64 {
	return outstanding.Load()
}

// Stats is a snapshot of a Client's counters.
type Stats struct {
	Name             string `json:"name"`
	Allocations      uint64 `json:"allocations"`
	Frees            uint64 `json:"frees"`
	RefusedFrees     uint64 `json:"refused_frees"`
	Failures         uint64 `json:"failures"`
	Outstanding      int64  `json:"outstanding"`
	OutstandingBytes int64  `json:"outstanding_bytes"`
}

type clientStats struct {
	allocations atomic.Uint64
	frees       atomic.Uint64
	refused     atomic.Uint64
	failures    atomic.Uint64
	live        atomic.Int64
	liveBytes   atomic.Int64
}

func (s *clientStats) allocated(bytes uint64) {
	s.allocations.Add(1)
	s.live.Add(1)
	s.liveBytes.Add(int64(bytes))
	outstanding.Add(1)
}

func (s *clientStats) freed(bytes uint64) {
	s.frees.Add(1)
	s.live.Add(-1)
	s.liveBytes.Add(-int64(bytes))
	outstanding.Add(-1)
}

// Stats returns a snapshot of c's counters.
func (c *Client) Stats() Stats {
	return Stats{
		Name:             c.name,
		Allocations:      c.stats.allocations.Load(),
		Frees:            c.stats.frees.Load(),
		RefusedFrees:     c.stats.refused.Load(),
		Failures:         c.stats.failures.Load(),
		Outstanding:      c.stats.live.Load(),
		OutstandingBytes: c.stats.liveBytes.Load(),
	}
}
