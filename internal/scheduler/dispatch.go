// Package scheduler implements the dispatch scheduler (spec.md component
// H): it takes a lowered, time-sorted event list and plays it out in
// real time against a target sink, using a session-epoch mechanism for
// cancellation instead of any cross-thread interrupt (, §5
// "Session epoch ordering", §9 "Session epoch").
package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cbegin/loopweave-go/internal/lower"
)

// spinWindow is how close to the target time the worker switches from
// coarse sleeping to a busy spin.H step 2.
const spinWindow = 18 * time.Millisecond

// coarseThreshold is the minimum remaining wait before a coarse sleep is
// worth its own wakeup latency; below it the worker spins immediately.
const coarseThreshold = 20 * time.Millisecond

// Scheduler owns the session epoch: every call to Run (and every
// explicit Stop) bumps it, and in-flight workers from a prior run
// observe the bump and self-terminate at their next per-event check
//.
type Scheduler struct {
	mu    sync.Mutex
	epoch int64
	log   zerolog.Logger
}

// New returns a Scheduler that logs dropped/failed sends through log.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{log: log}
}

// Stop bumps the session epoch and returns the new value. Always
// succeeds (
// epoch").
func (s *Scheduler) Stop() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	return s.epoch
}

// CurrentEpoch returns the epoch value in effect right now.
func (s *Scheduler) CurrentEpoch() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// observedStale reports whether runEpoch has since been superseded by a
// later Stop/Run.
func (s *Scheduler) observedStale(runEpoch int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch != runEpoch
}

// EventSender is implemented by the dispatch target: the in-process
// mixer's Send(mixer.Command) error, or the external bridge's
// translate-and-send equivalent.
type EventSender func(ev lower.Event) error

// Run bumps the session epoch (cancelling any in-flight worker from a
// prior run) and launches a new worker goroutine that dispatches events
// in time order, treating its own spawn time as t=0. It returns
// immediately with the epoch this run is running under.
func (s *Scheduler) Run(events []lower.Event, send EventSender) int64 {
	runEpoch := s.Stop()
	start := time.Now()
	sorted := make([]lower.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimeOffset < sorted[j].TimeOffset
	})
	go s.work(runEpoch, start, sorted, send)
	return runEpoch
}

func (s *Scheduler) work(runEpoch int64, start time.Time, events []lower.Event, send EventSender) {
	enableTimerResolution()
	defer restoreTimerResolution()

	for _, ev := range events {
		if s.observedStale(runEpoch) {
			return
		}
		target := start.Add(time.Duration(ev.TimeOffset * float64(time.Second)))
		for {
			if s.observedStale(runEpoch) {
				return
			}
			wait := time.Until(target)
			if wait <= 0 {
				break
			}
			if wait > coarseThreshold {
				time.Sleep(wait - spinWindow)
				continue
			}
			// Busy spin the last stretch; re-checked each pass so a Stop
			// lands within one iteration even mid-spin.
		}
		if err := send(ev); err != nil {
			s.log.Warn().Err(err).Float64("time_offset", ev.TimeOffset).Msg("scheduler: dropped event")
		}
	}
}
