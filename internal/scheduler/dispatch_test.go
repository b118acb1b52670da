package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/loopweave-go/internal/lower"
	"github.com/cbegin/loopweave-go/internal/mixer"
)

// Testable property 5: after Stop, the current epoch strictly exceeds
// every prior epoch, and a worker spawned under a prior epoch observes
// the bump and terminates before dispatching its next event.
func TestStopBumpsEpochMonotonically(t *testing.T) {
	s := New(zerolog.Nop())
	e1 := s.Stop()
	e2 := s.Stop()
	e3 := s.CurrentEpoch()
	require.Greater(t, e2, e1)
	require.Equal(t, e2, e3)
}

func TestRunDispatchesInTimeOrder(t *testing.T) {
	s := New(zerolog.Nop())
	events := []lower.Event{
		{TimeOffset: 0.02, Cmd: mixer.Command{Kind: mixer.CmdPlayNote, Freq: 2}},
		{TimeOffset: 0, Cmd: mixer.Command{Kind: mixer.CmdPlayNote, Freq: 1}},
	}
	var got []float64
	done := make(chan struct{})
	count := int32(0)
	send := func(ev lower.Event) error {
		got = append(got, ev.Cmd.Freq)
		if atomic.AddInt32(&count, 1) == int32(len(events)) {
			close(done)
		}
		return nil
	}
	s.Run(events, send)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatch")
	}
	require.Equal(t, []float64{1, 2}, got)
}

// A second Run bumps the epoch out from under the first, so the first
// worker must stop sending once it observes the bump.
func TestSecondRunCancelsFirst(t *testing.T) {
	s := New(zerolog.Nop())
	firstEvents := []lower.Event{
		{TimeOffset: 0.5, Cmd: mixer.Command{Kind: mixer.CmdPlayNote}},
	}
	var firstSent int32
	s.Run(firstEvents, func(ev lower.Event) error {
		atomic.AddInt32(&firstSent, 1)
		return nil
	})

	secondEvents := []lower.Event{
		{TimeOffset: 0, Cmd: mixer.Command{Kind: mixer.CmdPlayNote}},
	}
	done := make(chan struct{})
	s.Run(secondEvents, func(ev lower.Event) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second run never dispatched")
	}

	time.Sleep(700 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&firstSent))
}

func TestSendErrorIsLoggedNotFatal(t *testing.T) {
	s := New(zerolog.Nop())
	events := []lower.Event{{TimeOffset: 0, Cmd: mixer.Command{Kind: mixer.CmdPlayNote}}}
	done := make(chan struct{})
	s.Run(events, func(ev lower.Event) error {
		close(done)
		return mixer.ErrQueueFull
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event was never dispatched")
	}
}
