package lower

import (
	"testing"

	"github.com/cbegin/loopweave-go/internal/lang"
	"github.com/cbegin/loopweave-go/internal/mixer"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) Result {
	t.Helper()
	ctx := lang.NewContext(1)
	cmds := lang.Parse(ctx, src)
	return Lower(ctx, cmds, 60, nil)
}

// S1
func TestScenarioS1TwoSamplesHalfSecondApart(t *testing.T) {
	res := run(t, "use_bpm 120\nsample :bd_haus\nsleep 1\nsample :bd_haus\nsleep 1")
	var samples []Event
	for _, e := range res.Events {
		if e.Cmd.Kind == mixer.CmdPlaySample {
			samples = append(samples, e)
		}
	}
	require.Len(t, samples, 2)
	require.InDelta(t, 0.0, samples[0].TimeOffset, 1e-9)
	require.InDelta(t, 0.5, samples[1].TimeOffset, 1e-9)
}

// S2
func TestScenarioS2TwoNotesOneSecondApart(t *testing.T) {
	res := run(t, "use_bpm 60\nplay :c4\nsleep 1\nplay :e4")
	var notes []Event
	for _, e := range res.Events {
		if e.Cmd.Kind == mixer.CmdPlayNote {
			notes = append(notes, e)
		}
	}
	require.Len(t, notes, 2)
	require.InDelta(t, 0.0, notes[0].TimeOffset, 1e-9)
	require.InDelta(t, 261.63, notes[0].Cmd.Freq, 0.1)
	require.InDelta(t, 1.0, notes[1].TimeOffset, 1e-9)
	require.InDelta(t, 329.63, notes[1].Cmd.Freq, 0.1)
}

// S3 — parallel live_loops don't advance the outer clock.
func TestScenarioS3ParallelLoopsShareOuterClock(t *testing.T) {
	src := "use_bpm 120\n" +
		"live_loop :a do\nsample :bd_haus\nsleep 1\nstop\nend\n" +
		"live_loop :b do\nsample :sn_dub\nsleep 1\nstop\nend\n" +
		"sleep 4\n" +
		"live_loop :c do\nsample :perc_snap\nsleep 1\nstop\nend"
	res := run(t, src)
	var times []float64
	for _, e := range res.Events {
		if e.Cmd.Kind == mixer.CmdPlaySample {
			times = append(times, e.TimeOffset)
		}
	}
	require.Len(t, times, 3)
	require.InDelta(t, 0.0, times[0], 1e-9)
	require.InDelta(t, 0.0, times[1], 1e-9)
	require.InDelta(t, 2.0, times[2], 1e-9)
}

// S4
func TestScenarioS4TrailingGuardOneIn1(t *testing.T) {
	res := run(t, "sample :bd_haus, amp: 2 if one_in(1)")
	require.Len(t, res.Events, 1)
	require.Equal(t, 2.0, res.Events[0].Cmd.Amp)
}

// S5
func TestScenarioS5SynthDefaults(t *testing.T) {
	res := run(t, "use_synth_defaults amp: 0.3, release: 2.0\nplay :c4")
	var note Event
	for _, e := range res.Events {
		if e.Cmd.Kind == mixer.CmdPlayNote {
			note = e
		}
	}
	require.Equal(t, 0.3, note.Cmd.Amp)
	require.InDelta(t, 2.0, note.Cmd.Envelope.Release, 1e-9)
}

// S6
func TestScenarioS6RpitchDoublesRate(t *testing.T) {
	res := run(t, "sample :bd_haus, rpitch: 12")
	require.Len(t, res.Events, 1)
	require.InDelta(t, 2.0, res.Events[0].Cmd.Rate, 1e-6)
}

// S7
func TestScenarioS7DefineWithFxAndTimesLoop(t *testing.T) {
	src := "define :riff do\n" +
		" with_fx :distortion, distort: 0.8 do\n" +
		"   play_pattern_timed [:E2, :G2, :A2], [0.5, 0.5, 0.25]\n" +
		" end\n" +
		"end\n" +
		"riff\n" +
		"2.times do\n" +
		"  riff\n" +
		"end"
	res := run(t, src)
	var notes, fxStarts, fxEnds int
	for _, e := range res.Events {
		switch e.Cmd.Kind {
		case mixer.CmdPlayNote:
			notes++
		case mixer.CmdFxStart:
			fxStarts++
		case mixer.CmdFxEnd:
			fxEnds++
		}
	}
	require.Equal(t, 9, notes)
	require.Equal(t, 3, fxStarts)
	require.Equal(t, 3, fxEnds)
}

// Testable property 2: time_offset is monotonically non-decreasing.
func TestTimeOffsetsMonotonic(t *testing.T) {
	res := run(t, "use_bpm 90\nplay :c4\nsleep 0.5\nplay :e4\nsleep 0.25\nplay :g4\nsleep 1\nplay :c5")
	for i := 1; i < len(res.Events); i++ {
		require.LessOrEqual(t, res.Events[i-1].TimeOffset, res.Events[i].TimeOffset)
	}
}

// Testable property 3: parallel loops leave the outer clock unchanged.
func TestParallelLoopDoesNotAdvanceOuterClock(t *testing.T) {
	ctx := lang.NewContext(1)
	cmds := lang.Parse(ctx, "live_loop :a do\nsample :bd_haus\nsleep 2\nstop\nend\nplay :c4")
	res := Lower(ctx, cmds, 60, nil)
	var noteTime float64
	found := false
	for _, e := range res.Events {
		if e.Cmd.Kind == mixer.CmdPlayNote {
			noteTime = e.TimeOffset
			found = true
		}
	}
	require.True(t, found)
	require.InDelta(t, 0.0, noteTime, 1e-9)
}

// Testable property 4: sequential (parallel=false) loops advance the
// outer clock by N*duration(body).
func TestSequentialLoopAdvancesByIterationsTimesDuration(t *testing.T) {
	ctx := lang.NewContext(1)
	cmds := lang.Parse(ctx, "use_bpm 60\ndensity 3 do\nplay :c4\nsleep 1\nstop\nend\nplay :e4")
	res := Lower(ctx, cmds, 60, nil)
	var times []float64
	for _, e := range res.Events {
		if e.Cmd.Kind == mixer.CmdPlayNote {
			times = append(times, e.TimeOffset)
		}
	}
	require.Len(t, times, 2)
	// density's body contains Stop, so N=1 by the Stop rule; the second
	// play lands one beat (1s at 60bpm) after the loop's own body.
	require.InDelta(t, 1.0, times[1], 1e-9)
}

// cue/sync: a sync whose cue fired earlier in time than the current
// clock leaves the clock where it is; sync never moves t backward.
func TestSyncDoesNotMoveBackToEarlierCue(t *testing.T) {
	src := "use_bpm 60\n" +
		"sleep 2\n" +
		"cue :drop\n" +
		"play :c4\n" +
		"sleep 0.5\n" +
		"sync :drop\n" +
		"play :e4"
	res := run(t, src)
	var times []float64
	for _, e := range res.Events {
		if e.Cmd.Kind == mixer.CmdPlayNote {
			times = append(times, e.TimeOffset)
		}
	}
	require.Len(t, times, 2)
	require.InDelta(t, 2.0, times[0], 1e-9)
	// the cue fired at 2.0, before the current clock of 2.5 (sleep 2 +
	// play + sleep 0.5), so sync leaves the second play at 2.5.
	require.InDelta(t, 2.5, times[1], 1e-9)
}

// sync for a name with no matching cue is a no-op: it leaves t unchanged.
func TestSyncWithoutMatchingCueIsNoop(t *testing.T) {
	res := run(t, "use_bpm 60\nsleep 1\nsync :never_fired\nplay :c4")
	var noteTime float64
	for _, e := range res.Events {
		if e.Cmd.Kind == mixer.CmdPlayNote {
			noteTime = e.TimeOffset
		}
	}
	require.InDelta(t, 1.0, noteTime, 1e-9)
}

func TestOverlayEffectParamsChorusDefaultsAndOverrides(t *testing.T) {
	base := mixer.EffectParams{}
	out := overlayEffectParams(base, "chorus", map[string]float64{"rate": 2.5})
	require.Equal(t, "chorus", out.ExtraType)
	require.InDelta(t, float32(15), out.ChorusDelayMs, 1e-6)
	require.InDelta(t, float32(2.5), out.ChorusRateHz, 1e-6)
}

func TestOverlayEffectParamsCompressorDefaultsAndOverrides(t *testing.T) {
	base := mixer.EffectParams{}
	out := overlayEffectParams(base, "compressor", map[string]float64{"threshold": -6, "ratio": 10})
	require.Equal(t, "compressor", out.ExtraType)
	require.InDelta(t, float32(-6), out.CompThresholdDB, 1e-6)
	require.InDelta(t, float32(10), out.CompRatio, 1e-6)
	require.InDelta(t, float32(10), out.CompAttackMs, 1e-6)
}

func TestUnstoppedLiveLoopStaysWithinEventCap(t *testing.T) {
	ctx := lang.NewContext(1)
	cmds := lang.Parse(ctx, "live_loop :a do\nplay :c4\nsleep 0.001\nend")
	res := Lower(ctx, cmds, 60, nil)
	require.LessOrEqual(t, len(res.Events), maxEvents)
}
