package lang

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePlayNote(t *testing.T) {
	ctx := NewContext(1)
	cmds := Parse(ctx, "play :c4, amp: 0.5, pan: -0.3")
	require.Len(t, cmds, 1)
	require.Equal(t, KindPlayNote, cmds[0].Kind)
	require.Equal(t, "c4", cmds[0].Note.Token)
	require.Equal(t, 0.5, cmds[0].Params["amp"])
	require.Equal(t, -0.3, cmds[0].Params["pan"])
}

func TestParseSynthForm(t *testing.T) {
	ctx := NewContext(1)
	cmds := Parse(ctx, "synth :fm, note: :e3, amp: 0.8")
	require.Len(t, cmds, 1)
	require.Equal(t, "fm", cmds[0].SynthName)
	require.Equal(t, "e3", cmds[0].Note.Token)
	require.Equal(t, 0.8, cmds[0].Params["amp"])
}

func TestParseChordExpandsToOnePlayNotePerInterval(t *testing.T) {
	ctx := NewContext(1)
	cmds := Parse(ctx, "play chord(:c4, :major)")
	require.Len(t, cmds, 3)
	for _, c := range cmds {
		require.Equal(t, KindPlayNote, c.Kind)
		require.True(t, c.Note.IsNumeric)
	}
}

func TestParseSampleAndSleep(t *testing.T) {
	ctx := NewContext(1)
	cmds := Parse(ctx, "use_bpm 120\nsample :bd_haus\nsleep 1\nsample :bd_haus\nsleep 1")
	require.Len(t, cmds, 5)
	require.Equal(t, KindSetBpm, cmds[0].Kind)
	require.Equal(t, 120.0, cmds[0].Value)
	require.Equal(t, KindPlaySample, cmds[1].Kind)
	require.Equal(t, "bd_haus", cmds[1].SampleExpr)
	require.Equal(t, KindSleep, cmds[2].Kind)
	require.Equal(t, 1.0, cmds[2].Beats)
}

func TestParseTrailingGuardDropsFalseDirective(t *testing.T) {
	ctx := NewContext(1)
	cmds := Parse(ctx, "sample :bd_haus, amp: 2 if false")
	require.Len(t, cmds, 0)
}

func TestParseTrailingGuardOneInOneAlwaysFires(t *testing.T) {
	ctx := NewContext(1)
	cmds := Parse(ctx, "sample :bd_haus, amp: 2 if one_in(1)")
	require.Len(t, cmds, 1)
	require.Equal(t, 2.0, cmds[0].Params["amp"])
}

func TestParseUseSynthDefaults(t *testing.T) {
	ctx := NewContext(1)
	cmds := Parse(ctx, "use_synth_defaults amp: 0.3, release: 2.0\nplay :c4")
	require.Len(t, cmds, 1)
	require.Equal(t, 0.3, cmds[0].Params["amp"])
	require.Equal(t, 2.0, cmds[0].Params["release"])
}

func TestParseLiveLoopWithStopFlagsStopInBody(t *testing.T) {
	ctx := NewContext(1)
	cmds := Parse(ctx, "live_loop :a do\nsample :bd_haus\nsleep 1\nstop\nend")
	require.Len(t, cmds, 1)
	require.Equal(t, KindLoop, cmds[0].Kind)
	require.True(t, cmds[0].Parallel)
	require.True(t, cmds[0].HasStopInBody)
}

func TestParseTimesLoop(t *testing.T) {
	ctx := NewContext(1)
	cmds := Parse(ctx, "2.times do\nplay :c4\nend")
	require.Len(t, cmds, 1)
	require.Equal(t, KindTimesLoop, cmds[0].Kind)
	require.Equal(t, 2, cmds[0].Count)
	require.Len(t, cmds[0].Body, 1)
}

func TestParseWithFx(t *testing.T) {
	ctx := NewContext(1)
	cmds := Parse(ctx, "with_fx :distortion, distort: 0.8 do\nplay :c4\nend")
	require.Len(t, cmds, 1)
	require.Equal(t, KindWithFx, cmds[0].Kind)
	require.Equal(t, "distortion", cmds[0].FxType)
	require.Equal(t, 0.8, cmds[0].FxParams["distort"])
}

func TestParseIfElsifElse(t *testing.T) {
	ctx := NewContext(1)
	cmds := Parse(ctx, "x = 5\nif x == 1\n  play :c4\nelsif x == 5\n  play :e4\nelse\n  play :g4\nend")
	// x = 5 assignment emits no Command; only the If node remains.
	require.Len(t, cmds, 1)
	require.Equal(t, KindIf, cmds[0].Kind)
	require.Len(t, cmds[0].Branches, 2)
	require.NotNil(t, cmds[0].Else)
}

func TestParseEachUnrollsEagerly(t *testing.T) {
	ctx := NewContext(1)
	cmds := Parse(ctx, "[:c4, :e4, :g4].each do |n|\nplay n\nend")
	require.Len(t, cmds, 3)
	require.Equal(t, "c4", cmds[0].Note.Token)
	require.Equal(t, "e4", cmds[1].Note.Token)
	require.Equal(t, "g4", cmds[2].Note.Token)
}

func TestParseDefineAndCallExpandsInline(t *testing.T) {
	ctx := NewContext(1)
	cmds := Parse(ctx, "define :riff do\nplay :c4\nplay :e4\nend\nriff")
	require.Len(t, cmds, 2)
	require.Equal(t, KindPlayNote, cmds[0].Kind)
	require.Equal(t, KindPlayNote, cmds[1].Kind)
}

func TestParseDefWithParamsBindsArgs(t *testing.T) {
	ctx := NewContext(1)
	cmds := Parse(ctx, "def beep(n)\nplay n\nend\nbeep(:e4)")
	require.Len(t, cmds, 1)
	require.Equal(t, "e4", cmds[0].Note.Token)
}

func TestParseUnknownDirectiveBecomesComment(t *testing.T) {
	ctx := NewContext(1)
	cmds := Parse(ctx, "this_is_not_a_real_directive 42")
	require.Len(t, cmds, 1)
	require.Equal(t, KindComment, cmds[0].Kind)
}

func TestParseNoOpDirectivesBecomeComment(t *testing.T) {
	ctx := NewContext(1)
	cmds := Parse(ctx, "cue :tick\nsync :tick\nmidi_note 60\nsample_duration 2")
	require.Len(t, cmds, 4)
	for _, c := range cmds {
		require.Equal(t, KindComment, c.Kind)
	}
}

func TestParsePlayPatternTimed(t *testing.T) {
	ctx := NewContext(1)
	cmds := Parse(ctx, "play_pattern_timed [:e2, :g2, :a2], [0.5, 0.5, 0.25]")
	require.Len(t, cmds, 1)
	require.Equal(t, KindTimesLoop, cmds[0].Kind)
	require.Len(t, cmds[0].Body, 6)
	require.Equal(t, KindPlayNote, cmds[0].Body[0].Kind)
	require.Equal(t, KindSleep, cmds[0].Body[1].Kind)
	require.Equal(t, 0.5, cmds[0].Body[1].Beats)
}

func TestResolveListScaleAndTick(t *testing.T) {
	ctx := NewContext(1)
	v := ResolveList(ctx, "scale(:c4, :major)")
	require.Equal(t, ValRing, v.Kind)
	require.Len(t, v.List, 8)
	first := v.Tick(ctx, "scale(:c4, :major)")
	second := v.Tick(ctx, "scale(:c4, :major)")
	require.Equal(t, v.List[0], first)
	require.Equal(t, v.List[1], second)
}

func TestResolveKnit(t *testing.T) {
	ctx := NewContext(1)
	v := ResolveList(ctx, "knit(:a, 3, :b, 1)")
	require.Equal(t, []string{"a", "a", "a", "b"}, v.List)
}

func TestResolveRangeAndLine(t *testing.T) {
	ctx := NewContext(1)
	r := ResolveList(ctx, "range(0, 10, 2)")
	require.Len(t, r.List, 5)
	l := ResolveList(ctx, "line(0, 1, steps: 5)")
	require.Len(t, l.List, 5)
}

func TestResolveSpreadEuclidean(t *testing.T) {
	ctx := NewContext(1)
	v := ResolveList(ctx, "spread(3, 8)")
	require.Len(t, v.List, 8)
	count := 0
	for _, tok := range v.List {
		if tok == "true" {
			count++
		}
	}
	require.Equal(t, 3, count)
}

func TestEvalBoolComparisons(t *testing.T) {
	ctx := NewContext(1)
	require.True(t, EvalBool(ctx, "3 > 2"))
	require.False(t, EvalBool(ctx, "3 < 2"))
	require.True(t, EvalBool(ctx, "true"))
}
