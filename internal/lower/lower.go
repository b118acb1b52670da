// Package lower implements the lowering pass: it
// walks the parsed internal/lang tree with a mutable time_offset and
// current BPM, producing a flat, time-sorted sequence of realtime mixer
// commands that internal/scheduler can dispatch against a real clock.
package lower

import (
	"math"
	"sort"
	"strings"

	"github.com/cbegin/loopweave-go/internal/lang"
	"github.com/cbegin/loopweave-go/internal/mixer"
	"github.com/cbegin/loopweave-go/internal/primitives"
	"github.com/cbegin/loopweave-go/internal/sample"
	"github.com/cbegin/loopweave-go/internal/voice"
)

// maxEvents is the lowered-event safety cap (, §5 "Resource
// caps").
const maxEvents = 100000

// maxLiveLoopIterations is the live_loop/in_thread (and, by the same
// Stop rule, any other loop construct) expansion cap (,
// §5).
const maxLiveLoopIterations = 500

// Event is one scheduled realtime command at an absolute time offset in
// seconds from the run's t=0 (, command)"
// pairs).
type Event struct {
	TimeOffset float64
	Cmd        mixer.Command
}

// Result bundles a run's lowered schedule with the side-channel output
// the "run-code" runtime control returns to the caller.
type Result struct {
	Events          []Event
	Logs            []string
	EffectiveBpm    float64
	DurationEstim   float64
	EventCapHit     bool
	IterationsCapHit bool
}

type state struct {
	ctx           *lang.Context
	store         *sample.Store
	bpm           float64
	events        []Event
	logs          []string
	cues          map[string]float64
	currentEffect mixer.EffectParams
	capped        bool
	iterCapped    bool
}

// Lower runs the lowering pass over a parsed command tree, starting at
// the given BPM, resolving PlaySample references through store. The
// returned Result's Events are stably sorted by TimeOffset (
// "Ordering guarantee").
func Lower(ctx *lang.Context, cmds []lang.Command, startBpm float64, store *sample.Store) Result {
	if startBpm <= 0 {
		startBpm = 60
	}
	s := &state{ctx: ctx, store: store, bpm: startBpm, cues: make(map[string]float64)}
	tEnd := s.lowerSeq(cmds, 0)
	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[i].TimeOffset < s.events[j].TimeOffset
	})
	return Result{
		Events:           s.events,
		Logs:             s.logs,
		EffectiveBpm:     s.bpm,
		DurationEstim:    tEnd,
		EventCapHit:      s.capped,
		IterationsCapHit: s.iterCapped,
	}
}

func (s *state) beatDuration() float64 { return 60 / s.bpm }

func (s *state) emit(t float64, cmd mixer.Command) {
	if s.capped {
		return
	}
	s.events = append(s.events, Event{TimeOffset: t, Cmd: cmd})
	if len(s.events) >= maxEvents {
		s.capped = true
	}
}

// lowerSeq lowers one command list sequentially starting at t0,
// returning the time offset after the list's own duration. A Stop
// command terminates lowering of the remainder of this list only
// (
// of the enclosing command list").
func (s *state) lowerSeq(cmds []lang.Command, t0 float64) float64 {
	t := t0
	for _, c := range cmds {
		if s.capped {
			break
		}
		if c.Kind == lang.KindStop {
			break
		}
		t = s.lowerOne(c, t)
	}
	return t
}

func (s *state) lowerOne(c lang.Command, t float64) float64 {
	switch c.Kind {
	case lang.KindPlayNote:
		s.lowerPlayNote(c, t)
		return t
	case lang.KindPlaySample:
		s.lowerPlaySample(c, t)
		return t
	case lang.KindSleep:
		return t + c.Beats*s.beatDuration()
	case lang.KindSetBpm:
		s.bpm = c.Value
		s.emit(t, mixer.Command{Kind: mixer.CmdSetBpm, Value: c.Value})
		return t
	case lang.KindSetVolume:
		s.emit(t, mixer.Command{Kind: mixer.CmdSetMasterVolume, Value: c.Value})
		return t
	case lang.KindSetSynth:
		// Already baked into each PlayNote's SynthName at parse time; no
		// runtime event needed.
		return t
	case lang.KindWithSynth:
		return s.lowerSeq(c.Body, t)
	case lang.KindWithBpm:
		prev := s.bpm
		s.bpm = c.Value
		tEnd := s.lowerSeq(c.Body, t)
		s.bpm = prev
		return tEnd
	case lang.KindWithFx:
		return s.lowerWithFx(c, t)
	case lang.KindLoop:
		return s.lowerLoop(c, t)
	case lang.KindTimesLoop:
		return s.lowerTimesLoop(c, t)
	case lang.KindIf:
		return s.lowerIf(c, t)
	case lang.KindLog:
		s.logs = append(s.logs, c.Text)
		return t
	case lang.KindComment:
		return s.handleCueSync(c.Text, t)
	case lang.KindStop:
		return t
	}
	return t
}

func (s *state) lowerPlayNote(c lang.Command, t float64) {
	freq := primitives.ResolveNoteToken(c.Note.Token, c.Note.Numeric, c.Note.IsNumeric)
	p := c.Params
	amp := getParam(p, "amp", 1)
	pan := getParam(p, "pan", 0)
	durBeats := getParam(p, "sustain", getParam(p, "duration", 1))
	attackBeats := getParam(p, "attack", 0)
	decayBeats := getParam(p, "decay", 0)
	releaseBeats := getParam(p, "release", 0)
	sustainLevel := getParam(p, "sustain_level", 1)
	bd := s.beatDuration()
	s.emit(t, mixer.Command{
		Kind:     mixer.CmdPlayNote,
		OscKind:  voice.KindFromName(c.SynthName),
		Freq:     freq,
		Amp:      amp,
		Pan:      pan,
		Duration: durBeats * bd,
		Envelope: primitives.Envelope{
			Attack:  attackBeats * bd,
			Decay:   decayBeats * bd,
			Sustain: sustainLevel,
			Release: releaseBeats * bd,
		},
	})
}

func (s *state) lowerPlaySample(c lang.Command, t float64) {
	var buf *sample.Buffer
	if s.store != nil {
		buf, _ = s.store.Resolve(c.SampleExpr)
	}
	p := c.Params
	amp := getParam(p, "amp", 1)
	pan := getParam(p, "pan", 0)
	rate := getParam(p, "rate", 1)
	if rp, ok := p["rpitch"]; ok {
		rate = math.Pow(2, rp/12)
	}
	// beat_stretch is accepted but intentionally not applied (
	// open question: would require sample-duration knowledge threaded
	// from the store back into the parser).
	s.emit(t, mixer.Command{
		Kind:   mixer.CmdPlaySample,
		Buffer: buf,
		Rate:   rate,
		Amp:    amp,
		Pan:    pan,
	})
}

// lowerWithFx emits the FxStart/SetEffect bracket, lowers the body at
// the same time_offset, then emits FxEnd and a restoring SetEffect
//.
func (s *state) lowerWithFx(c lang.Command, t float64) float64 {
	prev := s.currentEffect
	next := overlayEffectParams(prev, c.FxType, c.FxParams)
	s.currentEffect = next
	s.emit(t, mixer.Command{Kind: mixer.CmdFxStart})
	s.emit(t, mixer.Command{Kind: mixer.CmdSetEffect, Effect: next})
	tEnd := s.lowerSeq(c.Body, t)
	s.emit(tEnd, mixer.Command{Kind: mixer.CmdFxEnd})
	s.emit(tEnd, mixer.Command{Kind: mixer.CmdSetEffect, Effect: prev})
	s.currentEffect = prev
	return tEnd
}

func (s *state) lowerLoop(c lang.Command, t float64) float64 {
	n := maxLiveLoopIterations
	if c.HasStopInBody {
		n = 1
	}
	if c.Parallel {
		// Parallel loops share the outer clock but do not advance it
		//.
		tLocal := t
		for i := 0; i < n; i++ {
			if s.capped {
				break
			}
			if i == maxLiveLoopIterations-1 {
				s.iterCapped = true
			}
			tLocal = s.lowerSeq(c.Body, tLocal)
			if c.HasStopInBody {
				break
			}
		}
		return t
	}
	// Sequential loop (density, uncomment, bare `loop do`): advances the
	// outer clock by N iterations' sequential duration (
	// testable property 4).
	tCur := t
	for i := 0; i < n; i++ {
		if s.capped {
			break
		}
		if i == maxLiveLoopIterations-1 {
			s.iterCapped = true
		}
		tCur = s.lowerSeq(c.Body, tCur)
		if c.HasStopInBody {
			break
		}
	}
	return tCur
}

func (s *state) lowerTimesLoop(c lang.Command, t float64) float64 {
	n := c.Count
	if n < 0 {
		n = 0
	}
	tCur := t
	for i := 0; i < n; i++ {
		if s.capped {
			break
		}
		tCur = s.lowerSeq(c.Body, tCur)
	}
	return tCur
}

// lowerIf reuses EvalBool for both the parse-time trailing-guard path
// and this lowering-time if/elsif/else path, per the grounding ledger's
// decision that the two forms share one evaluator.
func (s *state) lowerIf(c lang.Command, t float64) float64 {
	for _, b := range c.Branches {
		ok := lang.EvalBool(s.ctx, b.Cond)
		if b.Negate {
			ok = !ok
		}
		if ok {
			return s.lowerSeq(b.Body, t)
		}
	}
	if c.Else != nil {
		return s.lowerSeq(c.Else, t)
	}
	return t
}

// handleCueSync implements the named-barrier registry for `cue`/`sync`:
// cue records the firing time_offset under its symbol name; sync looks
// the symbol up and advances the local clock forward to it. Lowering is a
// single static pass over source order, so a sync can only observe a cue
// that was already lowered earlier in the same pass — it never moves t
// backward, and a sync for an unseen name is a no-op at the current t.
func (s *state) handleCueSync(text string, t float64) float64 {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "cue"):
		name := cueSymbol(strings.TrimPrefix(text, "cue"))
		if name != "" {
			s.cues[name] = t
		}
	case strings.HasPrefix(text, "sync"):
		name := cueSymbol(strings.TrimPrefix(text, "sync"))
		if fireTime, ok := s.cues[name]; ok && fireTime > t {
			return fireTime
		}
	}
	return t
}

func cueSymbol(rest string) string {
	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, "(")
	rest = strings.TrimSuffix(rest, ")")
	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, ":")
	return rest
}

func getParam(p map[string]float64, key string, def float64) float64 {
	if p == nil {
		return def
	}
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// overlayEffectParams folds a with_fx block's named parameters onto the
// currently active global effect chain (, §9 "Effect
// scoping": the in-process engine approximates per-block fx buses with
// one global chain whose changes are undone at block exit).
func overlayEffectParams(base mixer.EffectParams, fxType string, params map[string]float64) mixer.EffectParams {
	out := base
	switch fxType {
	case "distortion":
		if v, ok := params["distort"]; ok {
			out.DistortionAmount = float32(v)
		}
	case "lpf":
		if v, ok := params["cutoff"]; ok {
			out.LPFCutoff = float32(v)
		}
	case "hpf":
		if v, ok := params["cutoff"]; ok {
			out.HPFCutoff = float32(v)
		}
	case "echo", "delay":
		if v, ok := params["delay_ms"]; ok {
			out.DelayMs = float32(v)
		}
		if v, ok := params["feedback"]; ok {
			out.DelayFeedback = float32(v)
		}
		if v, ok := params["cross"]; ok {
			out.DelayCross = float32(v)
		}
		if v, ok := params["mix"]; ok {
			out.DelayWet = float32(v)
		} else {
			out.DelayWet = 1
		}
	case "reverb":
		if v, ok := params["mix"]; ok {
			out.ReverbWet = float32(v)
		} else {
			out.ReverbWet = 1
		}
	case "chorus":
		out.ExtraType = fxType
		out.ChorusDelayMs, out.ChorusFeedback = 15, 0.3
		out.ChorusDepthMs, out.ChorusRateHz, out.ChorusWet = 4, 1.0, 0.5
		if v, ok := params["delay_ms"]; ok {
			out.ChorusDelayMs = float32(v)
		}
		if v, ok := params["feedback"]; ok {
			out.ChorusFeedback = float32(v)
		}
		if v, ok := params["depth_ms"]; ok {
			out.ChorusDepthMs = float32(v)
		}
		if v, ok := params["rate"]; ok {
			out.ChorusRateHz = float32(v)
		}
		if v, ok := params["mix"]; ok {
			out.ChorusWet = float32(v)
		}
	case "compressor":
		out.ExtraType = fxType
		out.CompThresholdDB, out.CompRatio = -18, 4
		out.CompAttackMs, out.CompReleaseMs, out.CompMakeupDB = 10, 100, 3
		if v, ok := params["threshold"]; ok {
			out.CompThresholdDB = float32(v)
		}
		if v, ok := params["ratio"]; ok {
			out.CompRatio = float32(v)
		}
		if v, ok := params["attack"]; ok {
			out.CompAttackMs = float32(v)
		}
		if v, ok := params["release"]; ok {
			out.CompReleaseMs = float32(v)
		}
		if v, ok := params["makeup"]; ok {
			out.CompMakeupDB = float32(v)
		}
	case "ring_eq", "ring_mod":
		out.ExtraType = "ring_eq"
	}
	return out
}
