package voice

import (
	"math"
	"math/rand"

	"github.com/cbegin/loopweave-go/internal/primitives"
)

// maxUnison is the number of detuned saws summed by SuperSaw/TechSaw kinds.
const maxUnison = 7

// SynthVoice owns every kind's per-voice DSP state. A
// single struct carries the superset of state needed by all ~35 kinds;
// only the fields relevant to the active Kind are touched at render time.
type SynthVoice struct {
	Kind       Kind
	BaseFreq   float64
	BaseAmp    float64
	SampleRate float64
	Pan        float64
	Envelope   primitives.Envelope
	Duration   float64 // sustain duration in seconds, excluding env ramps

	elapsedSamples int
	active         bool

	// Oscillator phases: up to maxUnison for unison voices, plus a
	// dedicated 2nd phase for detune/sub companions.
	phases      [maxUnison]float64
	phase2      float64
	pulseWidth  float64

	// FM state.
	fmModPhase float64
	fmIndex    float64
	fmRatio    float64

	// SVF filter state (acid sweep, pads, blade, hollow/dark).
	filter svf

	// Karplus-Strong pluck.
	pluck *karplus

	// Colored noise.
	noise noiseState

	// Additive (piano/bell) partial phases.
	partials [6]float64

	// sweepLFO drives the slow timbral sweeps in zawa, hollow/dark, and
	// growl. tremLFO is a dedicated sine oscillator for the mod_* kinds'
	// tremolo, kept separate since its waveform is fixed by spec rather
	// than shared with the sweep shape.
	sweepLFO modulationLFO
	tremLFO  modulationLFO

	// Chip quantization step count (3 or 4 bit).
	chipSteps int
	chipHoldSample float64
	chipHoldCounter int
}

// NewSynthVoice constructs a voice ready to render baseFreq at sampleRate
// for the given sustain duration, with env applied on top.
func NewSynthVoice(kind Kind, baseFreq, baseAmp float64, sampleRate float64, duration float64, env primitives.Envelope, pan float64) *SynthVoice {
	v := &SynthVoice{
		Kind:       kind,
		BaseFreq:   baseFreq,
		BaseAmp:    baseAmp,
		SampleRate: sampleRate,
		Pan:        pan,
		Envelope:   env,
		Duration:   duration,
		active:     true,
		pulseWidth: 0.5,
		fmRatio:    2.0,
		fmIndex:    3.0,
		chipSteps:  16,
	}
	v.noise = newNoiseState(rand.Uint32())
	switch kind {
	case KindPluck:
		v.pluck = newKarplus(sampleRate, baseFreq)
	case KindChipSquare, KindChipSaw, KindChipTriangle, KindChipNoise:
		v.chipSteps = 16
	}
	v.sweepLFO.set(1.0, 6.0, waveTriangle)
	v.tremLFO.set(1.0, 6.0, waveSine)
	for i := range v.phases {
		v.phases[i] = rand.Float64()
	}
	return v
}

// Active reports whether the voice has not yet been retired.
func (v *SynthVoice) Active() bool { return v.active }

// TotalSeconds is the full voice lifetime per spec invariant 2.
func (v *SynthVoice) TotalSeconds() float64 { return v.Envelope.Total(v.Duration) }

// Render produces one sample (pre-pan, pre-effect) and advances internal
// state by one sample. It retires the voice once elapsed >= total.
func (v *SynthVoice) Render() float32 {
	if !v.active {
		return 0
	}
	elapsed := float64(v.elapsedSamples) / v.SampleRate
	total := v.TotalSeconds()
	if elapsed >= total {
		v.active = false
		return 0
	}
	env := v.Envelope.Value(elapsed, total)
	sample := v.renderKind(elapsed)
	v.elapsedSamples++
	return float32(sample * env * v.BaseAmp)
}

func (v *SynthVoice) dt() float64 {
	if v.SampleRate <= 0 {
		return 0
	}
	return v.BaseFreq / v.SampleRate
}

func (v *SynthVoice) renderKind(elapsed float64) float64 {
	switch v.Kind {
	case KindSine:
		return v.sine(v.BaseFreq, &v.phases[0])
	case KindSaw:
		dt := v.dt()
		v.phases[0] = advancePhase(v.phases[0], dt)
		return blepSaw(v.phases[0], dt)
	case KindSquare:
		dt := v.dt()
		v.phases[0] = advancePhase(v.phases[0], dt)
		return blepPulse(v.phases[0], dt, 0.5)
	case KindTriangle:
		dt := v.dt()
		v.phases[0] = advancePhase(v.phases[0], dt)
		return 2*math.Abs(2*v.phases[0]-1) - 1
	case KindPulse:
		dt := v.dt()
		v.phases[0] = advancePhase(v.phases[0], dt)
		return blepPulse(v.phases[0], dt, v.pulseWidthOrDefault())
	case KindSawDetuned:
		return v.detunedPair(blepSaw)
	case KindSquareDetuned:
		return v.detunedPair(func(p, dt float64) float64 { return blepPulse(p, dt, 0.5) })
	case KindSuperSaw, KindTechSaw:
		return v.superSaw()
	case KindFM:
		return v.fm()
	case KindModSaw:
		return v.modulated(blepSaw)
	case KindModSquare:
		return v.modulated(func(p, dt float64) float64 { return blepPulse(p, dt, 0.5) })
	case KindModPulse:
		return v.modulated(func(p, dt float64) float64 { return blepPulse(p, dt, v.pulseWidthOrDefault()) })
	case KindModSine:
		return v.modulated(func(p, dt float64) float64 { return math.Sin(p * twoPi) })
	case KindTB303:
		return v.tb303(elapsed)
	case KindProphet:
		return v.prophet()
	case KindZawa:
		return v.zawa()
	case KindBlade:
		return v.blade()
	case KindHoover:
		return v.hoover()
	case KindGrowl:
		return v.growl()
	case KindPluck:
		if v.pluck == nil {
			v.pluck = newKarplus(v.SampleRate, v.BaseFreq)
		}
		return v.pluck.next()
	case KindPiano:
		return v.additive(6, 0.82)
	case KindBell:
		return v.additive(6, 0.6)
	case KindHollow:
		return v.hollowDark(1200)
	case KindDark:
		return v.hollowDark(400)
	case KindChipSquare:
		return quantizeChip(v.chipSquareSaw(0.5), v.chipSteps)
	case KindChipSaw:
		return quantizeChip(v.chipSquareSaw(0), v.chipSteps)
	case KindChipTriangle:
		dt := v.dt()
		v.phases[0] = advancePhase(v.phases[0], dt)
		return quantizeChip(2*math.Abs(2*v.phases[0]-1)-1, v.chipSteps)
	case KindChipNoise:
		return v.chipNoise()
	case KindNoiseWhite:
		return v.noise.white()
	case KindNoiseBrown:
		return v.noise.brown()
	case KindNoisePink:
		return v.noise.pink()
	case KindNoiseGrey:
		return v.noise.grey()
	case KindNoiseClip:
		return v.noise.clip()
	case KindSub:
		return v.sine(v.BaseFreq/2, &v.phases[0])
	default:
		return v.sine(v.BaseFreq, &v.phases[0])
	}
}

func (v *SynthVoice) pulseWidthOrDefault() float64 {
	if v.pulseWidth <= 0 || v.pulseWidth >= 1 {
		return 0.5
	}
	return v.pulseWidth
}

func (v *SynthVoice) sine(freq float64, phase *float64) float64 {
	dt := freq / v.SampleRate
	*phase = advancePhase(*phase, dt)
	return math.Sin(*phase * twoPi)
}

func (v *SynthVoice) detunedPair(gen func(phase, dt float64) float64) float64 {
	dt1 := v.dt()
	dt2 := v.BaseFreq * 1.005 / v.SampleRate
	v.phases[0] = advancePhase(v.phases[0], dt1)
	v.phase2 = advancePhase(v.phase2, dt2)
	return 0.5 * (gen(v.phases[0], dt1) + gen(v.phase2, dt2))
}

// superSaw sums maxUnison detuned band-limited saws, spread symmetrically
// around the base frequency.
func (v *SynthVoice) superSaw() float64 {
	const spread = 0.02
	var sum float64
	for i := 0; i < maxUnison; i++ {
		detune := 1.0 + spread*(float64(i)/float64(maxUnison-1)-0.5)
		f := v.BaseFreq * detune
		dt := f / v.SampleRate
		v.phases[i] = advancePhase(v.phases[i], dt)
		sum += blepSaw(v.phases[i], dt)
	}
	return sum / maxUnison
}

func (v *SynthVoice) fm() float64 {
	modDt := v.BaseFreq * v.fmRatio / v.SampleRate
	v.fmModPhase = advancePhase(v.fmModPhase, modDt)
	modVal := math.Sin(v.fmModPhase * twoPi)
	carrierDt := v.dt()
	v.phases[0] = advancePhase(v.phases[0], carrierDt)
	return math.Sin(v.phases[0]*twoPi + v.fmIndex*modVal)
}

// modulated applies a sine tremolo at the LFO's configured rate (6 Hz
// default) to the band-limited source generator gen.
func (v *SynthVoice) modulated(gen func(phase, dt float64) float64) float64 {
	dt := v.dt()
	v.phases[0] = advancePhase(v.phases[0], dt)
	src := gen(v.phases[0], dt)
	trem := v.tremLFO.sample(v.SampleRate)
	return src * (1 + trem)
}

// tb303 is a band-limited saw into an SVF low-pass whose cutoff sweeps
// down from base+3000*e^(-4t) for an acid character.
func (v *SynthVoice) tb303(elapsed float64) float64 {
	dt := v.dt()
	v.phases[0] = advancePhase(v.phases[0], dt)
	saw := blepSaw(v.phases[0], dt)
	baseCutoff := v.BaseFreq * 2
	v.filter.cutoff = baseCutoff + 3000*math.Exp(-4*elapsed)
	v.filter.resonance = 0.3
	v.filter.process(v.SampleRate, saw)
	return v.filter.lp
}

func (v *SynthVoice) prophet() float64 {
	pair := v.detunedPair(blepSaw)
	dt := v.dt()
	v.phase2 = advancePhase(v.phase2, dt)
	pulse := blepPulse(v.phase2, dt, 0.1)
	return 0.5*pair + 0.25*pulse
}

func (v *SynthVoice) zawa() float64 {
	lfoVal := v.sweepLFO.sample(v.SampleRate)
	modDt := v.BaseFreq * 1.5 / v.SampleRate
	v.phase2 = advancePhase(v.phase2, modDt)
	modVal := math.Sin(v.phase2 * twoPi)
	dt := v.dt()
	v.phases[0] = advancePhase(v.phases[0], dt)
	depth := 2.0 + lfoVal
	return math.Sin(v.phases[0]*twoPi + depth*modVal)
}

func (v *SynthVoice) blade() float64 {
	const n = 3
	var sum float64
	for i := 0; i < n; i++ {
		detune := 1.0 + 0.01*(float64(i)-1)
		f := v.BaseFreq * detune
		dt := f / v.SampleRate
		v.phases[i] = advancePhase(v.phases[i], dt)
		sum += blepSaw(v.phases[i], dt)
	}
	sum /= n
	v.filter.cutoff = v.BaseFreq * 4
	v.filter.resonance = 0.4
	v.filter.process(v.SampleRate, sum)
	return 0.5*v.filter.lp + 0.5*v.filter.bp
}

func (v *SynthVoice) hoover() float64 {
	const n = 5
	var sum float64
	for i := 0; i < n; i++ {
		detune := 1.0 + 0.015*(float64(i)-2)
		f := v.BaseFreq * detune
		dt := f / v.SampleRate
		v.phases[i] = advancePhase(v.phases[i], dt)
		sum += blepSaw(v.phases[i], dt)
	}
	sum /= n
	sub := v.sine(v.BaseFreq/2, &v.phase2)
	return 0.7*sum + 0.3*sub
}

func (v *SynthVoice) growl() float64 {
	dt := v.dt()
	v.phases[0] = advancePhase(v.phases[0], dt)
	saw := blepSaw(v.phases[0], dt)
	subDt := v.BaseFreq / 2 / v.SampleRate
	v.phase2 = advancePhase(v.phase2, subDt)
	ringMod := math.Sin(v.phase2 * twoPi)
	lfoVal := v.sweepLFO.sample(v.SampleRate)
	return saw * ringMod * (0.5 + 0.5*lfoVal)
}

func (v *SynthVoice) additive(numPartials int, decayRate float64) float64 {
	var sum float64
	amp := 1.0
	for i := 0; i < numPartials && i < len(v.partials); i++ {
		dt := v.BaseFreq * float64(i+1) / v.SampleRate
		v.partials[i] = advancePhase(v.partials[i], dt)
		sum += amp * math.Sin(v.partials[i]*twoPi)
		amp *= decayRate
	}
	return sum / float64(numPartials)
}

func (v *SynthVoice) hollowDark(baseCutoff float64) float64 {
	var src float64
	if v.Kind == KindDark {
		src = v.noise.white()
	} else {
		src = v.sine(v.BaseFreq, &v.phases[0])
	}
	lfoVal := v.sweepLFO.sample(v.SampleRate)
	v.filter.cutoff = baseCutoff + lfoVal*200
	if v.filter.cutoff < 20 {
		v.filter.cutoff = 20
	}
	v.filter.resonance = 0.6
	v.filter.process(v.SampleRate, src)
	return v.filter.bp
}

func (v *SynthVoice) chipSquareSaw(duty float64) float64 {
	dt := v.dt()
	v.phases[0] = advancePhase(v.phases[0], dt)
	if duty > 0 {
		return blepPulse(v.phases[0], dt, duty)
	}
	return blepSaw(v.phases[0], dt)
}

// chipNoise updates a held white sample at a fixed sub-rate (the chip's
// internal noise channel clock divider), rather than every sample.
func (v *SynthVoice) chipNoise() float64 {
	const subRateDivider = 8
	v.chipHoldCounter++
	if v.chipHoldCounter >= subRateDivider {
		v.chipHoldCounter = 0
		v.chipHoldSample = v.noise.white()
	}
	return quantizeChip(v.chipHoldSample, 8)
}

func quantizeChip(x float64, steps int) float64 {
	if steps <= 1 {
		return x
	}
	n := math.Round(x*float64(steps-1)) / float64(steps-1)
	if n < -1 {
		n = -1
	}
	if n > 1 {
		n = 1
	}
	return n
}
