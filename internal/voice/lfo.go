package voice

import "math"

// waveKind selects the shape sampled by modulationLFO.
type waveKind int

const (
	waveSaw waveKind = iota
	waveSquare
	waveTriangle
	waveSine
	waveRandom
)

// modulationLFO is a per-voice low-frequency oscillator driving tremolo and
// slow timbral sweeps (mod_* kinds, zawa, hollow/dark, growl). Each
// SynthVoice owns its own instance rather than sharing one across an
// engine, so unrelated voices never phase-lock to each other.
type modulationLFO struct {
	depth   float64 // modulation depth (units depend on caller: gain factor, semitones, cutoff offset)
	rateHz  float64
	wave    waveKind
	phase   float64 // [0, 1)
	holdVal float64 // sample-and-hold value for waveRandom
}

// set configures depth, rate, and wave shape. An out-of-range wave falls
// back to triangle.
func (o *modulationLFO) set(depth, rateHz float64, wave waveKind) {
	o.depth = depth
	o.rateHz = rateHz
	if wave < waveSaw || wave > waveRandom {
		wave = waveTriangle
	}
	o.wave = wave
}

// sample advances the oscillator by one sample at sampleRate and returns a
// value in [-depth, +depth]; zero depth or rate yields 0 with no phase
// advance.
func (o *modulationLFO) sample(sampleRate float64) float64 {
	if o.depth == 0 || o.rateHz == 0 || sampleRate == 0 {
		return 0
	}

	var val float64
	switch o.wave {
	case waveSaw:
		val = 1.0 - 2.0*o.phase
	case waveSquare:
		if o.phase < 0.5 {
			val = 1.0
		} else {
			val = -1.0
		}
	case waveSine:
		val = math.Sin(o.phase * twoPi)
	case waveRandom:
		val = o.holdVal
	default: // waveTriangle
		if o.phase < 0.5 {
			val = 4.0*o.phase - 1.0
		} else {
			val = 3.0 - 4.0*o.phase
		}
	}

	prevPhase := o.phase
	o.phase += o.rateHz / sampleRate
	for o.phase >= 1.0 {
		o.phase -= 1.0
	}

	if o.wave == waveRandom && o.phase < prevPhase {
		h := math.Sin(o.phase*12345.6789+o.holdVal*67890.1234)
		h -= math.Floor(h)
		o.holdVal = h*2.0 - 1.0
	}

	return val * o.depth
}

// active reports whether the oscillator is currently producing a nonzero
// signal.
func (o *modulationLFO) active() bool {
	return o.depth != 0 && o.rateHz != 0
}

// reset zeros phase and held state without touching depth/rate/wave.
func (o *modulationLFO) reset() {
	o.phase = 0
	o.holdVal = 0
}
