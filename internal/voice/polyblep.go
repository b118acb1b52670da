package voice

import "math"

const twoPi = math.Pi * 2

// polyBLEP reduces aliasing at waveform discontinuities. t is the phase
// position in [0,1), dt is the phase increment per sample. Lifted from the
// teacher's chiptune engine and generalized for reuse across every
// saw/square/pulse-derived oscillator kind in the bank.
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

// blepSaw returns one sample of a band-limited sawtooth at the given phase
// and phase increment.
func blepSaw(phase, dt float64) float64 {
	out := 2*phase - 1
	out -= polyBLEP(phase, dt)
	return out
}

// blepPulse returns one sample of a band-limited pulse wave with the given
// duty cycle.
func blepPulse(phase, dt, duty float64) float64 {
	out := -1.0
	if phase < duty {
		out = 1
	}
	out += polyBLEP(phase, dt)
	out -= polyBLEP(math.Mod(phase-duty+1, 1), dt)
	return out
}

func advancePhase(phase, dt float64) float64 {
	phase += dt
	for phase >= 1 {
		phase -= 1
	}
	for phase < 0 {
		phase += 1
	}
	return phase
}
