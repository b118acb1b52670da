package effects

// Delay implements a stereo delay with feedback and cross-channel mixing.
// The backing buffer is always sized to MaxDelaySeconds so that SetParams
// can change the delay time at runtime (from the mixer's SetEffect
// command, on the realtime thread) without ever reallocating, per
// spec.md invariant 1.
type Delay struct {
	bufL, bufR   []float32
	pos          int
	delaySamples int
	sampleRate   int
	feedback     float32
	cross        float32
	wet          float32
}

// MaxDelaySeconds bounds the delay buffer.C/§5 ("max delay
// buffer 2 s of samples").
const MaxDelaySeconds = 2.0

// NewDelay creates a delay effect.
// delayMs: delay time in milliseconds, clamped to MaxDelaySeconds
// feedback: feedback amount, clamped to 0..0.95
// cross: cross-channel feedback 0..1
// wet: wet/dry mix 0..1
func NewDelay(sampleRate int, delayMs float64, feedback, cross, wet float32) *Delay {
	capacity := int(MaxDelaySeconds*float64(sampleRate)) + 1
	d := &Delay{
		bufL:       make([]float32, capacity),
		bufR:       make([]float32, capacity),
		sampleRate: sampleRate,
	}
	d.SetParams(float32(delayMs), feedback, cross, wet)
	return d
}

// SetParams reconfigures delay time, feedback, cross mix, and wet mix in
// place, never touching the backing buffer's allocation.
func (d *Delay) SetParams(delayMs, feedback, cross, wet float32) {
	maxMs := float32(MaxDelaySeconds * 1000.0)
	if delayMs > maxMs {
		delayMs = maxMs
	}
	samples := int(delayMs * float32(d.sampleRate) / 1000.0)
	if samples < 1 {
		samples = 1
	}
	if samples > len(d.bufL) {
		samples = len(d.bufL)
	}
	d.delaySamples = samples
	d.feedback = clamp(feedback, 0, 0.95)
	d.cross = clamp(cross, 0, 1)
	d.wet = clamp(wet, 0, 1)
}

func (d *Delay) Process(l, r float32) (float32, float32) {
	n := len(d.bufL)
	readPos := d.pos - d.delaySamples
	if readPos < 0 {
		readPos += n
	}
	delL := d.bufL[readPos]
	delR := d.bufR[readPos]
	fbL := delL*d.feedback*(1-d.cross) + delR*d.feedback*d.cross
	fbR := delR*d.feedback*(1-d.cross) + delL*d.feedback*d.cross
	d.bufL[d.pos] = l + fbL
	d.bufR[d.pos] = r + fbR
	d.pos++
	if d.pos >= n {
		d.pos = 0
	}
	return l*(1-d.wet) + delL*d.wet, r*(1-d.wet) + delR*d.wet
}

func (d *Delay) Reset() {
	for i := range d.bufL {
		d.bufL[i] = 0
		d.bufR[i] = 0
	}
	d.pos = 0
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
