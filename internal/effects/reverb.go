package effects

// Reverb implements
// channels, each eight parallel comb filters at prime-millisecond delays
// (29/31/37/41/43/47/53/59 ms) with feedback 0.84, the comb sum damped by a
// one-pole low-pass (coefficient 0.3), followed by three series allpass
// filters at 5/2/1 ms with feedback 0.7. Output mixes dry (1-mix) with wet
// (mix).
type Reverb struct {
	left, right monoReverb
	wet         float32
}

var combDelaysMS = [8]float32{29, 31, 37, 41, 43, 47, 53, 59}
var allpassDelaysMS = [3]float32{5, 2, 1}

const combFeedback = 0.84
const dampCoeff = 0.3
const allpassFeedback = 0.7

type monoReverb struct {
	combs   [8]combFilter
	allpass [3]allpassFilter
	damp    float32
}

func newMonoReverb(sampleRate int) monoReverb {
	var m monoReverb
	for i := range m.combs {
		n := msToSamples(sampleRate, combDelaysMS[i])
		m.combs[i] = combFilter{buf: make([]float32, n), fb: combFeedback}
	}
	for i := range m.allpass {
		n := msToSamples(sampleRate, allpassDelaysMS[i])
		m.allpass[i] = allpassFilter{buf: make([]float32, maxInt(n, 1)), fb: allpassFeedback}
	}
	return m
}

func msToSamples(sampleRate int, ms float32) int {
	n := int(float32(sampleRate) * ms / 1000)
	if n < 1 {
		n = 1
	}
	return n
}

func (m *monoReverb) process(in float32) float32 {
	var sum float32
	for i := range m.combs {
		sum += m.combs[i].process(in)
	}
	sum *= 1.0 / float32(len(m.combs))
	m.damp += dampCoeff * (sum - m.damp)
	out := m.damp
	for i := range m.allpass {
		out = m.allpass[i].process(out)
	}
	return out
}

func (m *monoReverb) reset() {
	for i := range m.combs {
		for j := range m.combs[i].buf {
			m.combs[i].buf[j] = 0
		}
		m.combs[i].pos = 0
	}
	for i := range m.allpass {
		for j := range m.allpass[i].buf {
			m.allpass[i].buf[j] = 0
		}
		m.allpass[i].pos = 0
	}
	m.damp = 0
}

type combFilter struct {
	buf []float32
	pos int
	fb  float32
}

type allpassFilter struct {
	buf []float32
	pos int
	fb  float32
}

// NewReverb creates the stereo reverb effect. wet in [0,1] controls the
// wet/dry mix; the reverb itself is always active (spec: "always, mix
// controls wet fraction").
func NewReverb(sampleRate int, wet float32) *Reverb {
	return &Reverb{
		left:  newMonoReverb(sampleRate),
		right: newMonoReverb(sampleRate),
		wet:   clamp(wet, 0, 1),
	}
}

// SetWet updates the wet/dry mix at runtime (SetEffect reconfiguration).
func (r *Reverb) SetWet(wet float32) { r.wet = clamp(wet, 0, 1) }

func (r *Reverb) Process(l, rr float32) (float32, float32) {
	wl := r.left.process(l)
	wr := r.right.process(rr)
	return l*(1-r.wet) + wl*r.wet, rr*(1-r.wet) + wr*r.wet
}

func (r *Reverb) Reset() {
	r.left.reset()
	r.right.reset()
}

func (c *combFilter) process(in float32) float32 {
	out := c.buf[c.pos]
	c.buf[c.pos] = in + out*c.fb
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (a *allpassFilter) process(in float32) float32 {
	bufOut := a.buf[a.pos]
	out := -in + bufOut
	a.buf[a.pos] = in + bufOut*a.fb
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
