package effects

import "math"

// biquadQ is the Q used for the cookbook Butterworth biquad coefficients
//.
const biquadQ = 1.0 / math.Sqrt2

type biquadCoeffs struct {
	b0, b1, b2, a1, a2 float64
}

type biquadState struct {
	x1, x2, y1, y2 float64
}

func (s *biquadState) process(c biquadCoeffs, in float64) float64 {
	out := c.b0*in + c.b1*s.x1 + c.b2*s.x2 - c.a1*s.y1 - c.a2*s.y2
	s.x2, s.x1 = s.x1, in
	s.y2, s.y1 = s.y1, out
	return out
}

func lowpassCoeffs(sampleRate int, cutoff float64) biquadCoeffs {
	omega := 2 * math.Pi * cutoff / float64(sampleRate)
	alpha := math.Sin(omega) / (2 * biquadQ)
	cosw := math.Cos(omega)
	a0 := 1 + alpha
	b0 := (1 - cosw) / 2 / a0
	b1 := (1 - cosw) / a0
	b2 := b0
	a1 := -2 * cosw / a0
	a2 := (1 - alpha) / a0
	return biquadCoeffs{b0, b1, b2, a1, a2}
}

func highpassCoeffs(sampleRate int, cutoff float64) biquadCoeffs {
	omega := 2 * math.Pi * cutoff / float64(sampleRate)
	alpha := math.Sin(omega) / (2 * biquadQ)
	cosw := math.Cos(omega)
	a0 := 1 + alpha
	b0 := (1 + cosw) / 2 / a0
	b1 := -(1 + cosw) / a0
	b2 := b0
	a1 := -2 * cosw / a0
	a2 := (1 - alpha) / a0
	return biquadCoeffs{b0, b1, b2, a1, a2}
}

// BiquadLPF is a stereo cookbook low-pass filter, active only when its
// cutoff is below 19999 Hz.C.
type BiquadLPF struct {
	sampleRate int
	cutoff     float64
	coeffs     biquadCoeffs
	left, right biquadState
}

func NewBiquadLPF(sampleRate int, cutoff float64) *BiquadLPF {
	f := &BiquadLPF{sampleRate: sampleRate}
	f.SetCutoff(cutoff)
	return f
}

func (f *BiquadLPF) SetCutoff(cutoff float64) {
	f.cutoff = cutoff
	if f.Active() {
		f.coeffs = lowpassCoeffs(f.sampleRate, cutoff)
	}
}

func (f *BiquadLPF) Active() bool { return f.cutoff < 19999 }

func (f *BiquadLPF) Process(l, r float32) (float32, float32) {
	if !f.Active() {
		return l, r
	}
	return float32(f.left.process(f.coeffs, float64(l))), float32(f.right.process(f.coeffs, float64(r)))
}

func (f *BiquadLPF) Reset() { f.left, f.right = biquadState{}, biquadState{} }

// BiquadHPF is a stereo cookbook high-pass filter, active only when its
// cutoff is above 21 Hz.C.
type BiquadHPF struct {
	sampleRate int
	cutoff     float64
	coeffs     biquadCoeffs
	left, right biquadState
}

func NewBiquadHPF(sampleRate int, cutoff float64) *BiquadHPF {
	f := &BiquadHPF{sampleRate: sampleRate}
	f.SetCutoff(cutoff)
	return f
}

func (f *BiquadHPF) SetCutoff(cutoff float64) {
	f.cutoff = cutoff
	if f.Active() {
		f.coeffs = highpassCoeffs(f.sampleRate, cutoff)
	}
}

func (f *BiquadHPF) Active() bool { return f.cutoff > 21 }

func (f *BiquadHPF) Process(l, r float32) (float32, float32) {
	if !f.Active() {
		return l, r
	}
	return float32(f.left.process(f.coeffs, float64(l))), float32(f.right.process(f.coeffs, float64(r)))
}

func (f *BiquadHPF) Reset() { f.left, f.right = biquadState{}, biquadState{} }
