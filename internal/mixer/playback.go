package mixer

import "github.com/cbegin/loopweave-go/internal/sample"

// samplePlayback tracks one in-flight sample trigger
// "Sample playback": an immutable shared buffer reference, a fractional
// read position, the effective playback rate, amplitude, pan, and a done
// flag. Retired when `position + 1 >= buffer.len` (invariant 3).
type samplePlayback struct {
	buf  *sample.Buffer
	pos  float64
	rate float64
	amp  float64
	pan  float64
	done bool
}

func newPlayback(buf *sample.Buffer, userRate, outputSampleRate, amp, pan float64) *samplePlayback {
	effectiveRate := userRate * float64(buf.SampleRate) / outputSampleRate
	return &samplePlayback{buf: buf, rate: effectiveRate, amp: amp, pan: pan}
}

func (p *samplePlayback) active() bool { return !p.done }

// next returns the interpolated, amplitude-scaled sample at the current
// position and advances it by the effective rate. Interpolation is cubic
// Hermite (Catmull-Rom) across the four surrounding samples, falling back
// to linear interpolation at the buffer edges.E.
func (p *samplePlayback) next() float32 {
	data := p.buf.Data
	n := len(data)
	i0 := int(p.pos)
	if i0 >= n {
		p.done = true
		return 0
	}
	frac := float32(p.pos - float64(i0))

	var out float32
	if i0 >= 1 && i0+2 < n {
		out = cubicHermite(data[i0-1], data[i0], data[i0+1], data[i0+2], frac)
	} else {
		next := data[i0]
		if i0+1 < n {
			next = data[i0+1]
		}
		out = data[i0] + (next-data[i0])*frac
	}

	p.pos += p.rate
	if p.pos+1 >= float64(n) {
		p.done = true
	}
	return out * float32(p.amp)
}

// cubicHermite is the standard Catmull-Rom spline through y1..y2 with y0
// and y3 as the outer control points, t in [0,1).
func cubicHermite(y0, y1, y2, y3, t float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1
	return ((a0*t+a1)*t+a2)*t + a3
}

// panGains mirrors internal/voice's equal-power pan formula (spec.md
// §4.E) for sample playbacks.
func panGains(pan float64) (left, right float64) {
	left = clamp01((1 - pan) / 2)
	right = clamp01((1 + pan) / 2)
	return
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
