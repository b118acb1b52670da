package effects

import "math"

// maxEnsembleDelayMs and maxEnsembleDepthMs bound Ensemble's backing
// buffer the same way Delay's MaxDelaySeconds does: SetParams reconfigures
// the sweep in place on the realtime thread without ever reallocating.
const (
	maxEnsembleDelayMs = 40.0
	maxEnsembleDepthMs = 20.0
)

// Ensemble is a sine-swept delay line: the bonus with_fx-only chorus/flanger
// stage layered on top of the mandatory chain by Rack.EnableExtra.
type Ensemble struct {
	lineL, lineR []float32
	writeAt      int
	sampleRate   int

	sweepPhase  float64
	sweepRate   float64 // radians per sample
	sweepDepth  float32 // samples
	centerDelay float32 // samples
	feedback    float32
	wet         float32
}

// NewEnsemble preallocates a sweep buffer sized for the maximum delay and
// depth SetParams can ever request, then applies a default voicing.
func NewEnsemble(sampleRate int) *Ensemble {
	capSamples := int((maxEnsembleDelayMs+maxEnsembleDepthMs)*float64(sampleRate)/1000.0) + 2
	e := &Ensemble{
		lineL:      make([]float32, capSamples),
		lineR:      make([]float32, capSamples),
		sampleRate: sampleRate,
	}
	e.SetParams(15, 0.3, 4, 1.0, 0.5)
	return e
}

// SetParams reconfigures delay time, feedback, sweep depth/rate, and wet
// mix in place, clamping to the capacity fixed at construction.
// delayMs: base delay time in ms (typically 5-30ms)
// feedback: feedback amount 0..1
// depthMs: modulation depth in ms
// rateHz: modulation rate in Hz (typically 0.1-5Hz)
// wet: wet/dry mix 0..1
func (e *Ensemble) SetParams(delayMs, feedback, depthMs, rateHz, wet float32) {
	if delayMs > maxEnsembleDelayMs {
		delayMs = maxEnsembleDelayMs
	}
	if depthMs > maxEnsembleDepthMs {
		depthMs = maxEnsembleDepthMs
	}
	e.centerDelay = delayMs * float32(e.sampleRate) / 1000.0
	e.sweepDepth = depthMs * float32(e.sampleRate) / 1000.0
	e.feedback = clamp(feedback, 0, 0.9)
	e.wet = clamp(wet, 0, 1)
	e.sweepRate = 2.0 * math.Pi * float64(rateHz) / float64(e.sampleRate)
}

func (e *Ensemble) Process(l, r float32) (float32, float32) {
	mod := float32(math.Sin(e.sweepPhase)) * e.sweepDepth
	e.sweepPhase += e.sweepRate
	if e.sweepPhase > 2*math.Pi {
		e.sweepPhase -= 2 * math.Pi
	}

	n := len(e.lineL)
	e.lineL[e.writeAt] = l
	e.lineR[e.writeAt] = r

	delay := e.centerDelay + mod
	readPos := float32(e.writeAt) - delay
	for readPos < 0 {
		readPos += float32(n)
	}
	idx := int(readPos)
	frac := readPos - float32(idx)
	idx2 := idx + 1
	if idx2 >= n {
		idx2 = 0
	}
	wetL := e.lineL[idx]*(1-frac) + e.lineL[idx2]*frac
	wetR := e.lineR[idx]*(1-frac) + e.lineR[idx2]*frac

	e.lineL[e.writeAt] += wetL * e.feedback
	e.lineR[e.writeAt] += wetR * e.feedback

	e.writeAt++
	if e.writeAt >= n {
		e.writeAt = 0
	}
	return l*(1-e.wet) + wetL*e.wet, r*(1-e.wet) + wetR*e.wet
}

func (e *Ensemble) Reset() {
	for i := range e.lineL {
		e.lineL[i] = 0
		e.lineR[i] = 0
	}
	e.writeAt = 0
	e.sweepPhase = 0
}
