package effects

import (
	"math"
	"sync/atomic"
)

// fiveBandCrossovers are the four crossover frequencies splitting the
// spectrum into five bands, loosely following a typical five-band
// graphic EQ (low, low-mid, mid, high-mid, high).
var fiveBandCrossovers = [4]float64{200, 800, 2500, 8000}

// FiveBandEQ is a five-band graphic EQ: the bonus
// with_fx-only tone-shaping stage layered on top of the mandatory chain by
// Rack.EnableExtra. Band gains are stored as atomic.Uint32 bit patterns so
// a control-thread SetBandGain call never races Process on the realtime
// thread.
type FiveBandEQ struct {
	gains [5]atomic.Uint32 // float32 bits, default 1.0 (unity)

	alphas [4]float64 // one-pole crossover coefficients, low→high
	lpL    [4]float64 // cascaded lowpass state, left channel
	lpR    [4]float64 // cascaded lowpass state, right channel
}

// NewFiveBandEQ builds a five-band EQ at unity gain on every band.
func NewFiveBandEQ(sampleRate int) *FiveBandEQ {
	eq := &FiveBandEQ{}
	for i := range eq.gains {
		eq.gains[i].Store(math.Float32bits(1.0))
	}
	for i, f := range fiveBandCrossovers {
		eq.alphas[i] = onePoleAlpha(f, sampleRate)
	}
	return eq
}

func onePoleAlpha(cutoffHz float64, sampleRate int) float64 {
	rc := 1.0 / (2.0 * math.Pi * cutoffHz)
	dt := 1.0 / float64(sampleRate)
	return dt / (rc + dt)
}

// SetBandGain sets band i (0=lowest .. 4=highest) to the given linear gain.
func (eq *FiveBandEQ) SetBandGain(i int, gain float32) {
	if i < 0 || i >= len(eq.gains) {
		return
	}
	eq.gains[i].Store(math.Float32bits(gain))
}

// BandGain reads back band i's currently configured linear gain.
func (eq *FiveBandEQ) BandGain(i int) float32 {
	if i < 0 || i >= len(eq.gains) {
		return 1.0
	}
	return math.Float32frombits(eq.gains[i].Load())
}

func (eq *FiveBandEQ) Process(l, r float32) (float32, float32) {
	outL := eq.splitAndSum(float64(l), &eq.lpL)
	outR := eq.splitAndSum(float64(r), &eq.lpR)
	return float32(outL), float32(outR)
}

// splitAndSum cascades four one-pole lowpass stages, highest crossover
// first, to carve the signal into five bands (band 4 above the top
// crossover down to band 0 below the lowest), then re-sums them weighted
// by the per-band gain.
func (eq *FiveBandEQ) splitAndSum(x float64, lp *[4]float64) float64 {
	bands := [5]float64{}
	prev := x
	for i := 3; i >= 0; i-- {
		lp[i] += eq.alphas[i] * (prev - lp[i])
		bands[i+1] = prev - lp[i]
		prev = lp[i]
	}
	bands[0] = prev

	var sum float64
	for i, b := range bands {
		sum += b * float64(eq.BandGain(i))
	}
	return sum
}

func (eq *FiveBandEQ) Reset() {
	for i := range eq.lpL {
		eq.lpL[i] = 0
		eq.lpR[i] = 0
	}
}
