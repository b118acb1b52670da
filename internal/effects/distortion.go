package effects

import "math"

// Distortion implements
// tanh(gain*x) when amount > activationThreshold, gain = 1 + 20*amount.
// amount <= activationThreshold passes audio through unchanged.
type Distortion struct {
	amount float32
	gain   float32
}

const distortionActivationThreshold = 0.001

// NewDistortion creates a distortion effect with the given amount in
// [0,1].
func NewDistortion(amount float32) *Distortion {
	d := &Distortion{}
	d.SetAmount(amount)
	return d
}

// SetAmount reconfigures the distortion amount (SetEffect reconfiguration).
func (d *Distortion) SetAmount(amount float32) {
	d.amount = amount
	d.gain = 1 + 20*amount
}

func (d *Distortion) Active() bool { return d.amount > distortionActivationThreshold }

func (d *Distortion) Process(l, r float32) (float32, float32) {
	if !d.Active() {
		return l, r
	}
	return float32(math.Tanh(float64(d.gain * l))), float32(math.Tanh(float64(d.gain * r)))
}

func (d *Distortion) Reset() {}
