package effects

import "math"

// Leveler is a feedforward peak compressor: the bonus with_fx-only
// dynamics stage layered on top of the mandatory chain by
// Rack.EnableExtra.
type Leveler struct {
	sampleRate int

	thresholdDB float32
	ratio       float32
	attackCoef  float32
	releaseCoef float32
	makeup      float32

	smoothedL, smoothedR float32 // envelope followers, linear scale
}

// NewLeveler builds a compressor with a neutral default voicing; call
// SetParams to configure it for a with_fx block.
func NewLeveler(sampleRate int) *Leveler {
	l := &Leveler{sampleRate: sampleRate}
	l.SetParams(-18, 4, 10, 100, 3)
	return l
}

// SetParams reconfigures threshold, ratio, attack/release times, and
// makeup gain in place.
// thresholdDB: level above which gain reduction begins
// ratio: compression ratio (>=1)
// attackMs, releaseMs: envelope follower time constants in ms
// makeupDB: static gain applied after compression
func (l *Leveler) SetParams(thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) {
	l.thresholdDB = thresholdDB
	if ratio < 1 {
		ratio = 1
	}
	l.ratio = ratio
	l.attackCoef = timeConstantCoef(attackMs, l.sampleRate)
	l.releaseCoef = timeConstantCoef(releaseMs, l.sampleRate)
	l.makeup = float32(math.Pow(10, float64(makeupDB)/20.0))
}

func timeConstantCoef(ms float32, sampleRate int) float32 {
	if ms <= 0 {
		return 0
	}
	return float32(math.Exp(-1.0 / (float64(ms) / 1000.0 * float64(sampleRate))))
}

func (l *Leveler) Process(left, right float32) (float32, float32) {
	peak := float32(math.Max(math.Abs(float64(left)), math.Abs(float64(right))))
	l.smoothedL = followEnvelope(l.smoothedL, peak, l.attackCoef, l.releaseCoef)
	l.smoothedR = l.smoothedL // stereo-linked envelope: both channels share one gain
	gain := l.gainFor(l.smoothedL)
	return left * gain * l.makeup, right * gain * l.makeup
}

func followEnvelope(env, input, attackCoef, releaseCoef float32) float32 {
	coef := releaseCoef
	if input > env {
		coef = attackCoef
	}
	return coef*env + (1-coef)*input
}

// gainFor converts a linear envelope level to a gain-reduction factor
// using the compressor's static threshold/ratio curve.
func (l *Leveler) gainFor(env float32) float32 {
	if env <= 0 {
		return 1
	}
	levelDB := 20 * float32(math.Log10(float64(env)))
	if levelDB <= l.thresholdDB {
		return 1
	}
	overDB := levelDB - l.thresholdDB
	reducedDB := overDB / l.ratio
	gainDB := -(overDB - reducedDB)
	return float32(math.Pow(10, float64(gainDB)/20.0))
}

func (l *Leveler) Reset() {
	l.smoothedL = 0
	l.smoothedR = 0
}
