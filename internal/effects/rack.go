package effects

// Rack is the single stereo effect chain instance per mixer (
// "Effect chain"). Order per sample.C: distortion, LPF,
// HPF, delay, reverb, then master gain (applied by the mixer) and hard
// clip (also by the mixer).
type Rack struct {
	Distortion *Distortion
	LPF        *BiquadLPF
	HPF        *BiquadHPF
	Delay      *Delay
	Reverb     *Reverb

	// Bonus with_fx-reachable effects: not in the
	// mandatory chain order above, inserted only when selected by name.
	Chorus      *Ensemble
	Compressor  *Leveler
	RingEQ      *FiveBandEQ
	extraActive bool
}

// ExtraConfig carries the with_fx parameters for whichever bonus stage is
// active; unused fields are ignored.
type ExtraConfig struct {
	ChorusDelayMs  float32
	ChorusFeedback float32
	ChorusDepthMs  float32
	ChorusRateHz   float32
	ChorusWet      float32

	CompThresholdDB float32
	CompRatio       float32
	CompAttackMs    float32
	CompReleaseMs   float32
	CompMakeupDB    float32
}

// NewRack builds the default rack: distortion/delay inactive, LPF/HPF at
// the edges of the audible range (inactive per their Active() rules),
// reverb always present with zero wet.
func NewRack(sampleRate int) *Rack {
	return &Rack{
		Distortion: NewDistortion(0),
		LPF:        NewBiquadLPF(sampleRate, 20000),
		HPF:        NewBiquadHPF(sampleRate, 0),
		Delay:      NewDelay(sampleRate, 1, 0, 0, 0),
		Reverb:     NewReverb(sampleRate, 0),
	}
}

// Process applies the chain in. Delay's wet is expected
// to already be configured to ~0.5 by the caller when "active" (time > 1ms
// per spec); reverb is always processed, its wet fraction gates audibility.
func (r *Rack) Process(l, rr float32) (float32, float32) {
	l, rr = r.Distortion.Process(l, rr)
	l, rr = r.LPF.Process(l, rr)
	l, rr = r.HPF.Process(l, rr)
	l, rr = r.Delay.Process(l, rr)
	l, rr = r.Reverb.Process(l, rr)
	if r.extraActive {
		if r.Chorus != nil {
			l, rr = r.Chorus.Process(l, rr)
		}
		if r.Compressor != nil {
			l, rr = r.Compressor.Process(l, rr)
		}
		if r.RingEQ != nil {
			l, rr = r.RingEQ.Process(l, rr)
		}
	}
	return l, rr
}

func (r *Rack) Reset() {
	r.Distortion.Reset()
	r.LPF.Reset()
	r.HPF.Reset()
	r.Delay.Reset()
	r.Reverb.Reset()
	if r.Chorus != nil {
		r.Chorus.Reset()
	}
	if r.Compressor != nil {
		r.Compressor.Reset()
	}
	if r.RingEQ != nil {
		r.RingEQ.Reset()
	}
}

// EnableExtra turns on the bonus chorus/compressor/ring_eq stage,
// constructing each on first use and reconfiguring chorus/compressor from
// cfg on every call so with_fx named params actually take effect.
func (r *Rack) EnableExtra(sampleRate int, cfg ExtraConfig) {
	r.extraActive = true
	if r.Chorus == nil {
		r.Chorus = NewEnsemble(sampleRate)
	}
	r.Chorus.SetParams(cfg.ChorusDelayMs, cfg.ChorusFeedback, cfg.ChorusDepthMs, cfg.ChorusRateHz, cfg.ChorusWet)
	if r.Compressor == nil {
		r.Compressor = NewLeveler(sampleRate)
	}
	r.Compressor.SetParams(cfg.CompThresholdDB, cfg.CompRatio, cfg.CompAttackMs, cfg.CompReleaseMs, cfg.CompMakeupDB)
	if r.RingEQ == nil {
		r.RingEQ = NewFiveBandEQ(sampleRate)
	}
}

func (r *Rack) DisableExtra() { r.extraActive = false }
