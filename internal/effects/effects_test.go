package effects

import (
	"math"
	"testing"
)

func TestDelayProducesOutput(t *testing.T) {
	d := NewDelay(44100, 100, 0.5, 0, 0.5)
	d.Process(1.0, 1.0)
	for i := 0; i < 4409; i++ { // ~100ms at 44100Hz
		d.Process(0, 0)
	}
	l, r := d.Process(0, 0)
	if math.Abs(float64(l)) < 0.01 || math.Abs(float64(r)) < 0.01 {
		t.Errorf("expected delayed output, got l=%f r=%f", l, r)
	}
}

func TestDelayClampsToMaxDuration(t *testing.T) {
	d := NewDelay(44100, 10_000_000, 0.1, 0, 0.5)
	if len(d.bufL) > int(MaxDelaySeconds*44100)+1 {
		t.Fatalf("delay buffer exceeds 2s cap: %d samples", len(d.bufL))
	}
}

func TestReverbProducesOutput(t *testing.T) {
	r := NewReverb(44100, 0.5)
	r.Process(1.0, 1.0)
	var maxOut float32
	for i := 0; i < 10000; i++ {
		l, _ := r.Process(0, 0)
		if l > maxOut {
			maxOut = l
		}
	}
	if maxOut < 0.001 {
		t.Error("expected reverb tail")
	}
}

func TestReverbHasEightCombsAndThreeAllpassPerChannel(t *testing.T) {
	r := NewReverb(44100, 0.5)
	if len(r.left.combs) != 8 || len(r.right.combs) != 8 {
		t.Fatalf("expected 8 comb filters per channel, got %d/%d", len(r.left.combs), len(r.right.combs))
	}
	if len(r.left.allpass) != 3 {
		t.Fatalf("expected 3 allpass filters, got %d", len(r.left.allpass))
	}
}

func TestDistortionActivationThreshold(t *testing.T) {
	d := NewDistortion(0.0005)
	if d.Active() {
		t.Fatal("distortion below threshold should be inactive")
	}
	l, r := d.Process(0.5, 0.5)
	if l != 0.5 || r != 0.5 {
		t.Fatal("inactive distortion should pass signal through unchanged")
	}
}

func TestDistortionClipsWhenActive(t *testing.T) {
	d := NewDistortion(0.8)
	l, r := d.Process(0.5, 0.5)
	if math.Abs(float64(l)) > 1.0 || math.Abs(float64(r)) > 1.0 {
		t.Error("distortion output should be bounded")
	}
}

func TestBiquadLPFActiveBelowThreshold(t *testing.T) {
	f := NewBiquadLPF(44100, 500)
	if !f.Active() {
		t.Fatal("LPF at 500Hz should be active")
	}
	f.SetCutoff(20000)
	if f.Active() {
		t.Fatal("LPF at 20000Hz should be inactive per spec (>= 19999)")
	}
}

func TestBiquadHPFActiveAboveThreshold(t *testing.T) {
	f := NewBiquadHPF(44100, 1000)
	if !f.Active() {
		t.Fatal("HPF at 1000Hz should be active")
	}
	f.SetCutoff(10)
	if f.Active() {
		t.Fatal("HPF at 10Hz should be inactive per spec (<= 21)")
	}
}

func TestChainAppliesEffectsInOrder(t *testing.T) {
	c := NewChain(
		NewDistortion(0.5),
		NewDelay(44100, 10, 0, 0, 0.5),
	)
	l, r := c.Process(0.5, 0.5)
	if l == 0 || r == 0 {
		t.Error("chain should produce output")
	}
}

func TestRackDefaultIsNearlyTransparent(t *testing.T) {
	r := NewRack(44100)
	l, rr := r.Process(0.3, 0.3)
	if math.Abs(float64(l)-0.3) > 0.05 || math.Abs(float64(rr)-0.3) > 0.05 {
		t.Errorf("expected near-transparent default rack, got l=%f r=%f", l, rr)
	}
}

func TestFiveBandEQUnityGain(t *testing.T) {
	eq := NewFiveBandEQ(44100)
	for i := 0; i < 1000; i++ {
		eq.Process(0.5, 0.5)
	}
	l, r := eq.Process(0.5, 0.5)
	if math.Abs(float64(l)-0.5) > 0.1 || math.Abs(float64(r)-0.5) > 0.1 {
		t.Errorf("expected ~0.5 with unity gains, got l=%f r=%f", l, r)
	}
}

func TestFiveBandEQSetBandGain(t *testing.T) {
	eq := NewFiveBandEQ(44100)
	eq.SetBandGain(0, 2.0)
	if g := eq.BandGain(0); g != 2.0 {
		t.Fatalf("expected band 0 gain 2.0, got %f", g)
	}
	if g := eq.BandGain(1); g != 1.0 {
		t.Fatalf("expected band 1 to remain unity, got %f", g)
	}
}

func TestLevelerReducesLoud(t *testing.T) {
	l := NewLeveler(44100)
	l.SetParams(-10, 4, 1, 50, 0)
	var out float32
	for i := 0; i < 1000; i++ {
		out, _ = l.Process(1.0, 1.0)
	}
	if out >= 1.0 {
		t.Errorf("leveler should reduce loud signals, got %f", out)
	}
}

func TestEnsembleProducesOutput(t *testing.T) {
	e := NewEnsemble(44100)
	var sawNonzero bool
	for i := 0; i < 2000; i++ {
		l, _ := e.Process(1.0, -1.0)
		if l != 0 {
			sawNonzero = true
		}
	}
	if !sawNonzero {
		t.Error("expected ensemble to produce wet output")
	}
}

func TestRackEnableExtraAppliesExtraConfig(t *testing.T) {
	r := NewRack(44100)
	r.EnableExtra(44100, ExtraConfig{
		ChorusDelayMs: 10, ChorusFeedback: 0.2, ChorusDepthMs: 2, ChorusRateHz: 1, ChorusWet: 0.5,
		CompThresholdDB: -20, CompRatio: 8, CompAttackMs: 5, CompReleaseMs: 50, CompMakeupDB: 0,
	})
	if r.Chorus == nil || r.Compressor == nil || r.RingEQ == nil {
		t.Fatal("EnableExtra should construct all three bonus stages")
	}
	if !r.extraActive {
		t.Fatal("expected extraActive after EnableExtra")
	}
	r.DisableExtra()
	if r.extraActive {
		t.Fatal("expected extraActive false after DisableExtra")
	}
}
