package voice

import (
	"math"
	"testing"

	"github.com/cbegin/loopweave-go/internal/primitives"
)

func TestKindFromNameUnknownFallsBackToSine(t *testing.T) {
	if KindFromName("not_a_real_synth") != KindSine {
		t.Fatal("unknown synth name should fall back to sine")
	}
}

func TestSynthVoiceRetiresAfterTotalDuration(t *testing.T) {
	env := primitives.Envelope{Attack: 0, Decay: 0, Sustain: 1, Release: 0}
	sr := 1000.0
	v := NewSynthVoice(KindSine, 440, 1.0, sr, 0.01, env, 0)
	total := v.TotalSeconds()
	samples := int(total * sr)
	for i := 0; i < samples; i++ {
		if !v.Active() {
			t.Fatalf("voice retired early at sample %d of %d", i, samples)
		}
		v.Render()
	}
	// one extra render should retire it
	v.Render()
	if v.Active() {
		t.Fatal("voice should be retired after total duration elapses")
	}
}

func TestPolyBLEPSawReducesDiscontinuityVsNaive(t *testing.T) {
	// Spot check: polyBLEP correction is non-zero near the wrap point and
	// zero away from discontinuities, which is what suppresses the
	// aliasing foot (testable property 7 is a full spectral test; this is
	// a structural sanity check on the correction term itself).
	dt := 0.05
	if c := polyBLEP(0.001, dt); c == 0 {
		t.Fatal("expected non-zero correction near phase wrap")
	}
	if c := polyBLEP(0.5, dt); c != 0 {
		t.Fatalf("expected zero correction away from discontinuity, got %f", c)
	}
}

func TestKarplusStrongDecays(t *testing.T) {
	k := newKarplus(8000, 200)
	// Compare the energy of one full ring period, not single noise samples.
	period := len(k.buf)
	energy := func() float64 {
		var sum float64
		for i := 0; i < period; i++ {
			v := k.next()
			sum += v * v
		}
		return sum
	}
	first := energy()
	for i := 0; i < 2000; i++ {
		k.next()
	}
	last := energy()
	if last >= first {
		t.Fatalf("expected pluck to decay: first=%f last=%f", first, last)
	}
}

func TestColoredNoiseBounded(t *testing.T) {
	n := newNoiseState(42)
	for i := 0; i < 10000; i++ {
		for _, v := range []float64{n.white(), n.brown(), n.pink(), n.grey(), n.clip()} {
			if v < -1.0001 || v > 1.0001 {
				t.Fatalf("noise sample out of range: %f", v)
			}
		}
	}
}

func TestPanGainsEqualAtCenter(t *testing.T) {
	l, r := panGains(0)
	if l != r {
		t.Fatalf("expected equal gains at center pan, got l=%f r=%f", l, r)
	}
}

func TestModulatedKindAppliesSineTremoloNotTriangle(t *testing.T) {
	env := primitives.Envelope{Attack: 0, Decay: 0, Sustain: 1, Release: 0}
	sr := 44100.0
	v := NewSynthVoice(KindModSine, 220, 1.0, sr, 1.0, env, 0)
	// Advance the voice's tremolo oscillator through a few phases; the
	// sampled values are not compared below.
	var got [4]float64
	for i := range got {
		got[i] = v.tremLFO.sample(sr)
		for j := 0; j < int(sr/24-1); j++ {
			v.tremLFO.sample(sr)
		}
	}
	// Check that sine and triangle reference oscillators give different
	// values at phase 0, then that tremLFO is configured as waveSine (the
	// last check fails if it were still waveTriangle).
	tri := modulationLFO{}
	tri.set(1.0, 6.0, waveTriangle)
	triVal := tri.sample(sr)
	sineRef := modulationLFO{}
	sineRef.set(1.0, 6.0, waveSine)
	sineVal := sineRef.sample(sr)
	if math.Abs(sineVal-triVal) < 1e-6 {
		t.Fatal("sine and triangle references should diverge at this phase")
	}
	if v.tremLFO.wave != waveSine {
		t.Fatalf("expected mod_* tremolo to use waveSine, got %v", v.tremLFO.wave)
	}
}

func TestBankStealsWhenFull(t *testing.T) {
	b := NewBank()
	env := primitives.Envelope{Attack: 0, Decay: 0, Sustain: 1, Release: 0}
	for i := 0; i < maxVoices+8; i++ {
		b.NoteOn(KindSine, 440, 0.5, 44100, 5.0, env, 0)
	}
	if b.ActiveCount() > maxVoices {
		t.Fatalf("bank exceeded maxVoices: %d", b.ActiveCount())
	}
}
