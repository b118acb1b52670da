package voice

import "testing"

func TestModulationLFOZeroDepthOrRateIsSilent(t *testing.T) {
	var o modulationLFO
	o.set(0, 6.0, waveSine)
	if o.sample(44100) != 0 {
		t.Fatal("zero depth should produce silence")
	}
	o.set(1.0, 0, waveSine)
	if o.sample(44100) != 0 {
		t.Fatal("zero rate should produce silence")
	}
}

func TestModulationLFOActive(t *testing.T) {
	var o modulationLFO
	if o.active() {
		t.Fatal("zero-value oscillator should not be active")
	}
	o.set(1.0, 6.0, waveSine)
	if !o.active() {
		t.Fatal("configured oscillator should be active")
	}
}

func TestModulationLFOSineStaysInRange(t *testing.T) {
	var o modulationLFO
	o.set(1.0, 6.0, waveSine)
	for i := 0; i < 10000; i++ {
		v := o.sample(44100)
		if v < -1.0001 || v > 1.0001 {
			t.Fatalf("sine LFO out of range: %f", v)
		}
	}
}

func TestModulationLFOInvalidWaveFallsBackToTriangle(t *testing.T) {
	var o modulationLFO
	o.set(1.0, 6.0, waveKind(99))
	if o.wave != waveTriangle {
		t.Fatalf("expected fallback to waveTriangle, got %v", o.wave)
	}
}

func TestModulationLFOReset(t *testing.T) {
	var o modulationLFO
	o.set(1.0, 6.0, waveSaw)
	o.sample(44100)
	o.reset()
	if o.phase != 0 || o.holdVal != 0 {
		t.Fatal("reset should zero phase and held value")
	}
}
