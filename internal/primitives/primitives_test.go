package primitives

import (
	"math"
	"testing"
)

func TestFreqFromMIDI(t *testing.T) {
	if math.Abs(FreqFromMIDI(69)-440.0) > 1e-9 {
		t.Fatalf("A4 should be 440Hz, got %f", FreqFromMIDI(69))
	}
	if got := FreqFromMIDI(60); math.Abs(got-261.6256) > 0.01 {
		t.Fatalf("C4 should be ~261.63Hz, got %f", got)
	}
}

func TestNoteNameToMIDI(t *testing.T) {
	cases := map[string]int{
		"c4":  60,
		"C4":  60,
		"cs4": 61,
		"C#4": 61,
		"db4": 61,
		"a4":  69,
		"r":   RestMIDI,
		"rest": RestMIDI,
	}
	for name, want := range cases {
		got, err := NoteNameToMIDI(name)
		if err != nil {
			t.Fatalf("NoteNameToMIDI(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("NoteNameToMIDI(%q) = %d, want %d", name, got, want)
		}
	}
}

func TestNoteNameToMIDIRejectsOutOfRange(t *testing.T) {
	if _, err := NoteNameToMIDI("c99"); err == nil {
		t.Fatal("expected error for out-of-range note")
	}
}

func TestScaleMIDIUnknownFallsBackToMajor(t *testing.T) {
	got := ScaleMIDI(60, "not_a_scale", 1)
	want := ScaleMIDI(60, "major", 1)
	if len(got) != len(want) {
		t.Fatalf("length mismatch: %v vs %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("mismatch at %d: %v vs %v", i, got, want)
		}
	}
}

func TestScaleMIDILength(t *testing.T) {
	got := ScaleMIDI(60, "major", 2)
	if len(got) != 7*2+1 {
		t.Fatalf("expected 15 notes, got %d", len(got))
	}
}

func TestChordMIDIUnknownFallsBackToMajor(t *testing.T) {
	got := ChordMIDI(60, "nope")
	want := []int{60, 64, 67}
	for i, v := range want {
		if got[i] != v {
			t.Fatalf("ChordMIDI fallback mismatch: %v", got)
		}
	}
}

func TestEnvelopeFlatUnitGain(t *testing.T) {
	e := Envelope{Attack: 0, Decay: 0, Sustain: 1, Release: 0}
	total := e.Total(2.0)
	if total != 2.0 {
		t.Fatalf("expected total 2.0, got %f", total)
	}
	if v := e.Value(0, total); v != 1 {
		t.Fatalf("expected 1 at t=0, got %f", v)
	}
	if v := e.Value(1.999, total); v != 1 {
		t.Fatalf("expected 1 just before total, got %f", v)
	}
	if v := e.Value(2.0, total); v != 0 {
		t.Fatalf("expected 0 at/after total, got %f", v)
	}
}

func TestEnvelopeADSRShape(t *testing.T) {
	e := Envelope{Attack: 0.1, Decay: 0.1, Sustain: 0.5, Release: 0.2}
	total := e.Total(1.0)
	if v := e.Value(0.05, total); v <= 0 || v >= 1 {
		t.Fatalf("mid-attack value out of range: %f", v)
	}
	if v := e.Value(0.15, total); v <= e.Sustain || v >= 1 {
		t.Fatalf("mid-decay value out of range: %f", v)
	}
	if v := e.Value(0.5, total); v != e.Sustain {
		t.Fatalf("expected sustain level %f, got %f", e.Sustain, v)
	}
}
