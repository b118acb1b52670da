package mixer

import (
	"testing"

	"github.com/cbegin/loopweave-go/internal/primitives"
	"github.com/cbegin/loopweave-go/internal/sample"
	"github.com/cbegin/loopweave-go/internal/voice"
)

func TestSendRejectsWhenQueueFull(t *testing.T) {
	m := New(44100)
	var err error
	for i := 0; i < CommandQueueCapacity+1; i++ {
		err = m.Send(Command{Kind: CmdSetBpm, Value: 120})
	}
	if err != ErrQueueFull {
		t.Fatalf("expected ErrQueueFull once the bounded queue saturates, got %v", err)
	}
}

func TestProcessDrainsPlayNoteAndProducesAudio(t *testing.T) {
	m := New(44100)
	if err := m.Send(Command{
		Kind:     CmdPlayNote,
		OscKind:  voice.KindSine,
		Freq:     440,
		Amp:      1,
		Duration: 0.05,
		Envelope: primitives.Envelope{Sustain: 1},
	}); err != nil {
		t.Fatal(err)
	}
	dst := make([]float32, 2*512)
	m.Process(dst)
	nonZero := false
	for _, v := range dst {
		if v != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("expected PlayNote to produce audible output")
	}
	if !m.Snapshot().IsPlaying {
		t.Fatal("expected is_playing to be true while the voice is active")
	}
}

func TestProcessNeverGrowsMonoBufAfterWarmup(t *testing.T) {
	m := New(44100)
	dst := make([]float32, 2*256)
	m.Process(dst)
	c1 := cap(m.monoBuf)
	m.Process(dst)
	if cap(m.monoBuf) != c1 {
		t.Fatal("expected monoBuf capacity to stabilize across calls of the same size")
	}
}

func TestStopClearsVoicesAndPlaybacks(t *testing.T) {
	m := New(44100)
	m.Send(Command{Kind: CmdPlayNote, OscKind: voice.KindSine, Freq: 220, Amp: 1, Duration: 1, Envelope: primitives.Envelope{Sustain: 1}})
	dst := make([]float32, 256)
	m.Process(dst)
	if m.bank.ActiveCount() == 0 {
		t.Fatal("expected an active voice before Stop")
	}
	m.Send(Command{Kind: CmdStop})
	m.Process(dst)
	if m.bank.ActiveCount() != 0 {
		t.Fatal("expected Stop to clear all voices")
	}
	if m.Snapshot().IsPlaying {
		t.Fatal("expected is_playing false after Stop")
	}
}

func TestPlaySampleUsesEffectiveRate(t *testing.T) {
	m := New(44100)
	buf := &sample.Buffer{Data: make([]float32, 4410), SampleRate: 22050}
	m.Send(Command{Kind: CmdPlaySample, Buffer: buf, Rate: 1.0, Amp: 1})
	dst := make([]float32, 128)
	m.Process(dst)
	if len(m.playbacks) != 1 {
		t.Fatalf("expected one active playback, got %d", len(m.playbacks))
	}
	// effective rate = userRate * fileSR / outputSR = 1 * 22050/44100 = 0.5
	if m.playbacks[0].rate != 0.5 {
		t.Errorf("expected effective rate 0.5, got %f", m.playbacks[0].rate)
	}
}

func TestWaveformReturnsScopeSize(t *testing.T) {
	m := New(44100)
	dst := make([]float32, 256)
	m.Process(dst)
	wf := m.Waveform()
	if len(wf) != ScopeSize {
		t.Fatalf("expected scope of size %d, got %d", ScopeSize, len(wf))
	}
}

func TestSetEffectReconfiguresRackWithoutAllocation(t *testing.T) {
	m := New(44100)
	m.Send(Command{Kind: CmdSetEffect, Effect: EffectParams{
		DistortionAmount: 0.5,
		LPFCutoff:        500,
		HPFCutoff:        0,
		DelayMs:          250,
		DelayFeedback:    0.4,
		DelayWet:         0.3,
		ReverbWet:        0.2,
	}})
	dst := make([]float32, 256)
	m.Process(dst)
	if !m.rack.Distortion.Active() {
		t.Fatal("expected distortion active after SetEffect")
	}
	if !m.rack.LPF.Active() {
		t.Fatal("expected LPF active at 500Hz after SetEffect")
	}
}
