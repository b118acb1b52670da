// Package mixer implements the realtime audio callback (spec.md component
// E): it drains a bounded command queue, mixes synth voices and sample
// playbacks, runs them through the effect chain, and exposes scope/record
// taps, all on the thread owned by the output device driver (T1).
package mixer

import (
	"errors"
	"sync"

	"github.com/cbegin/loopweave-go/internal/effects"
	"github.com/cbegin/loopweave-go/internal/voice"
)

// ScopeSize is the length of the waveform scope ring buffer
// §3 "Engine state" / §5 resource caps.
const ScopeSize = 2048

// CommandQueueCapacity bounds the MPSC queue between T2/T3 and T1, per
//
const CommandQueueCapacity = 4096

// ErrQueueFull is returned by Send when the command queue has no room;
// callers log and drop the event.
var ErrQueueFull = errors.New("mixer: command queue full")

// Mixer is the single realtime engine instance per Player. It implements
// internal/audio.SampleSource.
type Mixer struct {
	sampleRate int
	commands   chan Command

	bank      *voice.Bank
	playbacks []*samplePlayback
	rack      *effects.Rack

	// state is the short-hold-lock-guarded shared engine state read by T3
	//.
	state struct {
		mu           sync.Mutex
		isPlaying    bool
		masterVolume float64
		bpm          float64
		scope        [ScopeSize]float32
		scopePos     int
	}

	monoBuf   []float32
	recordTap func([]float32)
}

// New creates a mixer rendering at the given output sample rate.
func New(sampleRate int) *Mixer {
	m := &Mixer{
		sampleRate: sampleRate,
		commands:   make(chan Command, CommandQueueCapacity),
		bank:       voice.NewBank(),
		rack:       effects.NewRack(sampleRate),
	}
	m.state.masterVolume = 1
	m.state.bpm = 120
	return m
}

// Send enqueues a command from a non-realtime thread. It never blocks: if
// the queue is full it returns ErrQueueFull immediately (
// "Back-pressure").
func (m *Mixer) Send(cmd Command) error {
	select {
	case m.commands <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// SetRecordTap installs a callback invoked with each generated mono mix
// buffer when a recording is armed. The callback runs on the audio
// thread (T1); keep it non-blocking, mirroring the teacher's
// WithSampleTap contract.
func (m *Mixer) SetRecordTap(tap func([]float32)) {
	m.state.mu.Lock()
	m.recordTap = tap
	m.state.mu.Unlock()
}

// SampleRate returns the mixer's fixed output sample rate.
func (m *Mixer) SampleRate() int { return m.sampleRate }

// Snapshot is a point-in-time read of the engine state (
// "get-status").
type Snapshot struct {
	IsPlaying    bool
	MasterVolume float64
	BPM          float64
}

func (m *Mixer) Snapshot() Snapshot {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	return Snapshot{
		IsPlaying:    m.state.isPlaying,
		MasterVolume: m.state.masterVolume,
		BPM:          m.state.bpm,
	}
}

// Waveform copies out the current 2048-sample scope ring buffer in
// chronological order (oldest first).
func (m *Mixer) Waveform() [ScopeSize]float32 {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	var out [ScopeSize]float32
	for i := 0; i < ScopeSize; i++ {
		out[i] = m.state.scope[(m.state.scopePos+i)%ScopeSize]
	}
	return out
}

// Process implements internal/audio.SampleSource: dst holds
// len(dst)/2 interleaved stereo frames. It never allocates once
// m.monoBuf and m.playbacks have stabilized in size (invariant 1).
func (m *Mixer) Process(dst []float32) {
	m.drainCommands()

	frames := len(dst) / 2
	if cap(m.monoBuf) < frames {
		m.monoBuf = make([]float32, frames)
	}
	m.monoBuf = m.monoBuf[:frames]

	for i := 0; i < frames; i++ {
		vl, vr := m.bank.RenderFrame()
		sl, sr := m.renderPlaybacks()

		l, r := vl+sl, vr+sr
		l, r = m.rack.Process(l, r)

		vol := float32(m.currentVolume())
		l *= vol
		r *= vol
		l = hardClip(l)
		r = hardClip(r)

		dst[i*2] = l
		dst[i*2+1] = r
		m.monoBuf[i] = (l + r) * 0.5
	}

	m.pushScope(m.monoBuf)

	m.state.mu.Lock()
	tap := m.recordTap
	m.state.mu.Unlock()
	if tap != nil {
		tap(m.monoBuf)
	}

	m.refreshIsPlaying()
}

func (m *Mixer) currentVolume() float64 {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	return m.state.masterVolume
}

func (m *Mixer) pushScope(mono []float32) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	for _, v := range mono {
		m.state.scope[m.state.scopePos] = v
		m.state.scopePos = (m.state.scopePos + 1) % ScopeSize
	}
}

func (m *Mixer) refreshIsPlaying() {
	playing := m.bank.ActiveCount() > 0
	if !playing {
		for _, p := range m.playbacks {
			if p.active() {
				playing = true
				break
			}
		}
	}
	m.state.mu.Lock()
	m.state.isPlaying = playing
	m.state.mu.Unlock()
}

// renderPlaybacks sums every active sample playback with equal-power pan
// and compacts finished ones in place (invariant 3).
func (m *Mixer) renderPlaybacks() (left, right float32) {
	write := 0
	for _, p := range m.playbacks {
		if !p.active() {
			continue
		}
		s := p.next()
		lg, rg := panGains(p.pan)
		left += s * float32(lg)
		right += s * float32(rg)
		if p.active() {
			m.playbacks[write] = p
			write++
		}
	}
	m.playbacks = m.playbacks[:write]
	return left, right
}

func hardClip(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// drainCommands empties the queue non-blockingly.E step 1.
func (m *Mixer) drainCommands() {
	for {
		select {
		case cmd := <-m.commands:
			m.apply(cmd)
		default:
			return
		}
	}
}

func (m *Mixer) apply(cmd Command) {
	switch cmd.Kind {
	case CmdPlayNote:
		m.bank.NoteOn(cmd.OscKind, cmd.Freq, cmd.Amp, float64(m.sampleRate), cmd.Duration, cmd.Envelope, cmd.Pan)
	case CmdPlaySample:
		if cmd.Buffer == nil {
			return
		}
		pb := newPlayback(cmd.Buffer, cmd.Rate, float64(m.sampleRate), cmd.Amp, cmd.Pan)
		m.playbacks = append(m.playbacks, pb)
	case CmdSetBpm:
		m.state.mu.Lock()
		m.state.bpm = cmd.Value
		m.state.mu.Unlock()
	case CmdSetMasterVolume:
		vol := cmd.Value
		if vol < 0 {
			vol = 0
		}
		m.state.mu.Lock()
		m.state.masterVolume = vol
		m.state.mu.Unlock()
	case CmdSetEffect:
		m.applyEffect(cmd.Effect)
	case CmdStop:
		m.bank.Clear()
		m.playbacks = m.playbacks[:0]
		m.state.mu.Lock()
		m.state.isPlaying = false
		m.state.mu.Unlock()
	case CmdFxStart, CmdFxEnd:
		// Inert on the in-process path; consumed only by the external
		// bridge.E step 1.
	}
}

func (m *Mixer) applyEffect(p EffectParams) {
	m.rack.Distortion.SetAmount(p.DistortionAmount)
	m.rack.LPF.SetCutoff(float64(p.LPFCutoff))
	m.rack.HPF.SetCutoff(float64(p.HPFCutoff))
	m.rack.Delay.SetParams(p.DelayMs, p.DelayFeedback, p.DelayCross, p.DelayWet)
	m.rack.Reverb.SetWet(p.ReverbWet)
	switch p.ExtraType {
	case "":
		m.rack.DisableExtra()
	default:
		m.rack.EnableExtra(m.sampleRate, effects.ExtraConfig{
			ChorusDelayMs:   p.ChorusDelayMs,
			ChorusFeedback:  p.ChorusFeedback,
			ChorusDepthMs:   p.ChorusDepthMs,
			ChorusRateHz:    p.ChorusRateHz,
			ChorusWet:       p.ChorusWet,
			CompThresholdDB: p.CompThresholdDB,
			CompRatio:       p.CompRatio,
			CompAttackMs:    p.CompAttackMs,
			CompReleaseMs:   p.CompReleaseMs,
			CompMakeupDB:    p.CompMakeupDB,
		})
	}
}
