// Package loopweave is the public API surface: compiling and running
// source text in the mini-language, dispatching its timed schedule in
// real time against the in-process mixer or an external synthesis
// engine, and the ancillary controls (volume, BPM, waveform/status
// readout, recording, sample/synth browsing) that a language-agnostic
// caller (a GUI, a CLI, a test harness) drives one at a time.
package loopweave

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	intaudio "github.com/cbegin/loopweave-go/internal/audio"
	"github.com/cbegin/loopweave-go/internal/bridge"
	"github.com/cbegin/loopweave-go/internal/lang"
	"github.com/cbegin/loopweave-go/internal/lower"
	"github.com/cbegin/loopweave-go/internal/mixer"
	"github.com/cbegin/loopweave-go/internal/primitives"
	"github.com/cbegin/loopweave-go/internal/sample"
	"github.com/cbegin/loopweave-go/internal/scheduler"
	"github.com/cbegin/loopweave-go/internal/voice"
)

// RunResult is what RunCode returns to the caller immediately, before
// any lowered event has actually been dispatched. A successful parse
// and lowering always reports success even if some events later fail
// at scheduling time.
type RunResult struct {
	Success         bool
	Message         string
	SetupTimeMs     float64
	EffectiveBPM    float64
	Logs            []string
	DurationEstim   float64
}

// Status is a point-in-time read of the engine's playback state.
type Status struct {
	IsPlaying    bool
	MasterVolume float64
	BPM          float64
	IsRecording  bool
}

// PlayerOption configures a Player at construction time.
type PlayerOption func(*playerConfig)

type playerConfig struct {
	samplesRoot string
	genRoot     string
	logger      zerolog.Logger
	seed        int64
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{
		samplesRoot: defaultSamplesRoot(),
		genRoot:     defaultGenRoot(),
		logger:      zerolog.New(os.Stderr).With().Timestamp().Logger(),
		seed:        1,
	}
}

// WithSamplesRoot overrides the on-disk search root for sample files.
func WithSamplesRoot(root string) PlayerOption {
	return func(cfg *playerConfig) { cfg.samplesRoot = root }
}

// WithGeneratedSamplesRoot overrides the directory procedurally
// generated built-in samples are written to and reused from.
func WithGeneratedSamplesRoot(root string) PlayerOption {
	return func(cfg *playerConfig) { cfg.genRoot = root }
}

// WithLogger installs a zerolog.Logger used for every non-fatal log
// path below.
func WithLogger(log zerolog.Logger) PlayerOption {
	return func(cfg *playerConfig) { cfg.logger = log }
}

// WithRandomSeed fixes the parser's random-expression seed
// (rrand/rand/one_in/.choose/...), useful for deterministic tests.
func WithRandomSeed(seed int64) PlayerOption {
	return func(cfg *playerConfig) { cfg.seed = seed }
}

// Player is the root object a caller constructs once: it owns the
// parse context, the sample store, the realtime mixer and its output
// stream, the dispatch scheduler, the log ring, and (optionally) the
// external-engine bridge.
type Player struct {
	mu sync.Mutex

	sampleRate int
	log        zerolog.Logger
	logs       *logRing

	ctx   *lang.Context
	store *sample.Store
	mix   *mixer.Mixer
	out   *intaudio.Player
	sched *scheduler.Scheduler

	bridge      *bridge.Bridge
	useExternal bool

	volume float64
	bpm    float64

	recording  bool
	recordPath string
	recordBuf  []float32
}

// NewPlayer constructs a Player rendering at sampleRate, with its
// output stream already running.
func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("loopweave: sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	mix := mixer.New(sampleRate)
	out, err := intaudio.NewPlayer(sampleRate, mix)
	if err != nil {
		return nil, fmt.Errorf("loopweave: output device: %w", err)
	}
	out.Play()

	p := &Player{
		sampleRate: sampleRate,
		log:        cfg.logger,
		logs:       newLogRing(),
		ctx:        lang.NewContext(cfg.seed),
		store:      sample.NewStore(cfg.samplesRoot, cfg.genRoot, cfg.logger),
		mix:        mix,
		out:        out,
		sched:      scheduler.New(cfg.logger),
		volume:     1,
		bpm:        120,
	}
	return p, nil
}

// RunCode parses, lowers, and dispatches one take of source text.
// Parsing itself never rejects input — unknown directives degrade to
// a no-op Comment — so this method can only fail to start a run when
// the external engine was selected but never booted.
func (p *Player) RunCode(source string) (RunResult, error) {
	start := time.Now()

	p.mu.Lock()
	useExternal := p.useExternal
	br := p.bridge
	bpm := p.bpm
	p.mu.Unlock()

	if useExternal && br == nil {
		return RunResult{Success: false, Message: "external engine selected but not booted"},
			errors.New("loopweave: external engine not booted")
	}

	cmds := lang.Parse(p.ctx, source)
	result := lower.Lower(p.ctx, cmds, bpm, p.store)
	for _, msg := range result.Logs {
		p.logs.Add(msg)
	}
	if result.EventCapHit {
		p.logs.Add("warning: lowered event cap (100000) reached; remaining events dropped")
	}
	if result.IterationsCapHit {
		p.logs.Add("warning: a loop hit its 500-iteration expansion cap")
	}

	p.mu.Lock()
	p.bpm = result.EffectiveBpm
	p.mu.Unlock()

	var send scheduler.EventSender
	if useExternal {
		send = br.Dispatch
	} else {
		send = func(ev lower.Event) error { return p.mix.Send(ev.Cmd) }
	}
	p.sched.Run(result.Events, send)

	return RunResult{
		Success:       true,
		Message:       "ok",
		SetupTimeMs:   float64(time.Since(start)) / float64(time.Millisecond),
		EffectiveBPM:  result.EffectiveBpm,
		Logs:          result.Logs,
		DurationEstim: result.DurationEstim,
	}, nil
}

// Stop bumps the session epoch (invalidating every in-flight dispatch
// worker from a prior run) and clears active voices/playbacks/external
// nodes. Always succeeds.
func (p *Player) Stop() error {
	p.sched.Stop()
	p.mu.Lock()
	useExternal, br := p.useExternal, p.bridge
	p.mu.Unlock()
	if err := p.mix.Send(mixer.Command{Kind: mixer.CmdStop}); err != nil {
		p.log.Warn().Err(err).Msg("loopweave: stop command dropped, queue full")
	}
	if useExternal && br != nil {
		return br.Dispatch(lower.Event{Cmd: mixer.Command{Kind: mixer.CmdStop}})
	}
	return nil
}

// GetWaveform returns the current 2048-sample mono scope buffer.
func (p *Player) GetWaveform() [mixer.ScopeSize]float32 {
	p.mu.Lock()
	useExternal, br := p.useExternal, p.bridge
	p.mu.Unlock()
	if useExternal && br != nil {
		var out [mixer.ScopeSize]float32
		copy(out[:], br.Scope())
		return out
	}
	return p.mix.Waveform()
}

// GetStatus reads the engine's current state.
func (p *Player) GetStatus() Status {
	snap := p.mix.Snapshot()
	p.mu.Lock()
	recording := p.recording
	p.mu.Unlock()
	return Status{
		IsPlaying:    snap.IsPlaying,
		MasterVolume: snap.MasterVolume,
		BPM:          snap.BPM,
		IsRecording:  recording,
	}
}

// SetVolume sets the master volume scalar (1.0 is unity).
func (p *Player) SetVolume(v float64) error {
	p.mu.Lock()
	p.volume = v
	p.mu.Unlock()
	return p.mix.Send(mixer.Command{Kind: mixer.CmdSetMasterVolume, Value: v})
}

// SetBpm sets the BPM that the next RunCode call starts lowering at.
func (p *Player) SetBpm(bpm float64) {
	p.mu.Lock()
	p.bpm = bpm
	p.mu.Unlock()
}

// ListSamples returns every cached and built-in sample name.
func (p *Player) ListSamples() []string {
	return p.store.ListNames()
}

// PlaySampleFile previews a single sample reference immediately, at
// t=0, bypassing parsing and lowering.
func (p *Player) PlaySampleFile(ref string, amp, pan float64) error {
	buf, err := p.store.Resolve(ref)
	if err != nil {
		return err
	}
	return p.mix.Send(mixer.Command{Kind: mixer.CmdPlaySample, Buffer: buf, Rate: 1, Amp: amp, Pan: pan})
}

// PreviewSynth plays one note immediately on the given oscillator kind
// at the given note name or MIDI/frequency token.
func (p *Player) PreviewSynth(synthName, noteToken string, amp float64) error {
	freq := primitives.ResolveNoteToken(noteToken, 0, false)
	return p.mix.Send(mixer.Command{
		Kind:     mixer.CmdPlayNote,
		OscKind:  voice.KindFromName(synthName),
		Freq:     freq,
		Amp:      amp,
		Duration: 1,
		Envelope: primitives.Envelope{Attack: 0.01, Decay: 0.05, Sustain: 0.8, Release: 0.3},
	})
}

// SetEffects applies a raw effect configuration directly to the
// mixer's global chain, bypassing with_fx scoping: distortion, lpf
// cutoff, hpf cutoff, delay ms, delay feedback, reverb wet.
func (p *Player) SetEffects(distortion, lpfCutoff, hpfCutoff, delayMs, delayFeedback, reverbWet float64) error {
	return p.mix.Send(mixer.Command{
		Kind: mixer.CmdSetEffect,
		Effect: mixer.EffectParams{
			DistortionAmount: float32(distortion),
			LPFCutoff:        float32(lpfCutoff),
			HPFCutoff:        float32(hpfCutoff),
			DelayMs:          float32(delayMs),
			DelayFeedback:    float32(delayFeedback),
			DelayWet:         1,
			ReverbWet:        float32(reverbWet),
		},
	})
}

// Logs returns the accumulated engine log ring, capped at 1000 entries.
func (p *Player) Logs() []string { return p.logs.Snapshot() }

// EnableExternalEngine boots the co-located synthesis server and routes
// subsequent RunCode dispatches to it instead of the in-process mixer.
// On boot failure it demotes to the in-process engine silently, logging
// the cause.
func (p *Player) EnableExternalEngine(ctx context.Context, cfg bridge.ServerConfig) error {
	br, err := bridge.Boot(ctx, cfg, p.log)
	if err != nil {
		p.log.Warn().Err(err).Msg("loopweave: external engine boot failed, staying on in-process engine")
		p.mu.Lock()
		p.useExternal = false
		p.bridge = nil
		p.mu.Unlock()
		return err
	}
	p.mu.Lock()
	p.bridge = br
	p.useExternal = true
	p.mu.Unlock()
	return nil
}

// DisableExternalEngine tears the bridge down and returns dispatch to
// the in-process mixer.
func (p *Player) DisableExternalEngine() error {
	p.mu.Lock()
	br := p.bridge
	p.bridge = nil
	p.useExternal = false
	p.mu.Unlock()
	if br == nil {
		return nil
	}
	return br.Shutdown()
}

// defaultSamplesRoot and defaultGenRoot locate the per-user directory
// that holds procedurally generated built-in samples.
func defaultSamplesRoot() string {
	return defaultGenRoot()
}

func defaultGenRoot() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "loopweave", "samples")
	}
	return filepath.Join(dir, "loopweave", "samples")
}

// defaultRecordingPath is `<user home>/Music/..`.
func defaultRecordingPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("loopweave-%d.wav", time.Now().UnixNano())
	return filepath.Join(home, "Music", name), nil
}
