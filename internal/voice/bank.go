package voice

import (
	"sync"

	"github.com/cbegin/loopweave-go/internal/primitives"
)

// maxVoices bounds concurrent polyphony; NoteOn beyond this count steals
// an existing voice (see stealOne) rather than growing unbounded, so
// the mixer's render loop stays O(voices) and allocation-free in steady
// state.
const maxVoices = 64

// Bank owns the pool of live SynthVoices. NoteOn/RenderFrame/Clear run on
// the realtime mixer callback (T1), fed through the mixer's command
// queue; every method takes the short-hold mutex so ActiveCount can be
// read from other threads.
type Bank struct {
	mu     sync.Mutex // guards voices and nextID; ActiveCount is queried from non-RT threads
	voices []*SynthVoice
	nextID int
}

// NewBank returns an empty voice bank.
func NewBank() *Bank {
	return &Bank{voices: make([]*SynthVoice, 0, maxVoices)}
}

// NoteOn creates a new voice (stealing one via stealOne if at capacity) and
// returns an id used later to target it (though spec voices are not
// individually note-off'd; the id is retained for symmetry with bridge
// routing).
func (b *Bank) NoteOn(kind Kind, freq, amp float64, sampleRate, duration float64, env primitives.Envelope, pan float64) int {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.mu.Unlock()

	v := NewSynthVoice(kind, freq, amp, sampleRate, duration, env, pan)
	b.mu.Lock()
	if len(b.voices) >= maxVoices {
		b.stealOne()
	}
	b.voices = append(b.voices, v)
	b.mu.Unlock()
	return id
}

// stealOne retires the first inactive voice if there is one; otherwise it
// retires the active voice with the least remaining lifetime (closest to
// its own total), whatever its age or loudness.
func (b *Bank) stealOne() {
	worst := -1
	worstRemaining := -1.0
	for i, v := range b.voices {
		if !v.Active() {
			worst = i
			break
		}
		remaining := v.TotalSeconds() - float64(v.elapsedSamples)/v.SampleRate
		if worstRemaining < 0 || remaining < worstRemaining {
			worstRemaining = remaining
			worst = i
		}
	}
	if worst >= 0 {
		b.voices = append(b.voices[:worst], b.voices[worst+1:]...)
	}
}

// RenderFrame mixes every active voice into a stereo pair using the
// equal-power pan gains from, and retires finished voices by
// compaction in place, per invariant 2.
func (b *Bank) RenderFrame() (left, right float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	write := 0
	for _, v := range b.voices {
		if !v.Active() {
			continue
		}
		sample := v.Render()
		lg, rg := panGains(v.Pan)
		left += sample * float32(lg)
		right += sample * float32(rg)
		if v.Active() {
			b.voices[write] = v
			write++
		}
	}
	b.voices = b.voices[:write]
	return left, right
}

// panGains implements
// pan in [-1, 1].
func panGains(pan float64) (left, right float64) {
	left = clamp01((1 - pan) / 2)
	right = clamp01((1 + pan) / 2)
	return
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clear drops every active voice (Stop command).
func (b *Bank) Clear() {
	b.mu.Lock()
	b.voices = b.voices[:0]
	b.mu.Unlock()
}

// ActiveCount reports the number of live voices; safe to call from any
// thread.
func (b *Bank) ActiveCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.voices)
}
