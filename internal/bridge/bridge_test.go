package bridge

import (
	"testing"

	"github.com/cbegin/loopweave-go/internal/mixer"
)

func TestNodeIDAllocatorStartsAboveReservedGroups(t *testing.T) {
	a := NewNodeIDAllocator()
	first := a.Next()
	if first <= MonitorGroupID {
		t.Fatalf("first allocated node id %d must exceed the reserved group ids", first)
	}
	second := a.Next()
	if second <= first {
		t.Fatalf("allocator must be monotonically increasing, got %d then %d", first, second)
	}
}

func TestBufferIDAllocatorStartsAboveScopeBuffer(t *testing.T) {
	a := NewBufferIDAllocator()
	first := a.Next()
	if first <= ScopeBufferID {
		t.Fatalf("first allocated buffer id %d must exceed the reserved scope buffer id", first)
	}
}

func TestFxNodeMessagesSkipsInaudibleStages(t *testing.T) {
	alloc := NewNodeIDAllocator()
	msgs, ids := fxNodeMessages(alloc, mixer.EffectParams{
		LPFCutoff: 20000, // >= 19999: inactive
		HPFCutoff: 10,    // <= 21: inactive
		ReverbWet: 0,     // reverb is always present regardless of wet
	})
	if len(msgs) != 1 || len(ids) != 1 {
		t.Fatalf("expected only the always-present reverb stage, got %d messages", len(msgs))
	}
	if msgs[0].Address != "/s_new" {
		t.Fatalf("expected /s_new, got %s", msgs[0].Address)
	}
}

func TestFxNodeMessagesIncludesActiveStages(t *testing.T) {
	alloc := NewNodeIDAllocator()
	msgs, ids := fxNodeMessages(alloc, mixer.EffectParams{
		DistortionAmount: 0.5,
		LPFCutoff:        8000,
		HPFCutoff:        200,
		DelayMs:          250,
		DelayFeedback:    0.4,
		ReverbWet:        0.3,
	})
	// distortion, lpf, hpf, delay, reverb = 5 stages.
	if len(msgs) != 5 || len(ids) != 5 {
		t.Fatalf("expected 5 active fx stages, got %d", len(msgs))
	}
}

func TestFxNodeMessagesAddsExtraEffectWhenSelected(t *testing.T) {
	alloc := NewNodeIDAllocator()
	msgs, _ := fxNodeMessages(alloc, mixer.EffectParams{
		LPFCutoff: 20000,
		HPFCutoff: 10,
		ExtraType: "chorus",
	})
	if len(msgs) != 2 {
		t.Fatalf("expected reverb + chorus, got %d messages", len(msgs))
	}
}
