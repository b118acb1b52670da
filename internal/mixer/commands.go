package mixer

import (
	"github.com/cbegin/loopweave-go/internal/primitives"
	"github.com/cbegin/loopweave-go/internal/sample"
	"github.com/cbegin/loopweave-go/internal/voice"
)

// CommandKind tags the variants of the realtime command queue, per
//.E "audio command variant".
type CommandKind int

const (
	CmdPlayNote CommandKind = iota
	CmdPlaySample
	CmdSetBpm
	CmdSetMasterVolume
	CmdSetEffect
	CmdStop
	CmdFxStart
	CmdFxEnd
)

// EffectParams folds a with_fx block's parameters into the single global
// effect chain
// approximates per-block fx buses with one global chain).
type EffectParams struct {
	DistortionAmount float32
	LPFCutoff        float32
	HPFCutoff        float32
	DelayMs          float32
	DelayFeedback    float32
	DelayCross       float32
	DelayWet         float32
	ReverbWet        float32
	// ExtraType selects a bonus with_fx-only effect ("chorus",
	// "compressor", "ring_eq") or "" to disable the bonus stage.
	ExtraType string

	// Bonus chorus/compressor parameters, only meaningful when ExtraType
	// selects them; populated with sensible defaults by overlayEffectParams
	// and overridden by with_fx named params.
	ChorusDelayMs    float32
	ChorusFeedback   float32
	ChorusDepthMs    float32
	ChorusRateHz     float32
	ChorusWet        float32
	CompThresholdDB  float32
	CompRatio        float32
	CompAttackMs     float32
	CompReleaseMs    float32
	CompMakeupDB     float32
}

// Command is a single realtime audio command, sent from T2/T3 onto the
// mixer's bounded queue and drained non-blockingly by T1.
type Command struct {
	Kind CommandKind

	// CmdPlayNote
	OscKind  voice.Kind
	Freq     float64
	Amp      float64
	Duration float64
	Pan      float64
	Envelope primitives.Envelope

	// CmdPlaySample
	Buffer *sample.Buffer
	Rate   float64

	// CmdSetBpm / CmdSetMasterVolume
	Value float64

	// CmdSetEffect
	Effect EffectParams
}
