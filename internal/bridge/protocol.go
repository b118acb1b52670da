package bridge

import (
	"github.com/hypebeast/go-osc/osc"

	"github.com/cbegin/loopweave-go/internal/mixer"
	"github.com/cbegin/loopweave-go/internal/voice"
)

// statusMessage builds the `/status` boot poll (
// /status until reply").
func statusMessage() *osc.Message {
	return osc.NewMessage("/status")
}

// loadDirMessage builds `/d_loadDir <dir>`, issued once the three node
// groups exist.I.
func loadDirMessage(dir string) *osc.Message {
	msg := osc.NewMessage("/d_loadDir")
	msg.Append(dir)
	return msg
}

// newGroupMessage builds `/g_new <id> add_to_tail 0`, used to create the
// source/fx/monitor groups on boot in render order.
func newGroupMessage(groupID int32) *osc.Message {
	msg := osc.NewMessage("/g_new")
	msg.Append(groupID)
	msg.Append("add_to_tail")
	msg.Append(int32(0))
	return msg
}

// playNoteMessage builds the `/s_new` message for a PlayNote event
// (
// amp pan attack sustain release"). sustain is clamped >= 0.
func playNoteMessage(nodeID int32, osck voice.Kind, freq, amp, pan float64, env envelopeArgs) *osc.Message {
	sustain := env.sustain
	if sustain < 0 {
		sustain = 0
	}
	msg := osc.NewMessage("/s_new")
	msg.Append(osck.Name())
	msg.Append(nodeID)
	msg.Append("add_to_head")
	msg.Append(int32(SourceGroupID))
	msg.Append(float32(freq))
	msg.Append(float32(amp))
	msg.Append(float32(pan))
	msg.Append(float32(env.attack))
	msg.Append(float32(sustain))
	msg.Append(float32(env.release))
	return msg
}

// envelopeArgs carries just the three ADSR fields the wire protocol
// forwards; sustain here is the total-attack-release seconds, not the
// sustain *level*.
type envelopeArgs struct {
	attack, sustain, release float64
}

// allocReadMessage builds `/b_allocRead <buf_id> <path>` for a
// not-yet-loaded sample playback path.
func allocReadMessage(bufID int32, path string) *osc.Message {
	msg := osc.NewMessage("/b_allocRead")
	msg.Append(bufID)
	msg.Append(path)
	return msg
}

// allocMessage builds `/b_alloc <buf_id> <frames> 1` for a path-less
// buffer (e.g. a synthesized fallback tone), whose samples are then
// pushed with setBufferDataMessage.
func allocMessage(bufID int32, frames int) *osc.Message {
	msg := osc.NewMessage("/b_alloc")
	msg.Append(bufID)
	msg.Append(int32(frames))
	msg.Append(int32(1))
	return msg
}

// setBufferDataMessage builds `/b_setn <buf_id> 0 <n> <samples...>`
//.
func setBufferDataMessage(bufID int32, data []float32) *osc.Message {
	msg := osc.NewMessage("/b_setn")
	msg.Append(bufID)
	msg.Append(int32(0))
	msg.Append(int32(len(data)))
	for _, s := range data {
		msg.Append(s)
	}
	return msg
}

// playSampleMessage builds `/s_new playbuf <node_id> add_to_head
// source_group buf amp rate pan`.
func playSampleMessage(nodeID, bufID int32, amp, rate, pan float64) *osc.Message {
	msg := osc.NewMessage("/s_new")
	msg.Append("playbuf")
	msg.Append(nodeID)
	msg.Append("add_to_head")
	msg.Append(int32(SourceGroupID))
	msg.Append(bufID)
	msg.Append(float32(amp))
	msg.Append(float32(rate))
	msg.Append(float32(pan))
	return msg
}

// freeNodeMessage builds `/n_free <id>`, used to tear down previous
// global fx nodes (SetEffect) and FxStart/FxEnd bracket nodes.
func freeNodeMessage(nodeID int32) *osc.Message {
	msg := osc.NewMessage("/n_free")
	msg.Append(nodeID)
	return msg
}

// groupFreeAllMessage builds `/g_freeAll <group_id>` (
// "Stop -> /g_freeAll on source and fx groups").
func groupFreeAllMessage(groupID int32) *osc.Message {
	msg := osc.NewMessage("/g_freeAll")
	msg.Append(groupID)
	return msg
}

// fxNodeMessage builds an `/s_new` for one of the LPF/HPF/distortion/
// delay/reverb fx synths at the tail of fx_group.I
// "SetEffect -> free previous global fx nodes, then add ... nodes to
// fx_group tail only when their parameters are non-trivial".
func fxNodeMessage(def string, nodeID int32, params []float64) *osc.Message {
	msg := osc.NewMessage("/s_new")
	msg.Append(def)
	msg.Append(nodeID)
	msg.Append("add_to_tail")
	msg.Append(int32(FxGroupID))
	for _, p := range params {
		msg.Append(float32(p))
	}
	return msg
}

// fxNodeMessages returns one `/s_new` per non-trivial fx stage in
// mixer.EffectParams, in the, skipping stages
// whose parameters make them inaudible (LPF >= 19999 Hz, HPF <= 21 Hz,
// distortion amount <= 0.001, delay time <= 1 ms).
func fxNodeMessages(alloc *IDAllocator, p mixer.EffectParams) ([]*osc.Message, []int32) {
	var msgs []*osc.Message
	var ids []int32
	add := func(def string, params []float64) {
		id := alloc.Next()
		msgs = append(msgs, fxNodeMessage(def, id, params))
		ids = append(ids, id)
	}
	if p.DistortionAmount > 0.001 {
		add("distortion", []float64{float64(p.DistortionAmount)})
	}
	if p.LPFCutoff < 19999 {
		add("lpf", []float64{float64(p.LPFCutoff)})
	}
	if p.HPFCutoff > 21 {
		add("hpf", []float64{float64(p.HPFCutoff)})
	}
	if p.DelayMs > 1 {
		add("delay", []float64{float64(p.DelayMs), float64(p.DelayFeedback), float64(p.DelayWet)})
	}
	add("reverb", []float64{float64(p.ReverbWet)})
	switch p.ExtraType {
	case "chorus":
		add("chorus", []float64{
			float64(p.ChorusDelayMs), float64(p.ChorusFeedback),
			float64(p.ChorusDepthMs), float64(p.ChorusRateHz), float64(p.ChorusWet),
		})
	case "compressor":
		add("compressor", []float64{
			float64(p.CompThresholdDB), float64(p.CompRatio),
			float64(p.CompAttackMs), float64(p.CompReleaseMs), float64(p.CompMakeupDB),
		})
	case "ring_eq":
		add("ring_eq", nil)
	}
	return msgs, ids
}

// getScopeMessage builds `/b_getn <scope_buf> 0 2048`, the waveform poll
//.
func getScopeMessage(scopeSize int) *osc.Message {
	msg := osc.NewMessage("/b_getn")
	msg.Append(int32(ScopeBufferID))
	msg.Append(int32(0))
	msg.Append(int32(scopeSize))
	return msg
}

// quitMessage builds `/quit`, sent when the bridge shuts the child
// process down cleanly.
func quitMessage() *osc.Message {
	return osc.NewMessage("/quit")
}
