package bridge

import (
	"time"

	"github.com/cbegin/loopweave-go/internal/lower"
	"github.com/cbegin/loopweave-go/internal/mixer"
	"github.com/cbegin/loopweave-go/internal/sample"
)

// Dispatch translates one lowered event into the external engine's
// control protocol and sends it, matching internal/scheduler's
// EventSender signature (,
// translate to the control protocol").
func (b *Bridge) Dispatch(ev lower.Event) error {
	cmd := ev.Cmd
	switch cmd.Kind {
	case mixer.CmdPlayNote:
		return b.dispatchPlayNote(cmd)
	case mixer.CmdPlaySample:
		return b.dispatchPlaySample(cmd)
	case mixer.CmdSetEffect:
		return b.dispatchSetEffect(cmd)
	case mixer.CmdStop:
		return b.dispatchStop()
	case mixer.CmdFxStart:
		b.pendingBracket = true
		return nil
	case mixer.CmdFxEnd:
		return b.dispatchFxEnd()
	case mixer.CmdSetBpm, mixer.CmdSetMasterVolume:
		// No external-engine equivalent; BPM/volume are mixer-local
		//.
		return nil
	}
	return nil
}

func (b *Bridge) dispatchPlayNote(cmd mixer.Command) error {
	id := b.nodeIDs.Next()
	env := envelopeArgs{
		attack:  cmd.Envelope.Attack,
		sustain: cmd.Envelope.Total(cmd.Duration) - cmd.Envelope.Attack - cmd.Envelope.Release,
		release: cmd.Envelope.Release,
	}
	return b.conn.Send(playNoteMessage(id, cmd.OscKind, cmd.Freq, cmd.Amp, cmd.Pan, env))
}

func (b *Bridge) dispatchPlaySample(cmd mixer.Command) error {
	if cmd.Buffer == nil {
		return nil
	}
	bufID, err := b.ensureBufferLoaded(cmd.Buffer)
	if err != nil {
		return err
	}
	nodeID := b.nodeIDs.Next()
	return b.conn.Send(playSampleMessage(nodeID, bufID, cmd.Amp, cmd.Rate, cmd.Pan))
}

// ensureBufferLoaded allocates and fills a server-side buffer for buf's
// path (or, for path-less synthesized buffers, its in-memory Data) the
// first time it's referenced, then caches the buffer id (
// "if the referenced path has not been loaded, /b_allocRead... and await
// /done"). A doneTimeout expiry is assumed success and execution
// continues.
func (b *Bridge) ensureBufferLoaded(buf *sample.Buffer) (int32, error) {
	if id, ok := b.loadedSamples[buf]; ok {
		return id, nil
	}
	id := b.bufIDs.Next()
	if buf.Path != "" {
		if err := b.conn.Send(allocReadMessage(id, buf.Path)); err != nil {
			return 0, err
		}
		b.awaitDone()
	} else {
		if err := b.conn.Send(allocMessage(id, len(buf.Data))); err != nil {
			return 0, err
		}
		if err := b.conn.Send(setBufferDataMessage(id, buf.Data)); err != nil {
			return 0, err
		}
	}
	b.loadedSamples[buf] = id
	return id, nil
}

// awaitDone blocks up to doneTimeout for a `/done` reply;
// on timeout it assumes success and returns, since a single dropped ack
// must never stall dispatch of later events.
func (b *Bridge) awaitDone() {
	select {
	case <-b.conn.DoneCh():
	case <-time.After(doneTimeout):
		b.log.Warn().Msg("bridge: /done timed out, assuming success")
	}
}

// dispatchSetEffect frees the previous global fx nodes and adds new ones
// for every non-trivial stage (
// global fx nodes, then add ... nodes to fx_group tail only when their
// parameters are non-trivial"). When it immediately follows a
// CmdFxStart, it also opens a single per-block bracket node at the tail
// of source_group and pushes its id onto the bracket stack.
func (b *Bridge) dispatchSetEffect(cmd mixer.Command) error {
	for _, id := range b.activeFxNodes {
		_ = b.conn.Send(freeNodeMessage(id))
	}
	msgs, ids := fxNodeMessages(b.nodeIDs, cmd.Effect)
	b.activeFxNodes = ids
	for _, m := range msgs {
		if err := b.conn.Send(m); err != nil {
			return err
		}
	}
	if b.pendingBracket {
		b.pendingBracket = false
		bracketID := b.nodeIDs.Next()
		if err := b.conn.Send(fxNodeMessage("with_fx_bracket", bracketID, bracketParams(cmd.Effect))); err != nil {
			return err
		}
		b.fxBracketIDs = append(b.fxBracketIDs, bracketID)
	}
	return nil
}

func (b *Bridge) dispatchFxEnd() error {
	if len(b.fxBracketIDs) == 0 {
		return nil
	}
	top := b.fxBracketIDs[len(b.fxBracketIDs)-1]
	b.fxBracketIDs = b.fxBracketIDs[:len(b.fxBracketIDs)-1]
	return b.conn.Send(freeNodeMessage(top))
}

// dispatchStop frees all nodes in the source and fx groups and recreates
// them empty (;
// reset internal trackers; recreate the empty groups").
func (b *Bridge) dispatchStop() error {
	if err := b.conn.Send(groupFreeAllMessage(SourceGroupID)); err != nil {
		return err
	}
	if err := b.conn.Send(groupFreeAllMessage(FxGroupID)); err != nil {
		return err
	}
	b.activeFxNodes = nil
	b.fxBracketIDs = nil
	if err := b.conn.Send(newGroupMessage(SourceGroupID)); err != nil {
		return err
	}
	return b.conn.Send(newGroupMessage(FxGroupID))
}

// Scope returns the most recently polled waveform scope buffer, as read
// from the external engine's scope buffer (
// polling").
func (b *Bridge) Scope() []float32 {
	if b.conn == nil {
		return nil
	}
	_ = b.conn.Send(getScopeMessage(mixer.ScopeSize))
	return b.conn.Scope()
}

func bracketParams(p mixer.EffectParams) []float64 {
	return []float64{
		float64(p.DistortionAmount), float64(p.LPFCutoff), float64(p.HPFCutoff),
		float64(p.DelayMs), float64(p.DelayFeedback), float64(p.ReverbWet),
	}
}
