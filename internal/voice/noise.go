package voice

import "math/bits"

// noiseState holds the per-voice state shared by every colored-noise kind:
// an xorshift white generator, a brown accumulator, and 16 Voss-McCartney
// pink rows with their running sum.
type noiseState struct {
	xorshift   uint32
	brownAccum float64
	pinkRows   [16]float64
	pinkSum    float64
	pinkCount  uint32
}

func newNoiseState(seed uint32) noiseState {
	if seed == 0 {
		seed = 0x9e3779b9
	}
	return noiseState{xorshift: seed}
}

func (n *noiseState) white() float64 {
	x := n.xorshift
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	n.xorshift = x
	// map uint32 to [-1, 1)
	return float64(int32(x))/float64(1<<31)
}

func (n *noiseState) brown() float64 {
	w := n.white()
	n.brownAccum += w * 0.02
	if n.brownAccum > 1 {
		n.brownAccum = 1
	}
	if n.brownAccum < -1 {
		n.brownAccum = -1
	}
	return n.brownAccum
}

// pink implements Voss-McCartney pink noise: 16 rows, each updated when the
// corresponding bit position flips in a running counter (trailing zeros of
// the counter selects which row to refresh), summed and scaled.
func (n *noiseState) pink() float64 {
	n.pinkCount++
	row := bits.TrailingZeros32(n.pinkCount)
	if row >= len(n.pinkRows) {
		row = len(n.pinkRows) - 1
	}
	n.pinkSum -= n.pinkRows[row]
	v := n.white()
	n.pinkRows[row] = v
	n.pinkSum += v
	return n.pinkSum / float64(len(n.pinkRows))
}

func (n *noiseState) grey() float64 {
	return 0.4*n.white() + 0.6*n.pink()
}

func (n *noiseState) clip() float64 {
	w := n.white()
	if w < 0 {
		return -1
	}
	return 1
}
