package voice

import (
	"math"
	"math/rand"
)

// karplus implements Karplus-Strong plucked-string synthesis: a ring buffer
// of length ceil(SR/freq) seeded with white noise; each sample outputs the
// head and writes back the two-tap average of head and the next sample,
// scaled by a decay factor (spec: 0.998).
type karplus struct {
	buf  []float64
	pos  int
}

func newKarplus(sampleRate, freq float64) *karplus {
	if freq <= 0 {
		freq = 110
	}
	n := int(math.Ceil(sampleRate / freq))
	if n < 2 {
		n = 2
	}
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = rand.Float64()*2 - 1
	}
	return &karplus{buf: buf}
}

func (k *karplus) next() float64 {
	n := len(k.buf)
	head := k.buf[k.pos]
	nextIdx := (k.pos + 1) % n
	avg := 0.5 * (head + k.buf[nextIdx]) * 0.998
	k.buf[k.pos] = avg
	k.pos = nextIdx
	return head
}
