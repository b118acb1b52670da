package sample

import (
	"encoding/binary"
	"math"
	"math/rand"
	"os"
)

type builtinGenerator func(sampleRate int) *Buffer

// builtinCatalog maps a sample name to a closed-form procedural generator,
// each a function of (i, t, sr) plus a duration and a starting PRNG seed,
//.D. Drum/bass/percussion/noise/ambient/loop families are
// represented; unlisted names fall back to the 200ms 440Hz tone.
var builtinCatalog = map[string]builtinGenerator{
	"bd_haus":    kickGenerator(0.00, 60, 0.35),
	"bd_808":     kickGenerator(0.01, 50, 0.6),
	"bd_tek":     kickGenerator(0.02, 80, 0.2),
	"sn_dub":     snareGenerator(0.18, 1),
	"sn_dolf":    snareGenerator(0.15, 2),
	"drum_snare_hard": snareGenerator(0.2, 3),
	"hat_bdu":    hatGenerator(0.06, 4),
	"drum_cymbal_closed": hatGenerator(0.08, 5),
	"perc_snap":  percGenerator(0.1, 6),
	"perc_bell":  bellPercGenerator(0.6, 880, 7),
	"bass_hit_c": bassGenerator(0.5, 65.4, 8),
	"bass_dnb_f": bassGenerator(0.4, 87.3, 9),
	"noise_tom":  noiseHitGenerator(0.3, 10),
	"ambi_drone": droneGenerator(3.0, 110, 11),
	"ambi_glass_hum": droneGenerator(2.0, 220, 12),
	"loop_amen":  ampleLoopGenerator(2.0, 172, 13),
	"loop_breakbeat": ampleLoopGenerator(1.6, 140, 14),
}

func synthDecayingSine(sampleRate int, freq, duration float64) *Buffer {
	n := int(duration * float64(sampleRate))
	data := make([]float32, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		env := math.Exp(-6 * t / duration)
		data[i] = float32(math.Sin(2*math.Pi*freq*t) * env)
	}
	return &Buffer{Data: data, SampleRate: sampleRate}
}

// kickGenerator: a sine whose frequency sweeps from 4*baseFreq down to
// baseFreq over the first few tens of ms, with exponential amplitude
// decay, plus a linear click of height clickAmt over the first 2 ms.
func kickGenerator(clickAmt, baseFreq, duration float64) builtinGenerator {
	return func(sampleRate int) *Buffer {
		n := int(duration * float64(sampleRate))
		data := make([]float32, n)
		var phase float64
		for i := 0; i < n; i++ {
			t := float64(i) / float64(sampleRate)
			sweep := baseFreq * (1 + 3*math.Exp(-40*t))
			phase += sweep / float64(sampleRate)
			env := math.Exp(-8 * t / duration)
			click := 0.0
			if clickAmt > 0 && t < 0.002 {
				click = clickAmt * (1 - t/0.002)
			}
			data[i] = float32(math.Sin(2*math.Pi*phase)*env + click)
		}
		return &Buffer{Data: data, SampleRate: sampleRate}
	}
}

func snareGenerator(duration float64, seed int64) builtinGenerator {
	return func(sampleRate int) *Buffer {
		n := int(duration * float64(sampleRate))
		data := make([]float32, n)
		rng := rand.New(rand.NewSource(seed))
		var tonePhase float64
		for i := 0; i < n; i++ {
			t := float64(i) / float64(sampleRate)
			env := math.Exp(-10 * t / duration)
			tonePhase += 180.0 / float64(sampleRate)
			tone := math.Sin(2 * math.Pi * tonePhase)
			noise := rng.Float64()*2 - 1
			data[i] = float32((0.4*tone + 0.6*noise) * env)
		}
		return &Buffer{Data: data, SampleRate: sampleRate}
	}
}

func hatGenerator(duration float64, seed int64) builtinGenerator {
	return func(sampleRate int) *Buffer {
		n := int(duration * float64(sampleRate))
		data := make([]float32, n)
		rng := rand.New(rand.NewSource(seed))
		hp := 0.0
		for i := 0; i < n; i++ {
			t := float64(i) / float64(sampleRate)
			env := math.Exp(-30 * t / duration)
			noise := rng.Float64()*2 - 1
			hp += 0.6 * (noise - hp)
			data[i] = float32((noise - hp) * env)
		}
		return &Buffer{Data: data, SampleRate: sampleRate}
	}
}

func percGenerator(duration float64, seed int64) builtinGenerator {
	return func(sampleRate int) *Buffer {
		n := int(duration * float64(sampleRate))
		data := make([]float32, n)
		rng := rand.New(rand.NewSource(seed))
		for i := 0; i < n; i++ {
			t := float64(i) / float64(sampleRate)
			env := math.Exp(-20 * t / duration)
			data[i] = float32((rng.Float64()*2 - 1) * env)
		}
		return &Buffer{Data: data, SampleRate: sampleRate}
	}
}

func bellPercGenerator(duration, freq float64, seed int64) builtinGenerator {
	return func(sampleRate int) *Buffer {
		n := int(duration * float64(sampleRate))
		data := make([]float32, n)
		var p1, p2, p3 float64
		for i := 0; i < n; i++ {
			t := float64(i) / float64(sampleRate)
			env := math.Exp(-3 * t / duration)
			p1 += freq / float64(sampleRate)
			p2 += freq * 2.41 / float64(sampleRate)
			p3 += freq * 3.8 / float64(sampleRate)
			v := math.Sin(2*math.Pi*p1) + 0.5*math.Sin(2*math.Pi*p2) + 0.25*math.Sin(2*math.Pi*p3)
			data[i] = float32(v / 1.75 * env)
		}
		return &Buffer{Data: data, SampleRate: sampleRate}
	}
}

func bassGenerator(duration, freq float64, seed int64) builtinGenerator {
	return func(sampleRate int) *Buffer {
		n := int(duration * float64(sampleRate))
		data := make([]float32, n)
		var phase float64
		for i := 0; i < n; i++ {
			t := float64(i) / float64(sampleRate)
			env := math.Min(t/0.01, 1) * math.Exp(-2*t/duration)
			phase += freq / float64(sampleRate)
			saw := 2*(phase-math.Floor(phase+0.5)) - 0
			data[i] = float32(saw * env)
		}
		return &Buffer{Data: data, SampleRate: sampleRate}
	}
}

func noiseHitGenerator(duration float64, seed int64) builtinGenerator {
	return func(sampleRate int) *Buffer {
		n := int(duration * float64(sampleRate))
		data := make([]float32, n)
		rng := rand.New(rand.NewSource(seed))
		lp := 0.0
		for i := 0; i < n; i++ {
			t := float64(i) / float64(sampleRate)
			env := math.Exp(-6 * t / duration)
			noise := rng.Float64()*2 - 1
			lp += 0.2 * (noise - lp)
			data[i] = float32(lp * env)
		}
		return &Buffer{Data: data, SampleRate: sampleRate}
	}
}

func droneGenerator(duration, freq float64, seed int64) builtinGenerator {
	return func(sampleRate int) *Buffer {
		n := int(duration * float64(sampleRate))
		data := make([]float32, n)
		var p1, p2 float64
		for i := 0; i < n; i++ {
			t := float64(i) / float64(sampleRate)
			fade := math.Min(t/0.2, 1) * math.Min((duration-t)/0.3, 1)
			if fade < 0 {
				fade = 0
			}
			p1 += freq / float64(sampleRate)
			p2 += freq * 1.003 / float64(sampleRate)
			v := 0.5*math.Sin(2*math.Pi*p1) + 0.5*math.Sin(2*math.Pi*p2)
			data[i] = float32(v * fade)
		}
		return &Buffer{Data: data, SampleRate: sampleRate}
	}
}

// ampleLoopGenerator paints a rhythmic loop by stepping a 16-step pattern
// at the given BPM and summing kick/snare/hat hits.D.
func ampleLoopGenerator(duration, bpm float64, seed int64) builtinGenerator {
	kickPattern := [16]bool{true, false, false, false, true, false, false, false, true, false, false, false, true, false, false, false}
	snarePattern := [16]bool{false, false, false, false, true, false, false, false, false, false, false, false, true, false, false, false}
	hatPattern := [16]bool{true, true, true, true, true, true, true, true, true, true, true, true, true, true, true, true}
	return func(sampleRate int) *Buffer {
		n := int(duration * float64(sampleRate))
		data := make([]float32, n)
		stepDur := 60.0 / bpm / 4.0 // 16th notes
		kick := kickGenerator(0, 60, 0.3)(sampleRate)
		snare := snareGenerator(0.15, seed+1)(sampleRate)
		hat := hatGenerator(0.05, seed+2)(sampleRate)
		steps := int(duration / stepDur)
		for s := 0; s < steps; s++ {
			idx := s % 16
			startSample := int(float64(s) * stepDur * float64(sampleRate))
			if kickPattern[idx] {
				mixInto(data, kick.Data, startSample)
			}
			if snarePattern[idx] {
				mixInto(data, snare.Data, startSample)
			}
			if hatPattern[idx] {
				mixInto(data, hat.Data, startSample)
			}
		}
		return &Buffer{Data: data, SampleRate: sampleRate}
	}
}

func mixInto(dst, src []float32, offset int) {
	for i, v := range src {
		j := offset + i
		if j < 0 || j >= len(dst) {
			continue
		}
		dst[j] += v
	}
}

// writeWAVFloat32 persists a mono IEEE-float32 WAV, the same container
// format the recording runtime control emits, so generated
// built-ins round-trip through the ordinary decode path on reuse.
func writeWAVFloat32(path string, data []float32, sampleRate int) error {
	const channels = 1
	dataSize := len(data) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range data {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return os.WriteFile(path, out, 0o644)
}
