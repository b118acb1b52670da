package sample

import (
	"bytes"
	"io"

	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
)

// decodeMP3 decodes an MP3 stream frame-by-frame via ebiten's mp3 decoder
// (same ecosystem as the teacher's ebiten/v2/audio dependency), normalizing
// int16 stereo samples to [-1,1] mono by channel averaging.
func decodeMP3(r io.Reader) (mono []float32, sampleRate int, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	stream, err := mp3.DecodeWithSampleRate(defaultDecodeSampleRate, bytes.NewReader(data))
	if err != nil {
		return nil, 0, err
	}
	sampleRate = stream.SampleRate()
	buf := make([]byte, 4096)
	var pcm []byte
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			pcm = append(pcm, buf[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
	}
	// ebiten's mp3 decoder always emits interleaved 16-bit stereo frames.
	const bytesPerFrame = 4
	frames := len(pcm) / bytesPerFrame
	mono = make([]float32, frames)
	for i := 0; i < frames; i++ {
		l := int16(uint16(pcm[i*4]) | uint16(pcm[i*4+1])<<8)
		r := int16(uint16(pcm[i*4+2]) | uint16(pcm[i*4+3])<<8)
		mono[i] = float32((float64(l) + float64(r)) / 2.0 / 32768.0)
	}
	return mono, sampleRate, nil
}

// defaultDecodeSampleRate is used only as the resampling target ebiten's
// decoder accepts; the sample store resamples again to the engine's
// output rate via the playback-rate calculation in, so this
// value just needs to be a supported high-quality rate.
const defaultDecodeSampleRate = 44100
