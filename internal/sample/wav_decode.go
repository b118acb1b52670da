package sample

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
)

// decodeWAV decodes a WAV file of any channel count, any sample rate, and
// any PCM int bit depth {8,16,24,32} or IEEE float32, collapsing to mono by
// channel averaging.D.
//
// PCM int decoding uses github.com/go-audio/wav's high-level decoder.
// IEEE float (format code 3) WAVs are not modeled by that decoder, so
// those are walked chunk-by-chunk with github.com/go-audio/riff, the same
// library go-audio/wav itself builds on.
func decodeWAV(r io.ReadSeeker) (mono []float32, sampleRate int, err error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, 0, fmt.Errorf("sample: not a valid WAV file")
	}
	if err := d.ReadInfo(); err != nil {
		return nil, 0, err
	}
	if d.WavAudioFormat == 3 {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, 0, err
		}
		return decodeFloatWAV(r)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	maxVal := float64(int64(1) << (uint(buf.SourceBitDepth) - 1))
	if buf.SourceBitDepth == 0 {
		maxVal = float64(int64(1) << 15)
	}
	frames := len(buf.Data) / channels
	mono = make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c]) / maxVal
		}
		mono[i] = float32(sum / float64(channels))
	}
	return mono, buf.Format.SampleRate, nil
}

// decodeFloatWAV manually parses fmt/data chunks for IEEE float32 PCM,
// which github.com/go-audio/wav's FullPCMBuffer path does not model.
func decodeFloatWAV(r io.ReadSeeker) ([]float32, int, error) {
	parser := riff.New(r)
	if err := parser.ParseHeaders(); err != nil {
		return nil, 0, err
	}
	var channels, sampleRate, bitsPerSample int
	var data []byte
	for {
		chunk, err := parser.NextChunk()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		switch chunk.ID {
		case riff.FmtID:
			var audioFormat, numChannels uint16
			var sr, byteRate uint32
			var blockAlign, bps uint16
			binary.Read(chunk, binary.LittleEndian, &audioFormat)
			binary.Read(chunk, binary.LittleEndian, &numChannels)
			binary.Read(chunk, binary.LittleEndian, &sr)
			binary.Read(chunk, binary.LittleEndian, &byteRate)
			binary.Read(chunk, binary.LittleEndian, &blockAlign)
			binary.Read(chunk, binary.LittleEndian, &bps)
			channels = int(numChannels)
			sampleRate = int(sr)
			bitsPerSample = int(bps)
		case "data":
			buf := make([]byte, chunk.Size)
			io.ReadFull(chunk, buf)
			data = buf
		}
		chunk.Drain()
	}
	if channels == 0 {
		channels = 1
	}
	bytesPerSample := bitsPerSample / 8
	if bytesPerSample == 0 {
		bytesPerSample = 4
	}
	frameSize := bytesPerSample * channels
	frames := len(data) / frameSize
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			off := i*frameSize + c*bytesPerSample
			bits := binary.LittleEndian.Uint32(data[off : off+4])
			sum += float64(math.Float32frombits(bits))
		}
		mono[i] = float32(sum / float64(channels))
	}
	return mono, sampleRate, nil
}
