package loopweave

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
)

// EncodeWAVFloat32LE encodes interleaved float32 samples as a 32-bit
// IEEE-float PCM WAV file. A recording round-trips through the same
// decode path as any other sample.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4

	buf := make([]byte, 0, 44+dataSize)
	buf = append(buf, "RIFF"...)
	buf = appendUint32(buf, uint32(36+dataSize))
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	buf = appendUint32(buf, 16)
	buf = appendUint16(buf, 3) // IEEE float
	buf = appendUint16(buf, uint16(channels))
	buf = appendUint32(buf, uint32(sampleRate))
	buf = appendUint32(buf, uint32(byteRate))
	buf = appendUint16(buf, uint16(blockAlign))
	buf = appendUint16(buf, 32)

	buf = append(buf, "data"...)
	buf = appendUint32(buf, uint32(dataSize))
	for _, s := range samples {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(s))
	}
	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, v)
}

func appendUint16(buf []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(buf, v)
}

// StartRecording begins mirroring every rendered frame into an
// in-memory buffer via the mixer's record tap, until StopRecording is
// called.
func (p *Player) StartRecording(path string) error {
	p.mu.Lock()
	if p.recording {
		p.mu.Unlock()
		return errors.New("loopweave: already recording")
	}
	if path == "" {
		var err error
		path, err = defaultRecordingPath()
		if err != nil {
			p.mu.Unlock()
			return err
		}
	}
	p.recording = true
	p.recordPath = path
	p.recordBuf = p.recordBuf[:0]
	p.mu.Unlock()

	p.mix.SetRecordTap(func(frame []float32) {
		p.mu.Lock()
		p.recordBuf = append(p.recordBuf, frame...)
		p.mu.Unlock()
	})
	return nil
}

// StopRecording disables the tap and flushes the buffered audio to disk
// as a mono float32 WAV file, returning the path written.
func (p *Player) StopRecording() (string, error) {
	p.mix.SetRecordTap(nil)

	p.mu.Lock()
	if !p.recording {
		p.mu.Unlock()
		return "", errors.New("loopweave: not recording")
	}
	p.recording = false
	path := p.recordPath
	samples := p.recordBuf
	p.recordBuf = nil
	p.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	// The record tap mirrors the mixer's mono downmix (see
	// internal/mixer.Mixer.Process), so recordings are written as
	// single-channel WAV.
	data := EncodeWAVFloat32LE(samples, p.sampleRate, 1)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
