package loopweave

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestEncodeWAVFloat32LEHeader(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1}
	data := EncodeWAVFloat32LE(samples, 44100, 1)

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE markers")
	}
	if string(data[12:16]) != "fmt " {
		t.Fatalf("missing fmt chunk")
	}
	audioFormat := binary.LittleEndian.Uint16(data[20:22])
	if audioFormat != 3 {
		t.Fatalf("expected IEEE float format (3), got %d", audioFormat)
	}
	channels := binary.LittleEndian.Uint16(data[22:24])
	if channels != 1 {
		t.Fatalf("expected 1 channel, got %d", channels)
	}
	sampleRate := binary.LittleEndian.Uint32(data[24:28])
	if sampleRate != 44100 {
		t.Fatalf("expected 44100 Hz, got %d", sampleRate)
	}
	if string(data[36:40]) != "data" {
		t.Fatalf("missing data chunk")
	}
	dataSize := binary.LittleEndian.Uint32(data[40:44])
	if int(dataSize) != len(samples)*4 {
		t.Fatalf("expected data size %d, got %d", len(samples)*4, dataSize)
	}
}

func TestEncodeWAVFloat32LERoundTripsSampleValues(t *testing.T) {
	samples := []float32{0.25, -0.75}
	data := EncodeWAVFloat32LE(samples, 48000, 1)
	payload := data[44:]
	for i, want := range samples {
		bits := binary.LittleEndian.Uint32(payload[i*4 : i*4+4])
		got := math.Float32frombits(bits)
		if got != want {
			t.Fatalf("sample %d: expected %v, got %v", i, want, got)
		}
	}
}
