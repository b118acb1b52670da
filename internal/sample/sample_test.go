package sample

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

func TestResolveFallsBackToToneWhenNotFound(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, filepath.Join(dir, "gen"), testLogger())
	buf, err := s.Resolve("totally_unknown_sample_xyz")
	if err != nil {
		t.Fatalf("Resolve should never error, got %v", err)
	}
	if len(buf.Data) == 0 {
		t.Fatal("expected non-empty fallback tone")
	}
	if buf.SampleRate != defaultDecodeSampleRate {
		t.Errorf("expected fallback sample rate %d, got %d", defaultDecodeSampleRate, buf.SampleRate)
	}
}

func TestResolveCachesResult(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, filepath.Join(dir, "gen"), testLogger())
	a, _ := s.Resolve("bd_haus")
	b, _ := s.Resolve("bd_haus")
	if &a.Data[0] != &b.Data[0] {
		t.Fatal("expected cached resolve to return the same underlying buffer")
	}
}

func TestResolveBuiltinGeneratesAndPersists(t *testing.T) {
	dir := t.TempDir()
	genRoot := filepath.Join(dir, "gen")
	s := NewStore(dir, genRoot, testLogger())
	buf, err := s.Resolve("sn_dub")
	if err != nil || len(buf.Data) == 0 {
		t.Fatalf("expected generated snare sample, err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(genRoot, "sn_dub.wav")); err != nil {
		t.Fatalf("expected generated sample persisted to genRoot: %v", err)
	}
}

func TestResolveFindsDrumsSubdirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "drums"), 0o755); err != nil {
		t.Fatal(err)
	}
	buf := synthDecayingSine(44100, 220, 0.1)
	if err := writeWAVFloat32(filepath.Join(dir, "drums", "custom_kick.wav"), buf.Data, buf.SampleRate); err != nil {
		t.Fatal(err)
	}
	s := NewStore(dir, filepath.Join(dir, "gen"), testLogger())
	got, err := s.Resolve("custom_kick")
	if err != nil {
		t.Fatalf("expected to resolve custom_kick from drums/, got %v", err)
	}
	if len(got.Data) == 0 {
		t.Fatal("expected non-empty decoded buffer")
	}
}

func TestListNamesIncludesBuiltinCatalog(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, filepath.Join(dir, "gen"), testLogger())
	names := s.ListNames()
	found := false
	for _, n := range names {
		if n == "bd_haus" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected ListNames to include built-in catalog entries")
	}
}

func TestWAVRoundTripLengthMatchesSampleCount(t *testing.T) {
	dir := t.TempDir()
	buf := synthDecayingSine(44100, 440, 0.5)
	path := filepath.Join(dir, "rt.wav")
	if err := writeWAVFloat32(path, buf.Data, buf.SampleRate); err != nil {
		t.Fatal(err)
	}
	s := NewStore(dir, filepath.Join(dir, "gen"), testLogger())
	decoded, err := s.decodeFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded.Data) != len(buf.Data) {
		t.Errorf("expected round-tripped length %d, got %d", len(buf.Data), len(decoded.Data))
	}
}
