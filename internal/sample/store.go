// Package sample implements the sample store: decode WAV/MP3 to mono f32,
// cache by path, and synthesize built-in drum/bass/fx samples on demand,
//.
package sample

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Buffer is an immutable, shared mono sample buffer. Once published into
// the Store's cache it is read-only, so the realtime mixer can hold a
// reference without any lock (
// sample data via clone-on-send" — here a read-only slice reference plays
// the same role since Go slices are reference types and this buffer is
// never mutated after Resolve returns it).
type Buffer struct {
	Data       []float32
	SampleRate int

	// Path is the on-disk location backing this buffer, if any. The
	// external-engine bridge uses it for `/b_allocRead`;
	// buffers with no backing file (e.g. the synthesized fallback tone)
	// leave this empty and the bridge falls back to `/b_alloc` +
	// `/b_setn` with Data directly.
	Path string
}

// Store resolves sample references to Buffers, decoding and caching from
// disk, or synthesizing a built-in/fallback buffer when no file is found.
// The cache is populated only by non-realtime callers (T3) during preload;
// once a run's dispatch has started the map is read-only, matching
//.
type Store struct {
	mu          sync.RWMutex
	cache       map[string]*Buffer
	samplesRoot string
	genRoot     string
	log         zerolog.Logger
}

// NewStore creates a sample store rooted at samplesRoot (searched for
// on-disk samples) and genRoot (where procedurally generated built-ins
// are written on first use.D).
func NewStore(samplesRoot, genRoot string, log zerolog.Logger) *Store {
	return &Store{
		cache:       make(map[string]*Buffer),
		samplesRoot: samplesRoot,
		genRoot:     genRoot,
		log:         log,
	}
}

// Resolve looks up a sample reference.D's order:
// absolute path; path-with-extension relative to samples root;
// drums/<name>.wav; <name>.wav; substring search; finally a built-in
// synthesis, or a 200ms 440Hz fallback tone if even that is unavailable.
func (s *Store) Resolve(ref string) (*Buffer, error) {
	key := strings.TrimPrefix(ref, ":")
	s.mu.RLock()
	if b, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return b, nil
	}
	s.mu.RUnlock()

	buf, err := s.resolveUncached(key)
	if err != nil {
		s.log.Warn().Str("sample", key).Err(err).Msg("sample load failed, using fallback tone")
		buf = fallbackTone(defaultDecodeSampleRate)
	}
	s.mu.Lock()
	s.cache[key] = buf
	s.mu.Unlock()
	return buf, nil
}

func (s *Store) resolveUncached(key string) (*Buffer, error) {
	if filepath.IsAbs(key) {
		return s.decodeFile(key)
	}
	if ext := filepath.Ext(key); ext != "" {
		return s.decodeFile(filepath.Join(s.samplesRoot, key))
	}
	candidates := []string{
		filepath.Join(s.samplesRoot, "drums", key+".wav"),
		filepath.Join(s.samplesRoot, key+".wav"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return s.decodeFile(c)
		}
	}
	if found, ok := s.substringSearch(key); ok {
		return s.decodeFile(found)
	}
	if gen, ok := builtinCatalog[key]; ok {
		return s.loadOrGenerate(key, gen)
	}
	return nil, errNotFound(key)
}

func (s *Store) substringSearch(token string) (string, bool) {
	var found string
	filepath.Walk(s.samplesRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if found != "" {
			return nil
		}
		if strings.Contains(strings.ToLower(info.Name()), strings.ToLower(token)) {
			found = path
		}
		return nil
	})
	return found, found != ""
}

func (s *Store) decodeFile(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ext := strings.ToLower(filepath.Ext(path))
	var data []float32
	var sr int
	switch ext {
	case ".mp3":
		data, sr, err = decodeMP3(f)
	default:
		data, sr, err = decodeWAV(f)
	}
	if err != nil {
		return nil, err
	}
	return &Buffer{Data: data, SampleRate: sr, Path: path}, nil
}

// loadOrGenerate writes the procedural sample to genRoot on first use and
// reuses the file thereafter.D.
func (s *Store) loadOrGenerate(name string, gen builtinGenerator) (*Buffer, error) {
	path := filepath.Join(s.genRoot, name+".wav")
	if _, err := os.Stat(path); err == nil {
		return s.decodeFile(path)
	}
	buf := gen(defaultDecodeSampleRate)
	if err := os.MkdirAll(s.genRoot, 0o755); err == nil {
		if err := writeWAVFloat32(path, buf.Data, buf.SampleRate); err != nil {
			s.log.Warn().Str("sample", name).Err(err).Msg("failed to persist generated sample")
		} else {
			buf.Path = path
		}
	}
	return buf, nil
}

// ListNames returns every cached name plus the built-in catalog, for the
// "list samples" runtime control.
func (s *Store) ListNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for k := range s.cache {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for k := range builtinCatalog {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

func fallbackTone(sampleRate int) *Buffer {
	return synthDecayingSine(sampleRate, 440, 0.2)
}

type notFoundError struct{ key string }

func (e notFoundError) Error() string { return "sample: not found: " + e.key }
func errNotFound(key string) error    { return notFoundError{key} }
