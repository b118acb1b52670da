package lang

import "math/rand"

// ValueKind tags the dynamic values the parser threads through its
// context, per SPEC_FULL's "Dynamic symbol/value resolution" design note:
// the source language conflates strings, symbols, variables, and
// ring-producing expressions in the same slots, so we model them with one
// tagged union instead of Go's static typing fighting the grammar.
type ValueKind int

const (
	ValString ValueKind = iota
	ValSymbol
	ValNumber
	ValList
	ValRing
)

// Value is a resolved dynamic value: a string/symbol, a number, a plain
// list, or a ring (list + its own cursor key).
type Value struct {
	Kind    ValueKind
	Str     string
	Num     float64
	List    []string
	RingKey string
}

// maxProcedureDepth bounds mutual-recursion in define/def procedure calls
// (.. plus a bounded
// recursion guard to avoid loops via mutual recursion").
const maxProcedureDepth = 64

// Context is the parser's mutable state, threaded through every recursive
// call but never part of the emitted Command tree (
// context... owned by the parser, not threaded into output").
type Context struct {
	Vars           map[string]Value
	Rings          map[string][]string
	RingCursors    map[string]int
	Procedures     map[string]string
	ProcParams     map[string][]string
	CurrentSynth   string
	SynthDefaults  map[string]float64
	SampleDefaults map[string]float64
	GlobalTick     int
	procDepth      int
	rnd            *rand.Rand
}

// NewContext creates an empty top-level parse context with the default
// synth ("sine".B's fallback rule extended to the default
// starting oscillator).
func NewContext(seed int64) *Context {
	return &Context{
		Vars:           make(map[string]Value),
		Rings:          make(map[string][]string),
		RingCursors:    make(map[string]int),
		Procedures:     make(map[string]string),
		ProcParams:     make(map[string][]string),
		CurrentSynth:   "sine",
		SynthDefaults:  make(map[string]float64),
		SampleDefaults: make(map[string]float64),
		rnd:            rand.New(rand.NewSource(seed)),
	}
}

// TickCursor advances and returns the cursor for a ring keyed by its
// textual base expression (.tick (return list[cursor++ mod
// len], cursor keyed by the textual base expression)"), without needing
// the ring to have been named as a variable.
func (c *Context) TickCursor(key string, length int) int {
	if length <= 0 {
		return 0
	}
	pos := c.RingCursors[key] % length
	c.RingCursors[key] = (c.RingCursors[key] + 1) % length
	return pos
}

// LookCursor returns the current cursor position for a ring without
// advancing it.
func (c *Context) LookCursor(key string, length int) int {
	if length <= 0 {
		return 0
	}
	return c.RingCursors[key] % length
}

func (c *Context) Float64() float64 { return c.rnd.Float64() }
func (c *Context) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return c.rnd.Intn(n)
}
