// Package primitives implements note-name/MIDI/frequency conversion and the
// scale/chord interval tables used to resolve ring and list expressions.
package primitives

import (
	"math"
	"strconv"
	"strings"
)

// RestMIDI is the sentinel MIDI value used for rest notes ("r"/"rest").
// A rest resolves to frequency 0.0; the voice it drives emits silence.
const RestMIDI = -1

var semitoneForLetter = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// FreqFromMIDI converts a MIDI note number to a frequency in Hz:
// 440 * 2^((m-69)/12).
func FreqFromMIDI(m int) float64 {
	if m < 0 {
		return 0
	}
	return 440 * math.Pow(2, float64(m-69)/12)
}

// NoteNameToMIDI parses a note name such as "c4", "CS4", "C#4", "Db4", "r",
// or "rest" into a MIDI note number. Root letter is one of A-G, followed by
// an optional accidental (S/#=sharp, B/b=flat, not combined), followed by a
// signed octave. MIDI = (octave+1)*12 + semitone. Values outside [0,127]
// are rejected.
func NoteNameToMIDI(name string) (int, error) {
	s := strings.TrimSpace(name)
	s = strings.TrimPrefix(s, ":")
	lower := strings.ToLower(s)
	if lower == "r" || lower == "rest" {
		return RestMIDI, nil
	}
	if s == "" {
		return 0, errInvalidNote(name)
	}
	root := strings.ToUpper(s[:1])
	semi, ok := semitoneForLetter[root[0]]
	if !ok {
		return 0, errInvalidNote(name)
	}
	rest := s[1:]
	// Optional accidental.
	if len(rest) > 0 {
		switch rest[0] {
		case 's', 'S', '#':
			semi++
			rest = rest[1:]
		case 'b', 'B':
			// "B" as a root letter is handled above; here rest[0] is an
			// accidental only when it isn't itself the start of the octave
			// digits (an octave never starts with a letter).
			semi--
			rest = rest[1:]
		}
	}
	octave := 4
	if rest != "" {
		o, err := strconv.Atoi(rest)
		if err != nil {
			return 0, errInvalidNote(name)
		}
		octave = o
	}
	midi := (octave+1)*12 + semi
	if midi < 0 || midi > 127 {
		return 0, errInvalidNote(name)
	}
	return midi, nil
}

// ResolveNoteToken turns a parser-level note into a frequency in Hz.
// When isNumeric is set, numeric is a frequency if > 20 (treated directly
// as Hz per spec) and otherwise a MIDI number (via FreqFromMIDI); else
// tok is a note name.
func ResolveNoteToken(tok string, numeric float64, isNumeric bool) float64 {
	if isNumeric {
		if numeric > 20 {
			return numeric
		}
		return FreqFromMIDI(int(numeric))
	}
	midi, err := NoteNameToMIDI(tok)
	if err != nil {
		return FreqFromMIDI(60) // unknown falls back to middle C, never rejected
	}
	if midi == RestMIDI {
		return 0.0
	}
	return FreqFromMIDI(midi)
}

type invalidNoteError struct{ tok string }

func (e invalidNoteError) Error() string { return "primitives: invalid note name " + strconv.Quote(e.tok) }

func errInvalidNote(tok string) error { return invalidNoteError{tok} }
