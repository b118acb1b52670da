package primitives

// Chords maps a chord name to its intervals in semitones from the root.
// Unknown names resolve to "major" (a major triad).
var Chords = map[string][]int{
	"major":      {0, 4, 7},
	"minor":      {0, 3, 7},
	"major7":     {0, 4, 7, 11},
	"dom7":       {0, 4, 7, 10},
	"minor7":     {0, 3, 7, 10},
	"aug":        {0, 4, 8},
	"dim":        {0, 3, 6},
	"dim7":       {0, 3, 6, 9},
	"half_dim7":  {0, 3, 6, 10},
	"minor_major7": {0, 3, 7, 11},
	"major9":     {0, 4, 7, 11, 14},
	"dom9":       {0, 4, 7, 10, 14},
	"minor9":     {0, 3, 7, 10, 14},
	"major11":    {0, 4, 7, 11, 14, 17},
	"dom11":      {0, 4, 7, 10, 14, 17},
	"minor11":    {0, 3, 7, 10, 14, 17},
	"major13":    {0, 4, 7, 11, 14, 17, 21},
	"dom13":      {0, 4, 7, 10, 14, 17, 21},
	"minor13":    {0, 3, 7, 10, 14, 17, 21},
	"add9":       {0, 4, 7, 14},
	"minor_add9": {0, 3, 7, 14},
	"sus2":       {0, 2, 7},
	"sus4":       {0, 5, 7},
	"power":      {0, 7},
	"1":          {0},
	"5":          {0, 7},
	"6":          {0, 4, 7, 9},
	"m6":         {0, 3, 7, 9},
}

// ChordMIDI returns the MIDI note list for the named chord rooted at
// rootMIDI. Unknown chord names fall back to "major".
func ChordMIDI(rootMIDI int, name string) []int {
	intervals, ok := Chords[name]
	if !ok {
		intervals = Chords["major"]
	}
	out := make([]int, len(intervals))
	for i, iv := range intervals {
		out[i] = rootMIDI + iv
	}
	return out
}
