package primitives

// Scales maps a scale name to its interval pattern in semitones from the
// root, spanning one octave (the octave's own root is appended by
// ScaleMIDI). Unknown names resolve to "major" per spec.
var Scales = map[string][]int{
	"major":              {0, 2, 4, 5, 7, 9, 11},
	"ionian":             {0, 2, 4, 5, 7, 9, 11},
	"minor":              {0, 2, 3, 5, 7, 8, 10},
	"aeolian":            {0, 2, 3, 5, 7, 8, 10},
	"dorian":             {0, 2, 3, 5, 7, 9, 10},
	"phrygian":           {0, 1, 3, 5, 7, 8, 10},
	"lydian":             {0, 2, 4, 6, 7, 9, 11},
	"mixolydian":         {0, 2, 4, 5, 7, 9, 10},
	"locrian":            {0, 1, 3, 5, 6, 8, 10},
	"harmonic_minor":     {0, 2, 3, 5, 7, 8, 11},
	"melodic_minor":      {0, 2, 3, 5, 7, 9, 11},
	"harmonic_major":     {0, 2, 4, 5, 7, 8, 11},
	"melodic_major":      {0, 2, 4, 5, 7, 8, 10},
	"major_pentatonic":   {0, 2, 4, 7, 9},
	"minor_pentatonic":   {0, 3, 5, 7, 10},
	"egyptian":           {0, 2, 5, 7, 10},
	"blues_major":        {0, 2, 3, 4, 7, 9},
	"blues_minor":        {0, 3, 5, 6, 7, 10},
	"whole_tone":         {0, 2, 4, 6, 8, 10},
	"chromatic":          {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	"diminished":         {0, 2, 3, 5, 6, 8, 9, 11},
	"diminished2":        {0, 1, 3, 4, 6, 7, 9, 10},
	"hexatonic":          {0, 2, 4, 5, 7, 9},
	"hex_major6":         {0, 2, 4, 5, 7, 9},
	"hex_dorian":         {0, 2, 3, 5, 7, 10},
	"hex_phrygian":       {0, 1, 3, 5, 8, 10},
	"hex_sus":            {0, 2, 5, 7, 9, 10},
	"hex_aeolian":        {0, 3, 5, 7, 8, 10},
	"indian":             {0, 1, 4, 5, 7, 8, 10},
	"ahirbhairav":        {0, 1, 4, 5, 7, 9, 10},
	"spanish":            {0, 1, 4, 5, 7, 8, 10},
	"gypsy":              {0, 2, 3, 6, 7, 8, 10},
	"hungarian_minor":    {0, 2, 3, 6, 7, 8, 11},
	"bhairav":            {0, 1, 4, 5, 7, 8, 11},
	"enigmatic":          {0, 1, 4, 6, 8, 10, 11},
	"super_locrian":      {0, 1, 3, 4, 6, 8, 10},
	"in_sen":             {0, 1, 5, 7, 10},
	"iwato":              {0, 1, 5, 6, 10},
	"kumai":              {0, 2, 3, 7, 9},
	"kumoi":              {0, 2, 3, 7, 9},
	"pelog":              {0, 1, 3, 7, 8},
	"chinese":            {0, 4, 6, 7, 11},
	"mongolian":          {0, 2, 4, 7, 9},
	"prometheus":         {0, 2, 4, 6, 11},
	"scriabin":           {0, 1, 4, 7, 9},
	"lydian_minor":       {0, 2, 4, 6, 7, 8, 10},
	"neapolitan_minor":   {0, 1, 3, 5, 7, 8, 11},
	"neapolitan_major":   {0, 1, 3, 5, 7, 9, 11},
	"banshikicho":        {0, 2, 4, 7, 9, 11},
	"yu":                 {0, 3, 5, 7, 10},
	"zhi":                 {0, 2, 5, 7, 9},
}

// ScaleMIDI returns the MIDI note list for the named scale, rooted at
// rootMIDI, spanning numOctaves octaves plus the top octave's root.
// Unknown scale names fall back to "major".
func ScaleMIDI(rootMIDI int, name string, numOctaves int) []int {
	if numOctaves < 1 {
		numOctaves = 1
	}
	intervals, ok := Scales[name]
	if !ok {
		intervals = Scales["major"]
	}
	out := make([]int, 0, len(intervals)*numOctaves+1)
	for oct := 0; oct < numOctaves; oct++ {
		base := rootMIDI + 12*oct
		for _, iv := range intervals {
			out = append(out, base+iv)
		}
	}
	out = append(out, rootMIDI+12*numOctaves)
	return out
}
