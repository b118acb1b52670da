// Package voice implements the synth voice bank: ~35 oscillator flavors
// sharing one SynthVoice state struct, envelopes, and voice stealing, per
// spec.md component B.
package voice

// Kind is the closed tagged set of oscillator flavors a SynthVoice can
// play. Unknown names resolve to KindSine at construction time.
type Kind int

const (
	KindSine Kind = iota
	KindSaw
	KindSquare
	KindTriangle
	KindPulse
	KindSawDetuned
	KindSquareDetuned
	KindSuperSaw
	KindTechSaw
	KindFM
	KindModSaw
	KindModSquare
	KindModPulse
	KindModSine
	KindTB303
	KindProphet
	KindZawa
	KindBlade
	KindHoover
	KindGrowl
	KindPluck
	KindPiano
	KindBell
	KindHollow
	KindDark
	KindChipSquare
	KindChipSaw
	KindChipTriangle
	KindChipNoise
	KindNoiseWhite
	KindNoiseBrown
	KindNoisePink
	KindNoiseGrey
	KindNoiseClip
	KindSub
	kindCount
)

var kindNames = map[string]Kind{
	"sine":            KindSine,
	"beep":            KindSine,
	"saw":             KindSaw,
	"square":          KindSquare,
	"tri":             KindTriangle,
	"triangle":        KindTriangle,
	"pulse":           KindPulse,
	"dsaw":            KindSawDetuned,
	"saw_detuned":     KindSawDetuned,
	"dpulse":          KindSquareDetuned,
	"square_detuned":  KindSquareDetuned,
	"supersaw":        KindSuperSaw,
	"tech_saws":       KindTechSaw,
	"fm":              KindFM,
	"mod_saw":         KindModSaw,
	"mod_square":      KindModSquare,
	"mod_pulse":       KindModPulse,
	"mod_sine":        KindModSine,
	"mod_beep":        KindModSine,
	"tb303":           KindTB303,
	"prophet":         KindProphet,
	"zawa":            KindZawa,
	"blade":           KindBlade,
	"hoover":          KindHoover,
	"growl":           KindGrowl,
	"pluck":           KindPluck,
	"piano":           KindPiano,
	"bell":            KindBell,
	"hollow":          KindHollow,
	"dark_ambience":   KindDark,
	"dark":            KindDark,
	"chiplead":        KindChipSquare,
	"chip_square":     KindChipSquare,
	"chip_saw":        KindChipSaw,
	"chip_triangle":   KindChipTriangle,
	"chipnoise":       KindChipNoise,
	"chip_noise":      KindChipNoise,
	"noise":           KindNoiseWhite,
	"bnoise":          KindNoiseBrown,
	"noise_brown":     KindNoiseBrown,
	"pnoise":          KindNoisePink,
	"noise_pink":      KindNoisePink,
	"gnoise":          KindNoiseGrey,
	"noise_grey":      KindNoiseGrey,
	"cnoise":          KindNoiseClip,
	"noise_clip":      KindNoiseClip,
	"sub":             KindSub,
}

// KindFromName resolves a synth name to an oscillator kind. Unknown names
// fall back to KindSine per spec ("unknown synth names fall back to sine").
func KindFromName(name string) Kind {
	if k, ok := kindNames[name]; ok {
		return k
	}
	return KindSine
}

var kindCanonicalNames map[Kind]string

func init() {
	// Prefer the first non-alias spelling encountered for each Kind, so the
	// external-engine bridge's synth-def lookup (§4.I "/s_new <def>") gets a
	// single canonical name per oscillator kind instead of an alias.
	kindCanonicalNames = make(map[Kind]string, kindCount)
	order := []string{
		"sine", "saw", "square", "triangle", "pulse", "saw_detuned",
		"square_detuned", "supersaw", "tech_saws", "fm", "mod_saw",
		"mod_square", "mod_pulse", "mod_sine", "tb303", "prophet", "zawa",
		"blade", "hoover", "growl", "pluck", "piano", "bell", "hollow",
		"dark_ambience", "chip_square", "chip_saw", "chip_triangle",
		"chip_noise", "noise", "noise_brown", "noise_pink", "noise_grey",
		"noise_clip", "sub",
	}
	for _, name := range order {
		kindCanonicalNames[kindNames[name]] = name
	}
}

// Name returns the canonical synth-def name for k, used by the
// external-engine bridge to name-address `/s_new`.
func (k Kind) Name() string {
	if name, ok := kindCanonicalNames[k]; ok {
		return name
	}
	return "sine"
}
