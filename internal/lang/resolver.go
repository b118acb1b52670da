package lang

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cbegin/loopweave-go/internal/primitives"
)

// methodCall is one parsed suffix, e.g. `.pick(2)` -> {name: "pick", args: "2"}.
type methodCall struct {
	name string
	args string
}

// splitMethodChain peels `.method(args)` suffixes off the tail of a list
// expression, respecting paren/bracket nesting.F "Method
// suffixes on any list expression".
func splitMethodChain(expr string) (base string, calls []methodCall) {
	depth := 0
	dot := -1
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case '.':
			if depth == 0 && dot < 0 {
				dot = i
			}
		}
	}
	if dot < 0 {
		return expr, nil
	}
	base = expr[:dot]
	rest := expr[dot:]
	i := 0
	for i < len(rest) && rest[i] == '.' {
		i++
		start := i
		for i < len(rest) && isIdentChar(rest[i]) {
			i++
		}
		name := rest[start:i]
		args := ""
		if i < len(rest) && rest[i] == '(' {
			depth2 := 1
			j := i + 1
			for j < len(rest) && depth2 > 0 {
				switch rest[j] {
				case '(':
					depth2++
				case ')':
					depth2--
				}
				j++
			}
			args = rest[i+1 : j-1]
			i = j
		}
		calls = append(calls, methodCall{name, args})
	}
	return base, calls
}

// ResolveList evaluates any list/ring expression named in
// inline arrays, ring(...)/(ring ...), scale(...), chord(...), knit(...),
// range(...), line(...), spread(...), a variable reference, or any of
// those with a chain of suffix methods applied.
func ResolveList(ctx *Context, expr string) Value {
	expr = strings.TrimSpace(expr)
	base, calls := splitMethodChain(expr)
	v := resolveBaseList(ctx, strings.TrimSpace(base))
	key := strings.TrimSpace(base)
	for _, c := range calls {
		v = applyMethod(ctx, key, v, c)
		key = key + "." + c.name
	}
	return v
}

func resolveBaseList(ctx *Context, expr string) Value {
	switch {
	case strings.HasPrefix(expr, "[") && strings.HasSuffix(expr, "]"):
		items := splitTopLevelCommas(expr[1 : len(expr)-1])
		return Value{Kind: ValList, List: trimAll(items)}
	case strings.HasPrefix(expr, "(ring ") && strings.HasSuffix(expr, ")"):
		items := splitTopLevelCommas(expr[len("(ring ") : len(expr)-1])
		return Value{Kind: ValRing, List: trimAll(items)}
	case strings.HasPrefix(expr, "ring(") && strings.HasSuffix(expr, ")"):
		items := splitTopLevelCommas(expr[len("ring(") : len(expr)-1])
		return Value{Kind: ValRing, List: trimAll(items)}
	case strings.HasPrefix(expr, "scale(") && strings.HasSuffix(expr, ")"):
		return resolveScale(ctx, expr[len("scale("):len(expr)-1])
	case strings.HasPrefix(expr, "chord(") && strings.HasSuffix(expr, ")"):
		return resolveChord(expr[len("chord("):len(expr)-1])
	case strings.HasPrefix(expr, "knit(") && strings.HasSuffix(expr, ")"):
		return resolveKnit(ctx, expr[len("knit("):len(expr)-1])
	case strings.HasPrefix(expr, "range(") && strings.HasSuffix(expr, ")"):
		return resolveRange(ctx, expr[len("range("):len(expr)-1])
	case strings.HasPrefix(expr, "line(") && strings.HasSuffix(expr, ")"):
		return resolveLine(ctx, expr[len("line("):len(expr)-1])
	case strings.HasPrefix(expr, "spread(") && strings.HasSuffix(expr, ")"):
		return resolveSpread(ctx, expr[len("spread("):len(expr)-1])
	default:
		if v, ok := ctx.Vars[expr]; ok {
			return v
		}
		return Value{Kind: ValList, List: []string{expr}}
	}
}

func trimAll(items []string) []string {
	for i := range items {
		items[i] = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(items[i]), ":"))
	}
	return items
}

// resolveScale computes a MIDI list over num_octaves octaves plus the top
// octave's root.F `scale(:root, :type[, num_octaves: n])`.
func resolveScale(ctx *Context, args string) Value {
	parts := splitTopLevelCommas(args)
	if len(parts) < 2 {
		return Value{Kind: ValRing}
	}
	rootTok := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[0]), ":"))
	scaleName := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[1]), ":"))
	numOctaves := 1
	for _, p := range parts[2:] {
		if kv := splitKeyword(p); kv.key == "num_octaves" {
			numOctaves = int(EvalNumeric(ctx, kv.val))
		}
	}
	rootMIDI, err := primitives.NoteNameToMIDI(rootTok)
	if err != nil {
		rootMIDI = 60
	}
	midis := primitives.ScaleMIDI(rootMIDI, scaleName, numOctaves)
	return Value{Kind: ValRing, List: intsToStrs(midis)}
}

func resolveChord(args string) Value {
	parts := splitTopLevelCommas(args)
	if len(parts) < 2 {
		return Value{Kind: ValRing}
	}
	rootTok := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[0]), ":"))
	chordName := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[1]), ":"))
	rootMIDI, err := primitives.NoteNameToMIDI(rootTok)
	if err != nil {
		rootMIDI = 60
	}
	midis := primitives.ChordMIDI(rootMIDI, chordName)
	return Value{Kind: ValRing, List: intsToStrs(midis)}
}

// resolveKnit expands `knit(v1, n1, v2, n2, ...)` into a run-length list,
//.F and testable property 10.
func resolveKnit(ctx *Context, args string) Value {
	parts := splitTopLevelCommas(args)
	var out []string
	for i := 0; i+1 < len(parts); i += 2 {
		val := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[i]), ":"))
		n := int(EvalNumeric(ctx, parts[i+1]))
		for j := 0; j < n; j++ {
			out = append(out, val)
		}
	}
	return Value{Kind: ValList, List: out}
}

func resolveRange(ctx *Context, args string) Value {
	parts := splitTopLevelCommas(args)
	if len(parts) < 2 {
		return Value{Kind: ValList}
	}
	start := EvalNumeric(ctx, parts[0])
	end := EvalNumeric(ctx, parts[1])
	step := 1.0
	if len(parts) > 2 {
		step = EvalNumeric(ctx, parts[2])
	}
	if step == 0 {
		step = 1
	}
	var out []string
	if step > 0 {
		for v := start; v < end; v += step {
			out = append(out, formatNum(v))
		}
	} else {
		for v := start; v > end; v += step {
			out = append(out, formatNum(v))
		}
	}
	return Value{Kind: ValList, List: out}
}

// resolveLine builds steps linearly interpolated points between start and
// finish, formatted with 4 decimals.F and testable
// property 10.
func resolveLine(ctx *Context, args string) Value {
	parts := splitTopLevelCommas(args)
	if len(parts) < 2 {
		return Value{Kind: ValList}
	}
	start := EvalNumeric(ctx, parts[0])
	finish := EvalNumeric(ctx, parts[1])
	steps := 8
	for _, p := range parts[2:] {
		if kv := splitKeyword(p); kv.key == "steps" {
			steps = int(EvalNumeric(ctx, kv.val))
		}
	}
	if steps < 1 {
		steps = 1
	}
	out := make([]string, steps)
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(maxInt(steps-1, 1))
		if steps == 1 {
			t = 0
		}
		v := start + (finish-start)*t
		out[i] = fmt.Sprintf("%.4f", v)
	}
	return Value{Kind: ValList, List: out}
}

// resolveSpread implements the Bjorklund Euclidean rhythm via the greedy
// bucket algorithm named in
// step, emit true when the accumulator crosses steps.
func resolveSpread(ctx *Context, args string) Value {
	parts := splitTopLevelCommas(args)
	if len(parts) < 2 {
		return Value{Kind: ValList}
	}
	pulses := int(EvalNumeric(ctx, parts[0]))
	steps := int(EvalNumeric(ctx, parts[1]))
	if steps <= 0 {
		return Value{Kind: ValList}
	}
	out := make([]string, steps)
	bucket := 0
	for i := 0; i < steps; i++ {
		bucket += pulses
		if bucket >= steps {
			bucket -= steps
			out[i] = "true"
		} else {
			out[i] = "false"
		}
	}
	return Value{Kind: ValList, List: out}
}

type keyword struct{ key, val string }

func splitKeyword(s string) keyword {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, ":"); idx >= 0 {
		return keyword{key: strings.TrimSpace(s[:idx]), val: strings.TrimSpace(s[idx+1:])}
	}
	return keyword{}
}

func intsToStrs(in []int) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strconv.Itoa(v)
	}
	return out
}

func formatNum(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// applyMethod implements.
func applyMethod(ctx *Context, key string, v Value, c methodCall) Value {
	switch c.name {
	case "choose", "pick":
		if len(v.List) == 0 {
			return v
		}
		n := 1
		if c.args != "" {
			n = int(EvalNumeric(ctx, c.args))
			if n < 1 {
				n = 1
			}
		}
		out := make([]string, n)
		for i := 0; i < n; i++ {
			out[i] = v.List[ctx.Intn(len(v.List))]
		}
		return Value{Kind: ValList, List: out}
	case "shuffle":
		out := append([]string(nil), v.List...)
		for i := len(out) - 1; i > 0; i-- {
			j := ctx.Intn(i + 1)
			out[i], out[j] = out[j], out[i]
		}
		return Value{Kind: v.Kind, List: out}
	case "tick":
		tok := v.Tick(ctx, key)
		return Value{Kind: ValList, List: []string{tok}}
	case "look":
		tok := v.Look(ctx, key)
		return Value{Kind: ValList, List: []string{tok}}
	case "first":
		return firstOrEmpty(v, true)
	case "last":
		return firstOrEmpty(v, false)
	case "reverse":
		out := reverseStrs(v.List)
		return Value{Kind: v.Kind, List: out}
	case "min":
		return Value{Kind: ValList, List: []string{minMaxToken(v.List, true)}}
	case "max":
		return Value{Kind: ValList, List: []string{minMaxToken(v.List, false)}}
	case "ring":
		return Value{Kind: ValRing, List: v.List}
	case "sort":
		out := append([]string(nil), v.List...)
		sort.Slice(out, func(i, j int) bool {
			fi, oki := strconv.ParseFloat(out[i], 64)
			fj, okj := strconv.ParseFloat(out[j], 64)
			if oki && okj {
				return fi < fj
			}
			return out[i] < out[j]
		})
		return Value{Kind: v.Kind, List: out}
	case "mirror":
		out := append([]string(nil), v.List...)
		out = append(out, reverseStrs(v.List)...)
		return Value{Kind: v.Kind, List: out}
	default:
		return v
	}
}

func firstOrEmpty(v Value, first bool) Value {
	if len(v.List) == 0 {
		return Value{Kind: ValList}
	}
	if first {
		return Value{Kind: ValList, List: []string{v.List[0]}}
	}
	return Value{Kind: ValList, List: []string{v.List[len(v.List)-1]}}
}

func reverseStrs(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

func minMaxToken(list []string, wantMin bool) string {
	if len(list) == 0 {
		return "0"
	}
	best := list[0]
	bestF, bestOk := strconv.ParseFloat(best, 64)
	for _, s := range list[1:] {
		f, ok := strconv.ParseFloat(s, 64)
		if !ok || !bestOk {
			continue
		}
		if (wantMin && f < bestF) || (!wantMin && f > bestF) {
			best, bestF = s, f
		}
	}
	return best
}

// Tick returns the next cyclic value and advances the cursor (spec.md
// GLOSSARY "Ring"), keyed by key so the cursor survives across loop
// iterations within one parse (invariant 5).
func (v Value) Tick(ctx *Context, key string) string {
	if len(v.List) == 0 {
		return ""
	}
	pos := ctx.TickCursor(key, len(v.List))
	return v.List[pos]
}

// Look returns the current cyclic value without advancing the cursor.
func (v Value) Look(ctx *Context, key string) string {
	if len(v.List) == 0 {
		return ""
	}
	pos := ctx.LookCursor(key, len(v.List))
	return v.List[pos]
}
