package lang

import (
	"strconv"
	"strings"

	"github.com/cbegin/loopweave-go/internal/primitives"
)

// Parse turns a complete source string into its top-level command
// sequence. It never errors; truly malformed constructs degrade to
// KindComment nodes so a live-coded buffer with a typo never loses the
// rest of the take.
func Parse(ctx *Context, source string) []Command {
	return parseSequence(ctx, preprocessLines(source))
}

// parseSequence is the recursive block walker: every block-opener
// construct in
// handleBlock; everything else goes to parseLine.
func parseSequence(ctx *Context, lines []string) []Command {
	var out []Command
	for i := 0; i < len(lines); i++ {
		t := strings.TrimSpace(lines[i])
		if t == "" || t == "end" {
			continue
		}
		if isOpenerLine(t) {
			body, next := collectBlock(lines, i+1)
			head, vars := stripBlockSuffix(t)
			out = append(out, handleBlock(ctx, head, vars, body)...)
			i = next - 1
			continue
		}
		out = append(out, parseLine(ctx, t)...)
	}
	return out
}

// isOpenerLine reports whether t opens a block that must be closed by a
// matching `end` (.|/then/begin,
// plus if/unless/def which carry their own body without a `do` suffix).
func isOpenerLine(t string) bool {
	if t == "begin" {
		return true
	}
	if strings.HasSuffix(t, "then") {
		return true
	}
	if hasDoPipeSuffix(t) {
		return true
	}
	if strings.HasSuffix(t, "do") {
		return true
	}
	if t == "if" || strings.HasPrefix(t, "if ") {
		return true
	}
	if t == "unless" || strings.HasPrefix(t, "unless ") {
		return true
	}
	if strings.HasPrefix(t, "def ") {
		return true
	}
	return false
}

func hasDoPipeSuffix(t string) bool {
	if !strings.HasSuffix(t, "|") {
		return false
	}
	return strings.LastIndex(t, "do |") >= 0
}

// stripBlockSuffix removes a block opener's trailing `do`, `do |vars|`,
// or `then` marker, returning the directive head and any block-local
// variable names bound by `|...|`.
func stripBlockSuffix(t string) (head string, vars []string) {
	if t == "begin" {
		return "", nil
	}
	if strings.HasSuffix(t, "then") {
		return strings.TrimSpace(strings.TrimSuffix(t, "then")), nil
	}
	if idx := strings.LastIndex(t, "do |"); idx >= 0 && strings.HasSuffix(t, "|") {
		inner := t[idx+4 : len(t)-1]
		for _, v := range splitTopLevelCommas(inner) {
			vars = append(vars, strings.TrimSpace(v))
		}
		return strings.TrimSpace(t[:idx]), vars
	}
	if strings.HasSuffix(t, "do") {
		return strings.TrimSpace(strings.TrimSuffix(t, "do")), nil
	}
	return t, nil
}

// collectBlock gathers the raw lines of a block body starting right
// after its opener, tracking nested openers so an inner `do...end`
// does not terminate the outer block early. Unterminated blocks run to
// the end of the source rather than erroring.
func collectBlock(lines []string, start int) (body []string, next int) {
	depth := 1
	i := start
	for i < len(lines) {
		t := strings.TrimSpace(lines[i])
		if t == "end" {
			depth--
			if depth == 0 {
				return lines[start:i], i + 1
			}
		} else if isOpenerLine(t) {
			depth++
		}
		i++
	}
	return lines[start:], i
}

// handleBlock dispatches a stripped block head to the construct it
// names.
func handleBlock(ctx *Context, head string, vars []string, rawBody []string) []Command {
	switch {
	case head == "if" || strings.HasPrefix(head, "if "):
		cond := strings.TrimSpace(strings.TrimPrefix(head, "if"))
		return buildIf(ctx, cond, false, rawBody)
	case head == "unless" || strings.HasPrefix(head, "unless "):
		cond := strings.TrimSpace(strings.TrimPrefix(head, "unless"))
		return buildIf(ctx, cond, true, rawBody)
	case strings.HasPrefix(head, "define "):
		name := strings.TrimSpace(strings.TrimPrefix(head, "define"))
		name = strings.TrimPrefix(strings.TrimSpace(name), ":")
		ctx.Procedures[name] = strings.Join(rawBody, "\n")
		return nil
	case strings.HasPrefix(head, "def "):
		rest := strings.TrimSpace(strings.TrimPrefix(head, "def"))
		name, params := parseDefHeader(rest)
		ctx.Procedures[name] = strings.Join(rawBody, "\n")
		ctx.ProcParams[name] = params
		return nil
	case head == "comment" || strings.HasPrefix(head, "comment "):
		return nil
	case head == "uncomment" || strings.HasPrefix(head, "uncomment "):
		return parseSequence(ctx, rawBody)
	case strings.HasPrefix(head, "with_fx "):
		return buildWithFx(ctx, head, rawBody)
	case strings.HasPrefix(head, "with_synth "):
		return buildWithSynth(ctx, head, rawBody)
	case strings.HasPrefix(head, "with_bpm "):
		return buildWithBpm(ctx, head, rawBody)
	case strings.HasPrefix(head, "density "):
		body := parseSequence(ctx, rawBody)
		return []Command{{Kind: KindLoop, LoopName: "density", Parallel: false, Body: body}}
	case strings.HasPrefix(head, "live_loop "):
		name := strings.TrimSpace(strings.TrimPrefix(head, "live_loop"))
		name = strings.TrimPrefix(strings.TrimSpace(name), ":")
		body := parseSequence(ctx, rawBody)
		return []Command{{Kind: KindLoop, LoopName: name, Parallel: true, Body: body, HasStopInBody: containsStop(body)}}
	case head == "in_thread" || strings.HasPrefix(head, "in_thread"):
		body := parseSequence(ctx, rawBody)
		return []Command{{Kind: KindLoop, LoopName: "thread", Parallel: true, Body: body, HasStopInBody: containsStop(body)}}
	case head == "loop":
		body := parseSequence(ctx, rawBody)
		return []Command{{Kind: KindLoop, Parallel: false, Body: body}}
	case strings.HasSuffix(head, ".times"):
		countExpr := strings.TrimSuffix(head, ".times")
		n := int(EvalNumeric(ctx, countExpr))
		body := parseSequence(ctx, rawBody)
		return []Command{{Kind: KindTimesLoop, Count: n, Body: body}}
	case strings.Contains(head, ".each"):
		return buildEach(ctx, head, vars, rawBody)
	default:
		// Unknown block construct: parse-reject never applies to a whole
		// buffer, so fold the body in place rather than dropping it.
		return parseSequence(ctx, rawBody)
	}
}

func parseDefHeader(rest string) (name string, params []string) {
	idx := strings.Index(rest, "(")
	if idx < 0 {
		return strings.TrimSpace(rest), nil
	}
	name = strings.TrimSpace(rest[:idx])
	end := strings.LastIndex(rest, ")")
	if end < idx {
		return name, nil
	}
	for _, p := range splitTopLevelCommas(rest[idx+1 : end]) {
		p = strings.TrimSpace(p)
		if p != "" {
			params = append(params, p)
		}
	}
	return name, params
}

// buildIf splits an if/unless body on top-level elsif/else markers and
// produces a single KindIf node; branch selection is deferred to
// lowering, which reuses EvalBool so parse-time and lowering-time guard
// semantics stay identical.
func buildIf(ctx *Context, firstCond string, negate bool, rawBody []string) []Command {
	type segment struct {
		cond   string
		negate bool
		lines  []string
	}
	var segments []segment
	var elseLines []string
	depth := 0
	cur := segment{cond: firstCond, negate: negate}
	inElse := false
	flush := func() { segments = append(segments, cur) }
	for _, line := range rawBody {
		t := strings.TrimSpace(line)
		if depth == 0 && !inElse {
			if t == "else" {
				flush()
				inElse = true
				continue
			}
			if strings.HasPrefix(t, "elsif ") {
				flush()
				cur = segment{cond: strings.TrimSpace(strings.TrimPrefix(t, "elsif"))}
				continue
			}
		}
		if t == "end" {
			depth--
		} else if isOpenerLine(t) {
			depth++
		}
		if inElse {
			elseLines = append(elseLines, line)
		} else {
			cur.lines = append(cur.lines, line)
		}
	}
	if !inElse {
		flush()
	}
	var branches []IfBranch
	for _, s := range segments {
		branches = append(branches, IfBranch{Cond: s.cond, Negate: s.negate, Body: parseSequence(ctx, s.lines)})
	}
	var elseBody []Command
	if len(elseLines) > 0 {
		elseBody = parseSequence(ctx, elseLines)
	}
	return []Command{{Kind: KindIf, Branches: branches, Else: elseBody}}
}

func buildWithFx(ctx *Context, head string, rawBody []string) []Command {
	rest := strings.TrimSpace(strings.TrimPrefix(head, "with_fx"))
	parts := splitTopLevelCommas(rest)
	if len(parts) == 0 {
		return parseSequence(ctx, rawBody)
	}
	fxType := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[0]), ":"))
	fxParams := parseKwArgs(ctx, parts[1:])
	body := parseSequence(ctx, rawBody)
	return []Command{{Kind: KindWithFx, FxType: fxType, FxParams: fxParams, Body: body}}
}

func buildWithSynth(ctx *Context, head string, rawBody []string) []Command {
	rest := strings.TrimSpace(strings.TrimPrefix(head, "with_synth"))
	name := strings.TrimPrefix(strings.TrimSpace(rest), ":")
	prev := ctx.CurrentSynth
	ctx.CurrentSynth = name
	body := parseSequence(ctx, rawBody)
	ctx.CurrentSynth = prev
	return []Command{{Kind: KindWithSynth, SynthName: name, Body: body}}
}

func buildWithBpm(ctx *Context, head string, rawBody []string) []Command {
	rest := strings.TrimSpace(strings.TrimPrefix(head, "with_bpm"))
	val := EvalNumeric(ctx, rest)
	body := parseSequence(ctx, rawBody)
	return []Command{{Kind: KindWithBpm, Value: val, Body: body}}
}

// buildEach eagerly unrolls a `list.each do |x| ... end` /
// `.each_with_index` block at parse time, binding the block variable
// (and optional index variable) in ctx for each resolved element and
// concatenating the parsed bodies.
func buildEach(ctx *Context, head string, vars []string, rawBody []string) []Command {
	idx := strings.Index(head, ".each")
	listExpr := strings.TrimSpace(head[:idx])
	val := ResolveList(ctx, listExpr)
	varName := ""
	idxName := ""
	if len(vars) > 0 {
		varName = vars[0]
	}
	if len(vars) > 1 {
		idxName = vars[1]
	}
	var out []Command
	for i, tok := range val.List {
		var prevVar, prevIdx Value
		var hadVar, hadIdx bool
		if varName != "" {
			prevVar, hadVar = ctx.Vars[varName]
			ctx.Vars[varName] = tokenToValue(tok)
		}
		if idxName != "" {
			prevIdx, hadIdx = ctx.Vars[idxName]
			ctx.Vars[idxName] = Value{Kind: ValNumber, Num: float64(i)}
		}
		out = append(out, parseSequence(ctx, rawBody)...)
		if varName != "" {
			if hadVar {
				ctx.Vars[varName] = prevVar
			} else {
				delete(ctx.Vars, varName)
			}
		}
		if idxName != "" {
			if hadIdx {
				ctx.Vars[idxName] = prevIdx
			} else {
				delete(ctx.Vars, idxName)
			}
		}
	}
	return out
}

func tokenToValue(tok string) Value {
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return Value{Kind: ValNumber, Num: f}
	}
	return Value{Kind: ValString, Str: tok}
}

// noOpPrefixes lists directives that are accepted but have no effect on
// the in-process engine, surfacing only as log/comment entries (spec.md
// §4.F "Accepted no-op directives").
var noOpPrefixes = []string{
	"cue", "sync", "at", "control", "time_warp", "with_swing",
	"use_random_seed", "use_timing_guarantees", "sample_duration",
}

// parseLine dispatches one non-block source line to the directive (or
// variable assignment) it names, honoring a trailing `if`/`unless`
// guard evaluated immediately.
func parseLine(ctx *Context, t string) []Command {
	stmt, cond, negate, hasGuard := splitTrailingGuard(t)
	if hasGuard {
		ok := EvalBool(ctx, cond)
		if negate {
			ok = !ok
		}
		if !ok {
			return nil
		}
	}
	return dispatchLine(ctx, strings.TrimSpace(stmt))
}

func dispatchLine(ctx *Context, t string) []Command {
	if t == "" {
		return nil
	}
	if cmds, ok := tryProcedureCall(ctx, t); ok {
		return cmds
	}
	switch {
	case t == "stop":
		return []Command{{Kind: KindStop}}
	case strings.HasPrefix(t, "use_synth_defaults"):
		rest := strings.TrimSpace(strings.TrimPrefix(t, "use_synth_defaults"))
		for _, p := range splitTopLevelCommas(rest) {
			kv := splitKeyword(p)
			if kv.key != "" {
				ctx.SynthDefaults[kv.key] = EvalNumeric(ctx, kv.val)
			}
		}
		return nil
	case strings.HasPrefix(t, "use_sample_defaults"):
		rest := strings.TrimSpace(strings.TrimPrefix(t, "use_sample_defaults"))
		for _, p := range splitTopLevelCommas(rest) {
			kv := splitKeyword(p)
			if kv.key != "" {
				ctx.SampleDefaults[kv.key] = EvalNumeric(ctx, kv.val)
			}
		}
		return nil
	case strings.HasPrefix(t, "play_pattern_timed "):
		return parsePlayPattern(ctx, strings.TrimPrefix(t, "play_pattern_timed "), true)
	case strings.HasPrefix(t, "play_pattern "):
		return parsePlayPattern(ctx, strings.TrimPrefix(t, "play_pattern "), false)
	case strings.HasPrefix(t, "play "):
		return parsePlayNote(ctx, t)
	case strings.HasPrefix(t, "synth "):
		return parsePlayNote(ctx, t)
	case strings.HasPrefix(t, "sample "):
		return parsePlaySample(ctx, strings.TrimPrefix(t, "sample "))
	case strings.HasPrefix(t, "sleep "):
		return []Command{{Kind: KindSleep, Beats: EvalNumeric(ctx, strings.TrimPrefix(t, "sleep "))}}
	case strings.HasPrefix(t, "wait "):
		return []Command{{Kind: KindSleep, Beats: EvalNumeric(ctx, strings.TrimPrefix(t, "wait "))}}
	case strings.HasPrefix(t, "use_bpm "):
		return []Command{{Kind: KindSetBpm, Value: EvalNumeric(ctx, strings.TrimPrefix(t, "use_bpm "))}}
	case strings.HasPrefix(t, "set_volume "):
		return []Command{{Kind: KindSetVolume, Value: EvalNumeric(ctx, strings.TrimPrefix(t, "set_volume "))}}
	case strings.HasPrefix(t, "use_synth "):
		name := strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(t, "use_synth ")), ":")
		ctx.CurrentSynth = name
		return []Command{{Kind: KindSetSynth, SynthName: name}}
	case strings.HasPrefix(t, "puts "):
		return []Command{{Kind: KindLog, Text: resolveStringExpr(ctx, strings.TrimPrefix(t, "puts "))}}
	case strings.HasPrefix(t, "print "):
		return []Command{{Kind: KindLog, Text: resolveStringExpr(ctx, strings.TrimPrefix(t, "print "))}}
	case strings.HasPrefix(t, "log "):
		return []Command{{Kind: KindLog, Text: resolveStringExpr(ctx, strings.TrimPrefix(t, "log "))}}
	}
	if strings.HasPrefix(t, "midi") {
		return []Command{{Kind: KindComment, Text: t}}
	}
	for _, kw := range noOpPrefixes {
		if t == kw || strings.HasPrefix(t, kw+" ") || strings.HasPrefix(t, kw+"(") || strings.HasPrefix(t, kw+":") {
			return []Command{{Kind: KindComment, Text: t}}
		}
	}
	if cmds, ok := tryAssignment(ctx, t); ok {
		return cmds
	}
	return []Command{{Kind: KindComment, Text: t}}
}

// splitTrailingGuard peels a trailing ` if COND` / ` unless COND`
// suffix off a directive line, searching from the right since guards
// are always trailing.
func splitTrailingGuard(t string) (stmt, cond string, negate, ok bool) {
	depth := 0
	inSingle, inDouble := false, false
	ifIdx, unlessIdx := -1, -1
	for i := 0; i < len(t); i++ {
		switch {
		case t[i] == '\'' && !inDouble:
			inSingle = !inSingle
		case t[i] == '"' && !inSingle:
			inDouble = !inDouble
		case t[i] == '(' || t[i] == '[':
			depth++
		case t[i] == ')' || t[i] == ']':
			depth--
		}
		if inSingle || inDouble || depth != 0 {
			continue
		}
		if i+4 <= len(t) && t[i:i+4] == " if " {
			ifIdx = i
		}
		if i+8 <= len(t) && t[i:i+8] == " unless " {
			unlessIdx = i
		}
	}
	switch {
	case ifIdx >= 0 && ifIdx >= unlessIdx:
		return t[:ifIdx], strings.TrimSpace(t[ifIdx+4:]), false, true
	case unlessIdx >= 0:
		return t[:unlessIdx], strings.TrimSpace(t[unlessIdx+8:]), true, true
	}
	return t, "", false, false
}

// tryProcedureCall re-enters parseSequence on a stored define/def body
// when t names a procedure, binding positional def(...) parameters
// first; maxProcedureDepth guards mutual recursion.
func tryProcedureCall(ctx *Context, t string) ([]Command, bool) {
	name, argStr, hasArgs := splitCallSyntax(t)
	if name == "" {
		return nil, false
	}
	body, defined := ctx.Procedures[name]
	if !defined {
		return nil, false
	}
	if ctx.procDepth >= maxProcedureDepth {
		return nil, true
	}
	ctx.procDepth++
	defer func() { ctx.procDepth-- }()

	params := ctx.ProcParams[name]
	type saved struct {
		name string
		val  Value
		had  bool
	}
	var restore []saved
	if hasArgs && len(params) > 0 {
		args := splitTopLevelCommas(argStr)
		for i, pname := range params {
			pname = strings.TrimSpace(pname)
			prev, had := ctx.Vars[pname]
			restore = append(restore, saved{pname, prev, had})
			if i < len(args) {
				ctx.Vars[pname] = resolveArgValue(ctx, strings.TrimSpace(args[i]))
			}
		}
	}
	result := parseSequence(ctx, preprocessLines(body))
	for _, s := range restore {
		if s.had {
			ctx.Vars[s.name] = s.val
		} else {
			delete(ctx.Vars, s.name)
		}
	}
	return result, true
}

func resolveArgValue(ctx *Context, expr string) Value {
	if f, err := strconv.ParseFloat(expr, 64); err == nil {
		return Value{Kind: ValNumber, Num: f}
	}
	if strings.HasPrefix(expr, ":") {
		return Value{Kind: ValSymbol, Str: strings.TrimPrefix(expr, ":")}
	}
	if looksLikeListExpr(ctx, expr) {
		return ResolveList(ctx, expr)
	}
	return Value{Kind: ValString, Str: resolveStringExpr(ctx, expr)}
}

func splitCallSyntax(t string) (name, argStr string, hasArgs bool) {
	if idx := strings.Index(t, "("); idx >= 0 && strings.HasSuffix(t, ")") {
		return strings.TrimSpace(t[:idx]), t[idx+1 : len(t)-1], true
	}
	for i := 0; i < len(t); i++ {
		if !isIdentChar(t[i]) {
			return "", "", false
		}
	}
	if t == "" {
		return "", "", false
	}
	return t, "", false
}

func looksLikeListExpr(ctx *Context, expr string) bool {
	for _, p := range []string{"[", "(ring ", "ring(", "scale(", "chord(", "knit(", "range(", "line(", "spread("} {
		if strings.HasPrefix(expr, p) {
			return true
		}
	}
	if base, calls := splitMethodChain(expr); len(calls) > 0 && base != expr {
		return true
	}
	if v, ok := ctx.Vars[expr]; ok && (v.Kind == ValList || v.Kind == ValRing) {
		return true
	}
	return false
}

// parsePlayNote handles `play NOTE, kw: v, ...` and `synth :name, note:
// NOTE, kw: v, ...`, expanding `chord(:root, :type)` into one PlayNote
// per interval.
func parsePlayNote(ctx *Context, t string) []Command {
	isSynthForm := strings.HasPrefix(t, "synth ")
	var rest string
	if isSynthForm {
		rest = strings.TrimSpace(strings.TrimPrefix(t, "synth"))
	} else {
		rest = strings.TrimSpace(strings.TrimPrefix(t, "play"))
	}
	parts := splitTopLevelCommas(rest)
	if len(parts) == 0 {
		return nil
	}
	var noteExpr, synthName string
	var kwParts []string
	if isSynthForm {
		synthName = strings.TrimPrefix(strings.TrimSpace(parts[0]), ":")
		for _, p := range parts[1:] {
			kv := splitKeyword(p)
			if kv.key == "note" {
				noteExpr = kv.val
				continue
			}
			kwParts = append(kwParts, p)
		}
	} else {
		noteExpr = parts[0]
		kwParts = parts[1:]
	}
	params := mergeDefaults(ctx, parseKwArgs(ctx, kwParts), ctx.SynthDefaults)
	oscName := ctx.CurrentSynth
	if isSynthForm && synthName != "" {
		oscName = synthName
	}

	noteExpr = strings.TrimSpace(noteExpr)
	if strings.HasPrefix(noteExpr, "chord(") && strings.HasSuffix(noteExpr, ")") {
		cparts := splitTopLevelCommas(noteExpr[len("chord(") : len(noteExpr)-1])
		if len(cparts) >= 2 {
			rootTok := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(cparts[0]), ":"))
			chordType := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(cparts[1]), ":"))
			rootMIDI, err := primitives.NoteNameToMIDI(rootTok)
			if err != nil {
				rootMIDI = 60
			}
			midis := primitives.ChordMIDI(rootMIDI, chordType)
			var out []Command
			for _, m := range midis {
				out = append(out, Command{Kind: KindPlayNote, SynthName: oscName, Note: Note{IsNumeric: true, Numeric: float64(m)}, Params: params})
			}
			return out
		}
	}
	note := resolveNoteExpr(ctx, noteExpr)
	return []Command{{Kind: KindPlayNote, SynthName: oscName, Note: note, Params: params}}
}

func resolveNoteExpr(ctx *Context, expr string) Note {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Note{Token: "r"}
	}
	if f, err := strconv.ParseFloat(expr, 64); err == nil {
		return Note{IsNumeric: true, Numeric: f}
	}
	if strings.HasPrefix(expr, ":") {
		sym := strings.TrimPrefix(expr, ":")
		if sym == "r" || sym == "rest" {
			return Note{Token: "r"}
		}
		return Note{Token: sym}
	}
	if looksLikeListExpr(ctx, expr) {
		v := ResolveList(ctx, expr)
		if len(v.List) > 0 {
			tok := v.List[0]
			if f, err := strconv.ParseFloat(tok, 64); err == nil {
				return Note{IsNumeric: true, Numeric: f}
			}
			return Note{Token: tok}
		}
		return Note{Token: "r"}
	}
	if v, ok := ctx.Vars[expr]; ok {
		switch v.Kind {
		case ValNumber:
			return Note{IsNumeric: true, Numeric: v.Num}
		case ValString, ValSymbol:
			if v.Str == "r" || v.Str == "rest" {
				return Note{Token: "r"}
			}
			return Note{Token: v.Str}
		}
	}
	return Note{Token: expr}
}

// parsePlayPattern expands play_pattern/play_pattern_timed into an
// alternating PlayNote/Sleep sequence wrapped in a single-iteration
// TimesLoop so a single call contributes one schedulable unit (spec.md
// §4.F, end-to-end scenario S7).
func parsePlayPattern(ctx *Context, rest string, timed bool) []Command {
	parts := splitTopLevelCommas(rest)
	if len(parts) == 0 {
		return nil
	}
	notesVal := ResolveList(ctx, parts[0])
	kwStart := 1
	var timesVal []string
	if timed {
		if len(parts) < 2 {
			return nil
		}
		timesVal = ResolveList(ctx, parts[1]).List
		kwStart = 2
	}
	kwargs := mergeDefaults(ctx, parseKwArgs(ctx, parts[kwStart:]), ctx.SynthDefaults)
	var body []Command
	for i, tok := range notesVal.List {
		note := resolveNoteExpr(ctx, tok)
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			note = Note{IsNumeric: true, Numeric: f}
		}
		body = append(body, Command{Kind: KindPlayNote, SynthName: ctx.CurrentSynth, Note: note, Params: kwargs})
		beats := 1.0
		if timed && i < len(timesVal) {
			if f, err := strconv.ParseFloat(timesVal[i], 64); err == nil {
				beats = f
			}
		}
		body = append(body, Command{Kind: KindSleep, Beats: beats})
	}
	return []Command{{Kind: KindTimesLoop, Count: 1, Body: body}}
}

func parsePlaySample(ctx *Context, rest string) []Command {
	parts := splitTopLevelCommas(rest)
	if len(parts) == 0 {
		return nil
	}
	sampleExpr := resolveStringExpr(ctx, parts[0])
	kwargs := mergeDefaults(ctx, parseKwArgs(ctx, parts[1:]), ctx.SampleDefaults)
	return []Command{{Kind: KindPlaySample, SampleExpr: sampleExpr, Params: kwargs}}
}

func parseKwArgs(ctx *Context, parts []string) map[string]float64 {
	out := map[string]float64{}
	for _, p := range parts {
		kv := splitKeyword(p)
		if kv.key == "" {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(kv.val), ":") {
			// Symbolic forwarded parameter (e.g. wave: :saw); accepted but
			// not numerically meaningful to the in-process engine.
			continue
		}
		out[kv.key] = EvalNumeric(ctx, kv.val)
	}
	return out
}

func mergeDefaults(ctx *Context, params, defaults map[string]float64) map[string]float64 {
	_ = ctx
	out := make(map[string]float64, len(defaults)+len(params))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range params {
		out[k] = v
	}
	return out
}

// resolveStringExpr resolves a sample-name or log-message expression:
// a quoted literal, a symbol, a variable, or a `+`-concatenation of
// any of those.
func resolveStringExpr(ctx *Context, expr string) string {
	expr = strings.TrimSpace(expr)
	pieces := splitTopLevelPlus(expr)
	if len(pieces) > 1 {
		var sb strings.Builder
		for _, p := range pieces {
			sb.WriteString(resolveStringExpr(ctx, p))
		}
		return sb.String()
	}
	if len(expr) >= 2 && strings.HasPrefix(expr, "\"") && strings.HasSuffix(expr, "\"") {
		return expr[1 : len(expr)-1]
	}
	if len(expr) >= 2 && strings.HasPrefix(expr, "'") && strings.HasSuffix(expr, "'") {
		return expr[1 : len(expr)-1]
	}
	if strings.HasPrefix(expr, ":") {
		return strings.TrimPrefix(expr, ":")
	}
	if v, ok := ctx.Vars[expr]; ok {
		switch v.Kind {
		case ValString, ValSymbol:
			return v.Str
		case ValNumber:
			return formatNum(v.Num)
		case ValList, ValRing:
			if len(v.List) > 0 {
				return v.List[0]
			}
		}
	}
	return expr
}

func splitTopLevelPlus(s string) []string {
	var parts []string
	depth := 0
	inSingle, inDouble := false, false
	start := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
		case ch == '"' && !inSingle:
			inDouble = !inDouble
		case inSingle || inDouble:
		case ch == '(' || ch == '[':
			depth++
		case ch == ')' || ch == ']':
			depth--
		case ch == '+' && depth == 0:
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}

// tryAssignment recognizes `name = expr` variable assignment, the only
// way rings and scalars get bound to names outside block-local
// iteration variables.
func tryAssignment(ctx *Context, t string) ([]Command, bool) {
	idx := topLevelIndex(t, " = ")
	if idx < 0 {
		return nil, false
	}
	name := strings.TrimSpace(t[:idx])
	if name == "" {
		return nil, false
	}
	for i := 0; i < len(name); i++ {
		if !isIdentChar(name[i]) {
			return nil, false
		}
	}
	valExpr := strings.TrimSpace(t[idx+3:])
	var val Value
	switch {
	case looksLikeListExpr(ctx, valExpr):
		val = ResolveList(ctx, valExpr)
	default:
		if f, err := strconv.ParseFloat(valExpr, 64); err == nil {
			val = Value{Kind: ValNumber, Num: f}
		} else if strings.HasPrefix(valExpr, ":") {
			val = Value{Kind: ValSymbol, Str: strings.TrimPrefix(valExpr, ":")}
		} else {
			val = Value{Kind: ValString, Str: resolveStringExpr(ctx, valExpr)}
		}
	}
	ctx.Vars[name] = val
	return nil, true
}
