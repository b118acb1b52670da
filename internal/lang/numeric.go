package lang

import (
	"strconv"
	"strings"
)

// EvalNumeric evaluates a numeric parameter expression: a float/int
// literal, rrand(a,b)/rrand_i(a,b)/rand([max])/rand_i(max)/dice(n), a
// variable reference, or simple `+ - * /` arithmetic mixing one function
// call with constants (
// positions"). Returns 0 on malformed input rather than erroring — parse
// never rejects on unrecognized numeric content.
func EvalNumeric(ctx *Context, expr string) float64 {
	p := &numParser{s: strings.TrimSpace(expr), ctx: ctx}
	return p.parseExpr()
}

type numParser struct {
	s   string
	i   int
	ctx *Context
}

func (p *numParser) skipSpace() {
	for p.i < len(p.s) && (p.s[p.i] == ' ' || p.s[p.i] == '\t') {
		p.i++
	}
}

func (p *numParser) parseExpr() float64 {
	v := p.parseTerm()
	for {
		p.skipSpace()
		if p.i < len(p.s) && (p.s[p.i] == '+' || (p.s[p.i] == '-' && p.i > 0)) {
			op := p.s[p.i]
			p.i++
			rhs := p.parseTerm()
			if op == '+' {
				v += rhs
			} else {
				v -= rhs
			}
			continue
		}
		break
	}
	return v
}

func (p *numParser) parseTerm() float64 {
	v := p.parseFactor()
	for {
		p.skipSpace()
		if p.i < len(p.s) && (p.s[p.i] == '*' || p.s[p.i] == '/') {
			op := p.s[p.i]
			p.i++
			rhs := p.parseFactor()
			if op == '*' {
				v *= rhs
			} else if rhs != 0 {
				v /= rhs
			}
			continue
		}
		break
	}
	return v
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
func isIdentChar(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func (p *numParser) parseFactor() float64 {
	p.skipSpace()
	neg := false
	for p.i < len(p.s) && p.s[p.i] == '-' {
		neg = !neg
		p.i++
		p.skipSpace()
	}
	var v float64
	switch {
	case p.i < len(p.s) && p.s[p.i] == '(':
		p.i++
		v = p.parseExpr()
		p.skipSpace()
		if p.i < len(p.s) && p.s[p.i] == ')' {
			p.i++
		}
	case p.i < len(p.s) && isIdentStart(p.s[p.i]):
		start := p.i
		for p.i < len(p.s) && isIdentChar(p.s[p.i]) {
			p.i++
		}
		name := p.s[start:p.i]
		if p.i < len(p.s) && p.s[p.i] == '(' {
			depth := 1
			j := p.i + 1
			for j < len(p.s) && depth > 0 {
				if p.s[j] == '(' {
					depth++
				} else if p.s[j] == ')' {
					depth--
				}
				j++
			}
			argsStr := p.s[p.i+1 : j-1]
			p.i = j
			v = p.ctx.callNumericFunc(name, splitTopLevelCommas(argsStr))
		} else {
			v = p.ctx.lookupNumericVar(name)
		}
	default:
		start := p.i
		if p.i < len(p.s) && p.s[p.i] == '.' {
			p.i++
		}
		for p.i < len(p.s) && (p.s[p.i] >= '0' && p.s[p.i] <= '9' || p.s[p.i] == '.') {
			p.i++
		}
		v, _ = strconv.ParseFloat(p.s[start:p.i], 64)
	}
	if neg {
		v = -v
	}
	return v
}

// callNumericFunc dispatches the random-expression family named in
//
func (c *Context) callNumericFunc(name string, rawArgs []string) float64 {
	args := make([]float64, len(rawArgs))
	for i, a := range rawArgs {
		args[i] = EvalNumeric(c, a)
	}
	get := func(i int, def float64) float64 {
		if i < len(args) {
			return args[i]
		}
		return def
	}
	switch name {
	case "rrand":
		lo, hi := get(0, 0), get(1, 1)
		return lo + c.Float64()*(hi-lo)
	case "rrand_i":
		lo, hi := int(get(0, 0)), int(get(1, 1))
		if hi < lo {
			lo, hi = hi, lo
		}
		return float64(lo + c.Intn(hi-lo+1))
	case "rand":
		max := get(0, 1)
		return c.Float64() * max
	case "rand_i":
		max := int(get(0, 1))
		if max <= 0 {
			return 0
		}
		return float64(c.Intn(max))
	case "dice":
		n := int(get(0, 6))
		if n <= 0 {
			return 1
		}
		return float64(c.Intn(n) + 1)
	default:
		return c.lookupNumericVar(name)
	}
}

func (c *Context) lookupNumericVar(name string) float64 {
	if v, ok := c.Vars[name]; ok && v.Kind == ValNumber {
		return v.Num
	}
	if f, err := strconv.ParseFloat(name, 64); err == nil {
		return f
	}
	return 0
}

// EvalBool evaluates a trailing-guard or if/unless condition: `one_in(n)`,
// `true`/`false`, comparisons (>,<,>=,<=,==,!=), `ring.tick == v`, or a
// call to a defined procedure.
func EvalBool(ctx *Context, expr string) bool {
	expr = strings.TrimSpace(expr)
	switch expr {
	case "true":
		return true
	case "false":
		return false
	}
	if strings.HasPrefix(expr, "one_in(") && strings.HasSuffix(expr, ")") {
		n := int(EvalNumeric(ctx, expr[len("one_in("):len(expr)-1]))
		if n <= 0 {
			return false
		}
		return ctx.Intn(n) == 0
	}
	for _, op := range []string{">=", "<=", "==", "!=", ">", "<"} {
		if idx := topLevelIndex(expr, op); idx >= 0 {
			lhs := strings.TrimSpace(expr[:idx])
			rhs := strings.TrimSpace(expr[idx+len(op):])
			return compareSides(ctx, lhs, rhs, op)
		}
	}
	if name, ok := procedureRef(expr); ok {
		if body, defined := ctx.Procedures[name]; defined {
			return !proceduresReferencesTime(body)
		}
	}
	return true
}

func procedureRef(expr string) (string, bool) {
	for i := 0; i < len(expr); i++ {
		if !isIdentChar(expr[i]) {
			return "", false
		}
	}
	if expr == "" {
		return "", false
	}
	return expr, true
}

// proceduresReferencesTime reports whether a stored procedure body
// contains a timing directive;
// default to false, others to true, since at parse time the clock has not
// advanced."
func proceduresReferencesTime(body string) bool {
	for _, kw := range []string{"sleep", "wait", "sync", "cue"} {
		if strings.Contains(body, kw) {
			return true
		}
	}
	return false
}

func compareSides(ctx *Context, lhs, rhs string, op string) bool {
	if strings.HasSuffix(lhs, ".tick") {
		base := strings.TrimSuffix(lhs, ".tick")
		v := ResolveList(ctx, base)
		tok := v.Tick(ctx, strings.TrimSpace(base))
		return compareTokens(tok, rhs, op)
	}
	lv, lok := tryNumeric(ctx, lhs)
	rv, rok := tryNumeric(ctx, rhs)
	if lok && rok {
		return numericCompare(lv, rv, op)
	}
	return compareTokens(strings.TrimSpace(lhs), strings.TrimSpace(rhs), op)
}

// tryNumeric resolves s as a numeric expression: a literal, a bound
// variable, or an arithmetic/random-function expression via
// EvalNumeric. A bare identifier with no bound value and no numeric
// literal form is reported as non-numeric so symbol comparisons
// (`:a == :b`) still fall through to compareTokens.
func tryNumeric(ctx *Context, s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	if v, ok := ctx.Vars[s]; ok && v.Kind == ValNumber {
		return v.Num, true
	}
	if s == "" || strings.HasPrefix(s, ":") || strings.ContainsAny(s, "\"'") {
		return 0, false
	}
	if _, bare := procedureRef(s); bare {
		return 0, false
	}
	return EvalNumeric(ctx, s), true
}

func numericCompare(l, r float64, op string) bool {
	switch op {
	case ">":
		return l > r
	case "<":
		return l < r
	case ">=":
		return l >= r
	case "<=":
		return l <= r
	case "==":
		return l == r
	case "!=":
		return l != r
	}
	return false
}

func compareTokens(l, r string, op string) bool {
	l = strings.Trim(l, " :")
	r = strings.Trim(r, " :")
	switch op {
	case "==":
		return l == r
	case "!=":
		return l != r
	}
	return false
}

// topLevelIndex finds op's first occurrence outside parens/brackets.
func topLevelIndex(s, op string) int {
	depth := 0
	for i := 0; i+len(op) <= len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		}
		if depth == 0 && s[i:i+len(op)] == op {
			// a bare "<" / ">" must not match the start of "<=" / ">="
			if op == "<" || op == ">" {
				if i+1 < len(s) && s[i+1] == '=' {
					continue
				}
			}
			return i
		}
	}
	return -1
}
