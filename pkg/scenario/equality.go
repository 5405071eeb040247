package scenario

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/stepper/pkg/domain"
)

type jsType string

const (
	jsNumber    jsType = "number"
	jsString    jsType = "string"
	jsBoolean   jsType = "boolean"
	jsNull      jsType = "null"
	jsUndefined jsType = "undefined"
)

// jsValue is a parsed JavaScript primitive literal.
type jsValue struct {
	typ jsType
	num float64
	str string
	b   bool
}

// parseLiteral reads a JavaScript literal. Text that is not a recognised
// literal is treated as a string.
func parseLiteral(src string) jsValue {
	s := strings.TrimSpace(src)
	switch s {
	case "null":
		return jsValue{typ: jsNull}
	case "undefined":
		return jsValue{typ: jsUndefined}
	case "true":
		return jsValue{typ: jsBoolean, b: true}
	case "false":
		return jsValue{typ: jsBoolean}
	}
	if len(s) >= 2 {
		q := s[0]
		if (q == '"' || q == '\'' || q == '`') && s[len(s)-1] == q {
			return jsValue{typ: jsString, str: s[1 : len(s)-1]}
		}
	}
	if n, ok := jsNumberLiteral(s); ok {
		return jsValue{typ: jsNumber, num: n}
	}
	return jsValue{typ: jsString, str: src}
}

// jsNumberLiteral parses s with JavaScript numeric literal rules (decimal,
// 0x/0o/0b integers, Infinity, NaN). ok is false when s is not a number literal at all.
func jsNumberLiteral(s string) (float64, bool) {
	switch s {
	case "NaN":
		return math.NaN(), true
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	case "":
		return 0, false
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(s, "_") {
		return 0, false
	}
	if len(lower) > 2 && lower[0] == '0' {
		switch lower[1] {
		case 'x':
			return radixLiteral(lower[2:], 16)
		case 'o':
			return radixLiteral(lower[2:], 8)
		case 'b':
			return radixLiteral(lower[2:], 2)
		}
	}
	if strings.ContainsAny(lower, "pxob") {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	// Out of range literals round to ±Infinity or zero, as in JavaScript.
	return n, true
}

// radixLiteral parses the digits of a prefixed integer literal. Values past
// uint64 keep accumulating as floats.
func radixLiteral(digits string, base int) (float64, bool) {
	var n float64
	for _, r := range digits {
		d, err := strconv.ParseUint(string(r), base, 8)
		if err != nil {
			return 0, false
		}
		n = n*float64(base) + float64(d)
	}
	return n, true
}

// stringToNumber applies ToNumber to a string operand: blank is 0, junk is NaN.
func stringToNumber(s string) float64 {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0
	}
	if n, ok := jsNumberLiteral(t); ok {
		return n
	}
	return math.NaN()
}

func (v jsValue) literal() string {
	switch v.typ {
	case jsNull:
		return "null"
	case jsUndefined:
		return "undefined"
	case jsBoolean:
		return strconv.FormatBool(v.b)
	case jsString:
		return strconv.Quote(v.str)
	default:
		return formatNumber(v.num)
	}
}

// typeOf mirrors the typeof operator, including typeof null === "object".
func (v jsValue) typeOf() string {
	if v.typ == jsNull {
		return "object"
	}
	return string(v.typ)
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func strictEquals(a, b jsValue) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case jsNumber:
		return a.num == b.num
	case jsString:
		return a.str == b.str
	case jsBoolean:
		return a.b == b.b
	default:
		return true
	}
}

// coercion is one ToNumber conversion applied while evaluating ==.
type coercion struct {
	from jsValue
	to   jsValue
}

// looseEquals implements the abstract equality algorithm for primitives and
// returns the conversions it performed along the way.
func looseEquals(a, b jsValue) (bool, []coercion) {
	var steps []coercion
	for {
		if a.typ == b.typ {
			return strictEquals(a, b), steps
		}
		nullish := func(v jsValue) bool { return v.typ == jsNull || v.typ == jsUndefined }
		switch {
		case nullish(a) || nullish(b):
			return nullish(a) && nullish(b), steps
		case a.typ == jsBoolean:
			na := boolToNumber(a)
			steps = append(steps, coercion{from: a, to: na})
			a = na
		case b.typ == jsBoolean:
			nb := boolToNumber(b)
			steps = append(steps, coercion{from: b, to: nb})
			b = nb
		case a.typ == jsString && b.typ == jsNumber:
			na := jsValue{typ: jsNumber, num: stringToNumber(a.str)}
			steps = append(steps, coercion{from: a, to: na})
			a = na
		case a.typ == jsNumber && b.typ == jsString:
			nb := jsValue{typ: jsNumber, num: stringToNumber(b.str)}
			steps = append(steps, coercion{from: b, to: nb})
			b = nb
		default:
			return false, steps
		}
	}
}

func boolToNumber(v jsValue) jsValue {
	if v.b {
		return jsValue{typ: jsNumber, num: 1}
	}
	return jsValue{typ: jsNumber, num: 0}
}

func genEquality(s Equality) []domain.Step {
	left, right := parseLiteral(s.Left), parseLiteral(s.Right)
	l, r := left.literal(), right.literal()

	t := newTrace()
	t.emit(domain.PhaseInit, "", fmt.Sprintf("Compare %s and %s", l, r))
	t.set("left", l)
	t.set("right", r)
	t.set("typeof left", strconv.Quote(left.typeOf()))
	t.set("typeof right", strconv.Quote(right.typeOf()))
	t.emit(domain.PhaseInit, "const left, right", fmt.Sprintf("left is a %s, right is a %s", left.typ, right.typ))

	strict := strictEquals(left, right)
	strictExpr := l + " === " + r
	t.set("left === right", strconv.FormatBool(strict))
	if left.typ != right.typ {
		t.emit(domain.PhaseCondition, "===", fmt.Sprintf("%s is false: strict equality never converts and the types differ", strictExpr))
	} else {
		t.emit(domain.PhaseCondition, "===", fmt.Sprintf("%s is %t: same type, values compared directly", strictExpr, strict))
	}

	loose, conversions := looseEquals(left, right)
	for _, c := range conversions {
		t.emit(domain.PhaseCondition, "==", fmt.Sprintf("== converts %s %s to number %s", c.from.typ, c.from.literal(), c.to.literal()))
	}
	looseExpr := l + " == " + r
	t.set("left == right", strconv.FormatBool(loose))
	t.emit(domain.PhaseCondition, "==", fmt.Sprintf("%s is %t", looseExpr, loose))

	t.print(fmt.Sprintf("%s -> %t", strictExpr, strict))
	t.print(fmt.Sprintf("%s -> %t", looseExpr, loose))
	t.emit(domain.PhaseBranch, "console.log", "Print both results")
	return t.done("Comparison finished")
}
