package vars

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// snapPrecision is the number of decimal places within which an integer
// operation result is considered whole.
const snapPrecision = 5

var snapScale = math.Pow10(snapPrecision)

// snap converts the float result of an integer operation back to Int when it
// rounds to a whole number at snapPrecision decimal places.
func snap(f float64) Var {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Float(f)
	}
	rounded := math.RoundToEven(f*snapScale) / snapScale
	if rounded != math.Trunc(rounded) {
		return Float(f)
	}
	if !inIntRange(rounded) {
		return Float(f)
	}
	return Int(int(rounded))
}

// toNumber widens b for numeric operators. Non-strict mode also accepts
// booleans, numeric strings and Empty (as zero).
func toNumber(b Var, strict bool) (float64, bool) {
	switch b.kind {
	case KindInt:
		return float64(b.i), true
	case KindFloat:
		return b.f, true
	}
	if strict {
		return 0, false
	}
	switch b.kind {
	case KindBool:
		if b.b {
			return 1, true
		}
		return 0, true
	case KindString:
		return parseNumber(b.s)
	case KindEmpty:
		return 0, true
	}
	return 0, false
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func compareNumbers(op Operator, x, y float64) (bool, bool) {
	switch {
	case x < y:
		return compareOrdered(op, -1)
	case x > y:
		return compareOrdered(op, 1)
	default:
		return compareOrdered(op, 0)
	}
}

func combineNumbers(op Operator, x, y float64) (float64, error) {
	switch op {
	case Add:
		return x + y, nil
	case Subtract:
		return x - y, nil
	case Multiply:
		return x * y, nil
	case Divide:
		if y == 0 {
			return 0, fmt.Errorf("%w: %s / %s", ErrDivideByZero, formatFloat(x), formatFloat(y))
		}
		return x / y, nil
	case Modulo:
		if y == 0 {
			return 0, fmt.Errorf("%w: %s %% %s", ErrDivideByZero, formatFloat(x), formatFloat(y))
		}
		return math.Mod(x, y), nil
	}
	return 0, fmt.Errorf("operator %s is not numeric", op)
}

func wholeFloat(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if !inIntRange(f) {
		return 0, false
	}
	return int(f), true
}

// inIntRange reports whether the whole number f fits an int64. The upper
// bound is exclusive: float64(math.MaxInt64) rounds up to 2^63.
func inIntRange(f float64) bool {
	return f >= -0x1p63 && f < 0x1p63
}
