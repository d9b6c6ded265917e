package patch

import (
	"math/rand/v2"
	"strconv"
	"strings"
)

// maxNumericText is the longest numeric string accepted for a scalar field.
const maxNumericText = 10

// Coerce resolves v into an integer in [lo, hi]. Native integers are clamped.
// Strings are parsed with the relative and random forms:
//
//	"r"    random value in [lo, hi]
//	"~5"   cur+5, clamped
//	"~-5"  cur-5, clamped
//	"~"    cur+1, wraps to lo
//	"~-"   cur-1, wraps to hi
//	"w~5"  like "~5" but wraps when already at the bound
//
// Anything else, including an empty or over-long string, reports absent.
func Coerce(v Value, cur, lo, hi int) (int, bool) {
	switch v.Kind() {
	case KindNumber:
		n, ok := v.Int()
		if !ok {
			return cur, false
		}
		return clamp64(n, lo, hi), true
	case KindString:
		s, _ := v.Text()
		return coerceText(s, cur, lo, hi)
	}
	return cur, false
}

// CoerceByte is Coerce over the full byte range.
func CoerceByte(v Value, cur uint8) (uint8, bool) {
	n, ok := Coerce(v, int(cur), 0, 255)
	return uint8(n), ok
}

// Toggle resolves a boolean field. A string starting with 't' negates cur.
func Toggle(v Value, cur bool) (bool, bool) {
	switch v.Kind() {
	case KindBool:
		b, _ := v.Bool()
		return b, true
	case KindString:
		s, _ := v.Text()
		if strings.HasPrefix(s, "t") {
			return !cur, true
		}
	}
	return cur, false
}

// Flag resolves a plain boolean field. Numbers are accepted as 0/1.
func Flag(v Value, cur bool) (bool, bool) {
	switch v.Kind() {
	case KindBool:
		b, _ := v.Bool()
		return b, true
	case KindNumber:
		return v.Truthy(), true
	}
	return cur, false
}

func coerceText(s string, cur, lo, hi int) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxNumericText {
		return cur, false
	}
	if s[0] == 'r' {
		return lo + rand.IntN(hi-lo+1), true
	}

	wrap := false
	if s[0] == 'w' && len(s) > 1 {
		s = s[1:]
		wrap = true
	}

	if s[0] != '~' {
		n, err := strconv.Atoi(s)
		if err != nil {
			return cur, false
		}
		return clamp(n, lo, hi), true
	}

	rel := s[1:]
	switch rel {
	case "":
		if cur+1 > hi {
			return lo, true
		}
		return max(lo, cur+1), true
	case "-":
		if cur-1 < lo {
			return hi, true
		}
		return min(hi, cur-1), true
	}
	step, err := strconv.Atoi(rel)
	if err != nil {
		return cur, false
	}
	switch {
	case step == 0:
		return cur, true
	case wrap && cur == hi && step > 0:
		return lo, true
	case wrap && cur == lo && step < 0:
		return hi, true
	}
	return clamp(cur+step, lo, hi), true
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func clamp64(n int64, lo, hi int) int {
	if n < int64(lo) {
		return lo
	}
	if n > int64(hi) {
		return hi
	}
	return int(n)
}
