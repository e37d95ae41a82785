package extract

import (
	"math"
	"strconv"
	"strings"
)

// maxNumber bounds the magnitude of numbers taken from the model. Larger
// values are treated as absent.
const maxNumber = 1e6

type lookup struct {
	doc map[string]any
}

// values yields the raw values found at each alias of f, in priority order.
func (l lookup) values(f field) []any {
	var out []any
	for _, a := range aliases[f] {
		src := l.doc
		if a.group != flat {
			g, ok := l.doc[a.group].(map[string]any)
			if !ok {
				continue
			}
			src = g
		}
		if v, ok := src[a.key]; ok && v != nil {
			out = append(out, v)
		}
	}
	return out
}

func (l lookup) str(f field) (string, bool) {
	for _, v := range l.values(f) {
		if s, ok := scalarString(v); ok {
			return s, true
		}
	}
	return "", false
}

func (l lookup) required(f field) string {
	s, _ := l.str(f)
	return orUnknown(s)
}

func (l lookup) optional(f field) *string {
	s, ok := l.str(f)
	if !ok {
		return nil
	}
	return &s
}

// number returns the first non-zero numeric value of f.
func (l lookup) number(f field) (float64, bool) {
	for _, v := range l.values(f) {
		if n, ok := scalarNumber(v); ok && n != 0 {
			return n, true
		}
	}
	return 0, false
}

func (l lookup) integer(f field) int {
	n, _ := l.number(f)
	return int(math.Round(n))
}

func (l lookup) confidence(f field) float64 {
	n, ok := l.number(f)
	if !ok {
		return 0
	}
	return scaleConfidence(n)
}

// list returns the first non-empty list of f. A bare string counts as a
// one-element list.
func (l lookup) list(f field) []string {
	for _, v := range l.values(f) {
		if items := stringList(v); len(items) > 0 {
			return items
		}
	}
	return []string{}
}

// scaleConfidence maps a percentage onto [0,1] and clamps everything else.
func scaleConfidence(v float64) float64 {
	if v > 1 && v <= 100 {
		v /= 100
	}
	return math.Max(0, math.Min(1, v))
}

// scalarString accepts a string, a number or a bool, or the first such
// element of a list. Blank strings do not count.
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	case []any:
		for _, item := range x {
			if s, ok := scalarString(item); ok {
				return s, true
			}
		}
	}
	return "", false
}

// scalarNumber accepts a JSON number, a numeric string, or the first such
// element of a list. Numbers beyond maxNumber do not count.
func scalarNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, inRange(x)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return n, inRange(n)
	case []any:
		for _, item := range x {
			if n, ok := scalarNumber(item); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func inRange(n float64) bool {
	return !math.IsNaN(n) && math.Abs(n) <= maxNumber
}

func stringList(v any) []string {
	switch x := v.(type) {
	case string:
		if s := strings.TrimSpace(x); s != "" {
			return []string{s}
		}
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if _, nested := item.([]any); nested {
				continue
			}
			if s, ok := scalarString(item); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
