package config

import (
	"strconv"
	"strings"
)

// FormatFloat renders v in its shortest round-trip form, keeping a trailing
// ".0" on integral values so 1 and 1.0 never collide in identity strings.
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func formatInt(v int) string {
	return strconv.Itoa(v)
}

func formatInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}

// formatShape renders a scalar as a bare integer and a pair as "[a, b]".
func formatShape(v []int) string {
	if len(v) == 1 {
		return strconv.Itoa(v[0])
	}
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.Itoa(x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
