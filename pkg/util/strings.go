package util

import (
	"cmp"
	"strconv"
	"strings"
)

// ParseIntDefault returns def when s is blank or not an integer.
func ParseIntDefault(s string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}

func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}
