package http

import xutil "CosmicOptic/pkg/util"

// ClampInt parses a query value and bounds it to [lo, hi], falling back to
// def when it is missing or malformed.
func ClampInt(s string, def, lo, hi int) int {
	return xutil.Clamp(xutil.ParseIntDefault(s, def), lo, hi)
}
