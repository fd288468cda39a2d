package hy2

import "strings"

// Log levels, lowest to highest severity.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

var levelRanks = map[string]int{
	LevelDebug: 10,
	LevelInfo:  20,
	LevelWarn:  30,
	LevelError: 40,
}

// NormalizeLevel lowercases and trims a level name. "warning" is accepted as warn.
func NormalizeLevel(level string) string {
	l := strings.ToLower(strings.TrimSpace(level))
	if l == "warning" {
		return LevelWarn
	}
	return l
}

// LevelRank returns the ordering weight of a level and whether it is known.
func LevelRank(level string) (int, bool) {
	r, ok := levelRanks[NormalizeLevel(level)]
	return r, ok
}

// ValidLevel reports whether level names one of the four known levels.
func ValidLevel(level string) bool {
	_, ok := LevelRank(level)
	return ok
}

// LevelForRank maps a rank back to its name; unknown ranks map to info.
func LevelForRank(rank int) string {
	for name, r := range levelRanks {
		if r == rank {
			return name
		}
	}
	return LevelInfo
}
