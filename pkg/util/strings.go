package util

import (
	"strconv"
	"strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// ParseBoolDefault parses string to bool or returns default if empty/invalid.
func ParseBoolDefault(s string, def bool) bool {
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}

// HasExt reports whether name ends in ext, ignoring case.
func HasExt(name, ext string) bool {
	return strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext))
}
