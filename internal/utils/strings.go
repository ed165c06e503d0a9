package utils

import (
	"strings"
)

// NormalizePlate upper-cases a license plate and strips inner whitespace.
func NormalizePlate(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), ""))
}

// SafeFilenamePart keeps a value usable inside a download file name.
func SafeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}

// Fallback returns v trimmed, or fallback when v is blank.
func Fallback(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
