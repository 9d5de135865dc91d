package security

import (
	"fmt"
	"strings"
)

// ValidateCameraName checks that name can be used as the stem of calibration
// file names inside a calibration directory: it must be non-empty and may
// only contain ASCII letters, digits, dot, underscore and dash. "." and ".."
// are rejected.
func ValidateCameraName(name string) error {
	if name == "" {
		return fmt.Errorf("camera name is empty")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("invalid camera name %q", name)
	}
	for _, r := range name {
		if !isFilenameRune(r) {
			return fmt.Errorf("invalid camera name %q: character %q not allowed", name, r)
		}
	}
	return nil
}

// SanitizeFilename makes a safe filename from an arbitrary string. It replaces
// any characters that are not ASCII letters, digits, dot, underscore or dash
// with an underscore, collapses repeated underscores and trims the result to
// a reasonable length.
func SanitizeFilename(s string) string {
	if s == "" {
		return "unknown"
	}
	var b strings.Builder
	const maxLen = 128
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		if isFilenameRune(r) {
			b.WriteRune(r)
			lastUnderscore = r == '_'
			continue
		}
		if !lastUnderscore {
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}

func isFilenameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.' || r == '_' || r == '-':
		return true
	}
	return false
}
