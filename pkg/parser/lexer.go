package parser

import (
	"strconv"
	"strings"
)

// Shared lexical terminals of the two grammars. These never fail
// gracefully on their own: a false return means the surrounding
// production cannot match and the caller falls back to the
// unparsed-line case.

func isNameChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-' || r == '.' || r == ':':
		return true
	}
	return false
}

// isName reports whether s is a non-empty run of name characters
// (alphanumeric plus _ - . :), the charset zpool and zfs accept for
// pool and dataset path segments.
func isName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isNameChar(r) {
			return false
		}
	}
	return true
}

// isPath recognizes absolute slash-delimited paths. Each component is a
// name run; a trailing slash does not match.
func isPath(s string) bool {
	if len(s) < 2 || s[0] != '/' {
		return false
	}
	for _, part := range strings.Split(s[1:], "/") {
		if !isName(part) {
			return false
		}
	}
	return true
}

// isURL recognizes the http(s) documentation links of the see: field.
func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// parseDigits parses a digit run, allowing the underscore separators
// zpool uses in large counters (1_234_567).
func parseDigits(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	cleaned := strings.ReplaceAll(s, "_", "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(cleaned, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// indented reports whether the line starts with whitespace, the test a
// continuation line must pass.
func indented(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}
