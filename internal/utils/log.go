package utils

import "strings"

// TruncateForLog flattens s to a single line and cuts it to limit runes.
// Model output, chat texts and http bodies all go through it before logging.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	line := strings.Join(strings.Fields(s), " ")

	runes := []rune(line)
	if len(runes) <= limit {
		return line
	}
	return string(runes[:limit]) + "..."
}
