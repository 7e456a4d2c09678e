package utils

// IsValidInput checks if a raw prefix should be processed for completions.
// The prefix is normalized first, so mixed case input is accepted.
// Returns false for empty strings and anything that is not purely alphabetic.
func IsValidInput(s string) bool {
	return IsAlphabetic(NormalizeWord(s))
}

// IsRepetitive checks if a string consists of one character repeated 3+ times
// (e.g., "aaa", "bbbb"). Used by the CLI to flag keyboard mashing.
func IsRepetitive(s string) bool {
	runes := []rune(s)
	if len(runes) <= 2 {
		return false
	}
	for _, r := range runes[1:] {
		if r != runes[0] {
			return false
		}
	}
	return true
}
