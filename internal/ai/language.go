package ai

// IsArabic reports whether the text contains any character in the Arabic
// Unicode block. A single Arabic character is enough to route the request
// to the Arabic prompt and apology.
func IsArabic(text string) bool {
	for _, r := range text {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}
