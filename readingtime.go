package inkwell

import (
	"strings"
	"unicode/utf8"
)

// DefaultReadingSpeed is the assumed reading speed in words per minute.
const DefaultReadingSpeed = 183

// ReadingTime estimates the minutes needed to read body at the given speed.
// The body is split on whitespace runs to count words and the result is
// rounded up, so any non-empty body takes at least one minute. Returns
// ErrInvalidContent for empty, whitespace-only, or non-textual input.
func ReadingTime(body string, wordsPerMinute int) (int, error) {
	if strings.TrimSpace(body) == "" || !utf8.ValidString(body) {
		return 0, ErrInvalidContent
	}
	if wordsPerMinute <= 0 {
		wordsPerMinute = DefaultReadingSpeed
	}
	words := len(strings.Fields(body))
	return (words + wordsPerMinute - 1) / wordsPerMinute, nil
}
