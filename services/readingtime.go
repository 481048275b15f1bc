package services

import (
	"math"
	"strconv"
	"strings"
)

// WordsPerMinute is the reading speed behind reading time estimates.
const WordsPerMinute = 183

// ReadingMinutes estimates minutes to read body: ceil(words / 183).
func ReadingMinutes(body string) int {
	words := len(strings.Fields(body))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / WordsPerMinute))
}

// FormatReadingTime renders minutes as "<n> min".
func FormatReadingTime(minutes int) string {
	return strconv.Itoa(minutes) + " min"
}

// ReadingTime is FormatReadingTime(ReadingMinutes(body)).
func ReadingTime(body string) string {
	return FormatReadingTime(ReadingMinutes(body))
}
