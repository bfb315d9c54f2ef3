package utils

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// DriverID derives the stable driver id from a display name: lowercase,
// accents stripped to ASCII where possible, runs of non-alphanumerics
// collapsed to single dashes. "João Silva" -> "joao-silva".
func DriverID(name string) string {
	var b strings.Builder
	lastDash := true // suppress a leading dash

	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		r = stripAccent(r)
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

// HistoryRecordID builds the unique id for one confirmation event. The
// epoch-millis suffix keeps repeated confirmations of the same stop on
// different days from colliding.
func HistoryRecordID(stopID string, at time.Time) string {
	return fmt.Sprintf("%s-%d", stopID, at.UnixMilli())
}

// stripAccent maps the accented letters that occur in Brazilian Portuguese
// names to their ASCII base letter. Anything else passes through.
func stripAccent(r rune) rune {
	switch r {
	case 'á', 'à', 'â', 'ã', 'ä':
		return 'a'
	case 'é', 'è', 'ê', 'ë':
		return 'e'
	case 'í', 'ì', 'î', 'ï':
		return 'i'
	case 'ó', 'ò', 'ô', 'õ', 'ö':
		return 'o'
	case 'ú', 'ù', 'û', 'ü':
		return 'u'
	case 'ç':
		return 'c'
	case 'ñ':
		return 'n'
	}
	return r
}
