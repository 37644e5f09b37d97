package simulator

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var phonePattern = regexp.MustCompile(`^\+?\d`)

const maskedDate = "**/**/****"

// Mask returns the display form of an anonymized value.
//
// The masking is cosmetic: it hides most characters for presentation but the
// output is neither irreversible nor unlinkable. The first matching rule wins:
// emails keep the first character of the local part and the domain, numeric
// values keep the last two digits of each digit run, values containing a slash
// become a masked date, and anything else keeps the first character of every
// word. Dates that start with a digit are masked as dates.
func Mask(value string) string {
	switch {
	case strings.Contains(value, "@"):
		return maskEmail(value)
	case phonePattern.MatchString(value) && !strings.Contains(value, "/"):
		return maskDigits(value)
	case strings.Contains(value, "/"):
		return maskedDate
	default:
		return maskWords(value)
	}
}

func maskEmail(value string) string {
	local, domain, _ := strings.Cut(value, "@")
	return firstRune(local) + "***@" + domain
}

// maskDigits replaces every digit that is immediately followed by two more
// digits in the original value.
func maskDigits(value string) string {
	runes := []rune(value)
	out := make([]rune, len(runes))
	for i, r := range runes {
		out[i] = r
		if isDigit(r) && i+2 < len(runes) && isDigit(runes[i+1]) && isDigit(runes[i+2]) {
			out[i] = '*'
		}
	}
	return string(out)
}

func maskWords(value string) string {
	words := strings.FieldsFunc(value, unicode.IsSpace)
	for i, w := range words {
		words[i] = firstRune(w) + "***"
	}
	return strings.Join(words, " ")
}

func firstRune(s string) string {
	if s == "" {
		return ""
	}
	_, size := utf8.DecodeRuneInString(s)
	return s[:size]
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
