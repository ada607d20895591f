package stringutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// StringSliceContainsKey determines if a string is present in a slice of strings
func StringSliceContainsKey(strings []string, key string) bool {
	for _, item := range strings {
		if item == key {
			return true
		}
	}
	return false
}

// Slugify lowercases s, strips accents and joins the remaining words with
// hyphens, the way catalogue slugs are generated
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range norm.NFKD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining accent left over by the decomposition
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if r > unicode.MaxASCII {
				continue
			}
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(unicode.ToLower(r))
		case r == '-' || unicode.IsSpace(r):
			pendingHyphen = true
		}
	}
	return b.String()
}
