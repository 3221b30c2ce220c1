package players

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// nameSuffixes are generational tags that upstream sources apply
// inconsistently ("Odell Beckham Jr." vs "Odell Beckham").
var nameSuffixes = map[string]bool{
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true, "v": true,
}

// Normalize canonicalizes a player name for matching: it lowercases,
// strips diacritics and punctuation, collapses whitespace, and drops
// generational suffixes.
func Normalize(name string) string {
	if name == "" {
		return ""
	}
	s := stripDiacritics(name)
	s = strings.ToLower(s)
	s = stripPunctuation(s)

	fields := strings.Fields(s)
	for len(fields) > 1 && nameSuffixes[fields[len(fields)-1]] {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

func stripDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if !unicode.Is(unicode.Mn, r) { // Mn = Mark, Nonspacing (combining accents)
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripPunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\'' || r == '.':
			// "D'Andre" -> "dandre", "A.J." -> "aj"
		case r == '-':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
