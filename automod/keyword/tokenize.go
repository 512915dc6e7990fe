package keyword

import (
	"strings"
	"unicode"
)

func splitIdentRune(c rune) bool {
	return !unicode.IsLetter(c) && !unicode.IsNumber(c)
}

// Splits a name in to normalized tokens. Removes any single-character tokens.
//
// For example, "Deleted User 0a1b2c3d" would be split in to ["deleted", "user", "0a1b2c3d"]
func TokenizeName(orig string) []string {
	fields := strings.FieldsFunc(foldMarks(orig), splitIdentRune)
	out := make([]string, 0, len(fields))
	for _, v := range fields {
		tok := Slugify(v)
		if len(tok) > 1 {
			out = append(out, tok)
		}
	}
	return out
}
