package dataset

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName applies NFKC normalization, strips control characters and
// collapses runs of whitespace so that visually identical scheme names
// compare equal.
func NormalizeName(s string) string {
	normed := norm.NFKC.String(s)
	normed = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' && r != '\n' {
			return -1
		}
		return r
	}, normed)
	return strings.Join(strings.Fields(normed), " ")
}

// SplitSchemes splits a raw eligible_schemes cell into normalized names.
// Empty cells and the literal "none" yield no schemes.
func SplitSchemes(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "none") || strings.EqualFold(trimmed, "nan") {
		return nil
	}

	parts := strings.Split(trimmed, ";")
	schemes := make([]string, 0, len(parts))
	for _, p := range parts {
		name := NormalizeName(p)
		if name == "" {
			continue
		}
		schemes = append(schemes, name)
	}
	return schemes
}
