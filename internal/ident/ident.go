// Package ident implements identifier canonicalization: identifiers are
// phantom-tagged as Raw (as written) or Canonical (normalized), and every
// cross-reference and map key uses the Canonical form.
package ident

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Raw is an identifier exactly as written in a Project's source text.
type Raw string

// Canonical is the lowercased, whitespace-collapsed, quote-stripped form
// used for every map key and cross-reference. Construct with Canonicalize,
// never by casting a Raw directly.
type Canonical string

// Canonicalize folds a Raw identifier into its Canonical form:
//  1. trim surrounding whitespace
//  2. strip one layer of wrapping ASCII double quotes
//  3. un-escape backslash escapes (\\ -> \)
//  4. collapse runs of {space, tab, NBSP, \n, \r, the two-character escapes
//     \n and \r} into a single '_'
//  5. apply Unicode NFC normalization, then case-fold (lowercase)
//
// Canonicalize is total (never errors) and idempotent:
// Canonicalize(Canonicalize(s)) == Canonicalize(s).
func Canonicalize(s Raw) Canonical {
	str := strings.TrimSpace(string(s))

	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}

	str = strings.ReplaceAll(str, `\\`, `\`)
	str = strings.ReplaceAll(str, `\n`, "\n")
	str = strings.ReplaceAll(str, `\r`, "\r")

	str = norm.NFC.String(str)

	var b strings.Builder
	b.Grow(len(str))
	inRun := false
	for _, r := range str {
		if isCollapsible(r) {
			if !inRun {
				b.WriteByte('_')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(unicode.ToLower(r))
	}
	return Canonical(b.String())
}

func isCollapsible(r rune) bool {
	switch r {
	case ' ', ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

// String returns the canonical identifier as a plain string, for use as a
// map key or for display.
func (c Canonical) String() string { return string(c) }

// String returns the raw identifier as a plain string.
func (r Raw) String() string { return string(r) }
