// Package normalize strips the characters spammers insert between the letters
// of a banned word so the word can be matched again.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// invisibles are zero-width, filler and directional-format code points that
// render as nothing but break up a pattern match.
var invisibles = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00AD, Hi: 0x00AD, Stride: 1}, // soft hyphen
		{Lo: 0x034F, Hi: 0x034F, Stride: 1}, // combining grapheme joiner
		{Lo: 0x061C, Hi: 0x061C, Stride: 1}, // arabic letter mark
		{Lo: 0x115F, Hi: 0x1160, Stride: 1}, // hangul choseong/jungseong fillers
		{Lo: 0x17B4, Hi: 0x17B5, Stride: 1}, // khmer inherent vowels
		{Lo: 0x180B, Hi: 0x180E, Stride: 1}, // mongolian variation selectors, vowel separator
		{Lo: 0x200B, Hi: 0x200F, Stride: 1}, // zero-width space through RTL mark
		{Lo: 0x202A, Hi: 0x202E, Stride: 1}, // bidi embedding controls
		{Lo: 0x2060, Hi: 0x2064, Stride: 1}, // word joiner through invisible plus
		{Lo: 0x2066, Hi: 0x206F, Stride: 1}, // bidi isolates, deprecated format chars
		{Lo: 0x3164, Hi: 0x3164, Stride: 1}, // hangul filler
		{Lo: 0xFE00, Hi: 0xFE0F, Stride: 1}, // variation selectors
		{Lo: 0xFEFF, Hi: 0xFEFF, Stride: 1}, // BOM / ZWNBSP
		{Lo: 0xFFA0, Hi: 0xFFA0, Stride: 1}, // halfwidth hangul filler
		{Lo: 0xFFF9, Hi: 0xFFFB, Stride: 1}, // interlinear annotation
	},
	R32: []unicode.Range32{
		{Lo: 0x1D173, Hi: 0x1D17A, Stride: 1}, // musical symbol format chars
		{Lo: 0xE0000, Hi: 0xE007F, Stride: 1}, // tags
		{Lo: 0xE0100, Hi: 0xE01EF, Stride: 1}, // variation selectors supplement
	},
}

// pictographs covers the common emoji and decorative symbol blocks.
var pictographs = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x2300, Hi: 0x23FF, Stride: 1}, // misc technical
		{Lo: 0x25A0, Hi: 0x25FF, Stride: 1}, // geometric shapes
		{Lo: 0x2600, Hi: 0x26FF, Stride: 1}, // misc symbols
		{Lo: 0x2700, Hi: 0x27BF, Stride: 1}, // dingbats
		{Lo: 0x2B00, Hi: 0x2BFF, Stride: 1}, // misc symbols and arrows
		{Lo: 0x3030, Hi: 0x3030, Stride: 1}, // wavy dash
		{Lo: 0x303D, Hi: 0x303D, Stride: 1}, // part alternation mark
		{Lo: 0x3297, Hi: 0x3297, Stride: 1}, // circled ideograph congratulation
		{Lo: 0x3299, Hi: 0x3299, Stride: 1}, // circled ideograph secret
	},
	R32: []unicode.Range32{
		// mahjong, cards, enclosed supplements, regional indicators, pictographs,
		// emoticons, transport, alchemical, geometric extended, arrows-c,
		// supplemental and extended-a pictographs
		{Lo: 0x1F000, Hi: 0x1FAFF, Stride: 1},
	},
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || unicode.Is(invisibles, r)
}

func isNonText(r rune) bool {
	return !unicode.In(r, unicode.L, unicode.N, unicode.P, unicode.Zs)
}

// Text returns s with separators, pictographs and non-text runes removed, in
// that order. It never fails and Text(Text(s)) == Text(s).
func Text(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToValidUTF8(s, "")

	// transform.Chain keeps per-call state, so it is built on every call.
	t := transform.Chain(
		runes.Remove(runes.Predicate(isSeparator)),
		runes.Remove(runes.In(pictographs)),
		runes.Remove(runes.Predicate(isNonText)),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
