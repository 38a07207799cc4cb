package refterm

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/bidi"
)

// DefaultSegMax is the tunable cap on shaping segments per line (§4.D).
const DefaultSegMax = 1024

// Segment is a half-open [Start, End) range over one line's decoded
// codepoints. Segments fully partition the line.
type Segment struct {
	Start, End int
}

// ShapeResult is the ordered sequence of segments produced for one
// complex line, plus whether the line as a whole reads right-to-left.
type ShapeResult struct {
	Codepoints []rune
	Segments   []Segment // in visitation order (reversed already if RTL)
	RTL        bool
}

// complexScripts mirrors the original's ScriptIsComplex table: scripts
// whose grapheme clusters must not be split at a plain LINE_SOFT break.
var complexScripts = map[string]bool{
	"Arabic":     true,
	"Hebrew":     true,
	"Devanagari": true,
	"Thai":       true,
	"Myanmar":    true,
	"Bengali":    true,
	"Tamil":      true,
	"Khmer":      true,
}

// scriptOf returns the Unicode script name containing r, or "Common" if
// none of the tables checked match. unicode.Scripts has no "current
// script of rune" accessor, so this walks the table directly.
func scriptOf(r rune) string {
	for name, tab := range unicode.Scripts {
		if unicode.Is(tab, r) {
			return name
		}
	}
	return "Common"
}

// Shaper segments one complex line's decoded codepoints into shaping runs
// honoring grapheme, word, script, and direction breaks, per §4.D.
type Shaper struct {
	SegMax int
}

// NewShaper returns a Shaper with the default segment cap.
func NewShaper() *Shaper { return &Shaper{SegMax: DefaultSegMax} }

// Shape decodes line's UTF-8 bytes and returns its shaping segments. A
// malformed byte is skipped for codepoint counting (ErrInvalidUTF8 is
// still returned, graceful-degradation per §7) but does not abort the
// line.
func (s *Shaper) Shape(line []byte) (ShapeResult, error) {
	segMax := s.SegMax
	if segMax <= 0 {
		segMax = DefaultSegMax
	}

	var codepoints []rune
	var sawInvalid bool
	for i := 0; i < len(line); {
		r, size := utf8.DecodeRune(line[i:])
		if r == utf8.RuneError && size <= 1 {
			sawInvalid = true
			i++
			continue
		}
		codepoints = append(codepoints, r)
		i += size
	}
	n := len(codepoints)
	if n == 0 {
		if sawInvalid {
			return ShapeResult{}, ErrInvalidUTF8
		}
		return ShapeResult{}, nil
	}

	boundaries := map[int]bool{0: true, n: true}
	rtl := false
	prevScript := ""
	prevComplex := false
	prevRTLSeen := false

	for i, r := range codepoints {
		script := scriptOf(r)
		isComplex := complexScripts[script]
		props := bidi.LookupRune(r)
		class := props.Class()
		isRTL := class == bidi.R || class == bidi.AL
		if isRTL {
			rtl = true
			prevRTLSeen = true
		}

		switch {
		case r == ' ' || r == ' ':
			boundaries[i] = true
			boundaries[i+1] = true // LINE_HARD
		case script != prevScript && i > 0:
			boundaries[i] = true // SCRIPT change, always a boundary
		case isComplex != prevComplex && i > 0:
			// Treat a script-complexity transition as a soft line break
			// boundary: only actually a boundary when complex or RTL has
			// been observed, matching LINE_SOFT's classifier.
			if isComplex || prevRTLSeen {
				boundaries[i] = true
			}
		case !isComplex && !unicode.IsMark(r) && i > 0:
			// GRAPHEME boundary for simple scripts: a boundary before
			// every non-combining codepoint.
			boundaries[i] = true
		}

		if unicode.IsSpace(r) {
			boundaries[i] = true
			boundaries[i+1] = true
		}

		prevScript = script
		prevComplex = isComplex
	}

	sorted := make([]int, 0, len(boundaries))
	for b := range boundaries {
		sorted = append(sorted, b)
	}
	insertionSort(sorted)

	if len(sorted) > segMax+1 {
		sorted = sorted[:segMax]
		sorted = append(sorted, n)
	}

	segments := make([]Segment, 0, len(sorted)-1)
	for i := 0; i+1 < len(sorted); i++ {
		if sorted[i] == sorted[i+1] {
			continue
		}
		segments = append(segments, Segment{Start: sorted[i], End: sorted[i+1]})
	}

	if rtl {
		for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
			segments[i], segments[j] = segments[j], segments[i]
		}
	}

	result := ShapeResult{Codepoints: codepoints, Segments: segments, RTL: rtl}
	if sawInvalid {
		return result, ErrInvalidUTF8
	}
	return result, nil
}

// insertionSort sorts boundary slices in place. It runs before the SegMax
// cap is applied, so a line's boundary count is bounded only by its
// codepoint count plus one.
func insertionSort(a []int) {
	for i := 1; i < len(a); i++ {
		v := a[i]
		j := i - 1
		for j >= 0 && a[j] > v {
			a[j+1] = a[j]
			j--
		}
		a[j+1] = v
	}
}
