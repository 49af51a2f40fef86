// Package cellwidth provides grapheme-aware display-cell width arithmetic:
// string width, grapheme navigation, and word-boundary detection over UTF-8
// text, matching what a terminal actually renders rather than rune count.
package cellwidth

import (
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"github.com/unilibs/uniwidth"
)

// DefaultTabWidth is used by Width when the caller does not override it.
const DefaultTabWidth = 4

// Width returns the total number of display cells text occupies, treating
// CR and LF as zero-width and TAB as tabWidth cells. tabWidth <= 0 falls
// back to DefaultTabWidth.
func Width(text string, tabWidth int) int {
	if tabWidth <= 0 {
		tabWidth = DefaultTabWidth
	}
	if text == "" {
		return 0
	}

	total := 0
	rest := text
	for len(rest) > 0 {
		r, size := utf8.DecodeRuneInString(rest)
		switch r {
		case '\r', '\n':
			rest = rest[size:]
			continue
		case '\t':
			total += tabWidth
			rest = rest[size:]
			continue
		}

		// Advance by one grapheme cluster so combining marks/ZWJ
		// sequences aren't double-counted against their base rune.
		cluster, clusterRest, clusterWidth := nextCluster(rest)
		if cluster == "" {
			break
		}
		total += clusterWidth
		rest = clusterRest
	}
	return total
}

// nextCluster splits off the first grapheme cluster of s and returns its
// display width, using the fast uniwidth path for the common case and
// falling back to uniseg only when the cluster needs real segmentation.
func nextCluster(s string) (cluster string, rest string, width int) {
	if !needsSegmentation(s) {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size <= 1 {
			return string(utf8.RuneError), s[1:], 1
		}
		return s[:size], s[size:], uniwidth.RuneWidth(r)
	}

	gr := uniseg.NewGraphemes(s)
	if !gr.Next() {
		return "", "", 0
	}
	c := gr.Str()
	return c, s[len(c):], clusterWidth(c)
}

// needsSegmentation reports whether the next rune of s starts a cluster
// that requires grapheme-boundary analysis (combining marks, ZWJ, emoji
// variation/skin-tone selectors) rather than a single-rune width lookup.
func needsSegmentation(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return false
	}
	rest := s[size:]
	if rest == "" {
		return false
	}
	next, _ := utf8.DecodeRuneInString(rest)
	return isCombining(next) || next == 0x200D ||
		(next >= 0xFE00 && next <= 0xFE0F) ||
		(next >= 0x1F3FB && next <= 0x1F3FF)
}

func isCombining(r rune) bool {
	return unicode.In(r, unicode.Mn, unicode.Me, unicode.Mc)
}

func clusterWidth(cluster string) int {
	if cluster == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(cluster)
	if r == utf8.RuneError {
		return 1
	}
	return uniwidth.RuneWidth(r)
}

// PrevGrapheme returns the byte index of the grapheme cluster immediately
// before idx. idx and the result are byte offsets into text. Returns 0 if
// idx is already at or before the start of text.
func PrevGrapheme(text string, idx int) int {
	if idx <= 0 {
		return 0
	}
	if idx > len(text) {
		idx = len(text)
	}
	state := -1
	boundary := 0
	rest := text
	for len(rest) > 0 {
		cluster, _, newState := uniseg.FirstGraphemeClusterInString(rest, state)
		if boundary+len(cluster) >= idx {
			return boundary
		}
		boundary += len(cluster)
		rest = rest[len(cluster):]
		state = newState
	}
	return boundary
}

// NextGrapheme returns the byte index of the grapheme cluster immediately
// after idx. Returns len(text) if idx is already at or past the end.
func NextGrapheme(text string, idx int) int {
	if idx >= len(text) {
		return len(text)
	}
	if idx < 0 {
		idx = 0
	}
	cluster, _, _ := uniseg.FirstGraphemeClusterInString(text[idx:], -1)
	return idx + len(cluster)
}

// IndexAtCell returns the byte index of the grapheme cluster occupying the
// given 0-based display cell offset, clamped to len(text) if cellOffset is
// past the end of the rendered text.
func IndexAtCell(text string, cellOffset int) int {
	if cellOffset <= 0 {
		return 0
	}
	cells := 0
	idx := 0
	for idx < len(text) {
		start := idx
		r, size := utf8.DecodeRuneInString(text[idx:])
		if r == '\r' || r == '\n' {
			idx += size
			continue
		}
		var w int
		if r == '\t' {
			w = DefaultTabWidth
			idx += size
		} else {
			cluster, _, cw := nextCluster(text[idx:])
			if cluster == "" {
				break
			}
			w = cw
			idx += len(cluster)
		}
		if cells+w > cellOffset {
			return start
		}
		cells += w
	}
	return len(text)
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// IsWordStart reports whether idx is the first word character of a run
// (preceded by a non-word character or start-of-text).
func IsWordStart(text string, idx int) bool {
	if idx < 0 || idx >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[idx:])
	if !isWordChar(r) {
		return false
	}
	if idx == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:idx])
	return !isWordChar(prev)
}

// IsWordEnd reports whether idx is the position immediately after the last
// word character of a run.
func IsWordEnd(text string, idx int) bool {
	if idx <= 0 || idx > len(text) {
		return false
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:idx])
	if !isWordChar(prev) {
		return false
	}
	if idx == len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[idx:])
	return !isWordChar(r)
}

// WordStart returns the byte index of the start of the word run containing
// or preceding idx (scanning backward), for Ctrl+Left/Alt+B style motions.
func WordStart(text string, idx int) int {
	if idx > len(text) {
		idx = len(text)
	}
	i := idx
	// Skip any non-word run immediately to the left.
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:i])
		if isWordChar(r) {
			break
		}
		i -= size
	}
	// Skip the word run itself.
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:i])
		if !isWordChar(r) {
			break
		}
		i -= size
	}
	return i
}

// WordEnd returns the byte index just past the end of the word run
// containing or following idx (scanning forward), for Ctrl+Right/Alt+F
// style motions.
func WordEnd(text string, idx int) int {
	if idx < 0 {
		idx = 0
	}
	i := idx
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if isWordChar(r) {
			break
		}
		i += size
	}
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isWordChar(r) {
			break
		}
		i += size
	}
	return i
}
