package prettydiff

import (
	"unicode/utf8"

	"github.com/codalotl/dif/internal/q/termformat"
	"github.com/codalotl/dif/internal/q/uni"
)

// spans is the result of comparing a line with its pair. prefix and suffix are byte lengths within the line being rendered; prefix counts the leading marker.
type spans struct {
	prefix    int
	suffix    int
	highlight bool // bytes in [prefix, len-suffix) differ from the pair and are shown in reverse video
}

// computeSpans compares line against pair, which may be nil. Without a pair nothing is highlighted.
func computeSpans(line, pair []byte) spans {
	sp := spans{prefix: 1}
	if pair == nil || len(line) == 0 {
		return sp
	}

	for i := 1; i < len(line) && i < len(pair) && line[i] == pair[i]; i++ {
		sp.prefix++
	}
	for i := 0; i < len(line) && i < len(pair) && line[len(line)-1-i] == pair[len(pair)-1-i]; i++ {
		sp.suffix++
	}

	// Ex: "-foo(a, b)" against "+foo(a, c, b)" matches 8 leading and 5 trailing bytes, which overlap in the shorter line.
	if sp.prefix+sp.suffix > len(line) {
		sp.suffix = len(line) - sp.prefix
	}

	sp.prefix = snapPrefix(line, sp.prefix)
	sp.suffix = snapSuffix(line, sp.suffix)
	sp.prefix, sp.suffix = snapGraphemes(line, sp.prefix, sp.suffix)

	insignificant := onlyWhitespace(line[1:sp.prefix]) && onlyWhitespace(line[len(line)-sp.suffix:])
	sp.highlight = !insignificant && (sp.prefix > 1 || sp.suffix > 0) && sp.prefix != len(line)
	return sp
}

// snapPrefix shrinks prefix so it does not end inside a code point. Malformed bytes end the prefix.
func snapPrefix(line []byte, prefix int) int {
	for i := 1; i < prefix; {
		r, size := utf8.DecodeRune(line[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		if i+size > prefix {
			return i
		}
		i += size
	}
	return prefix
}

// snapSuffix shrinks suffix so it does not start inside a code point and contains no malformed bytes. Decoding starts after the marker.
func snapSuffix(line []byte, suffix int) int {
	if suffix == 0 {
		return 0
	}
	start := len(line) - suffix
	for i := 1; i < len(line); {
		r, size := utf8.DecodeRune(line[i:])
		invalid := r == utf8.RuneError && size <= 1
		switch {
		case i < start && i+size > start:
			start = i + size
		case i >= start && invalid:
			start = i + 1
		}
		i += size
	}
	return len(line) - start
}

// snapGraphemes shrinks prefix and suffix further so neither splits a grapheme cluster, such as a letter and its combining accent.
func snapGraphemes(line []byte, prefix, suffix int) (int, int) {
	start := len(line) - suffix
	newPrefix, newStart := 1, len(line)
	iter := uni.NewGraphemeIterator(line[1:])
	for iter.Next() {
		s, e := 1+iter.Start(), 1+iter.End()
		if e <= prefix {
			newPrefix = e
		}
		if s >= start && newStart == len(line) {
			newStart = s
		}
	}
	return newPrefix, len(line) - newStart
}

// onlyWhitespace reports whether b holds nothing but spaces, tabs and line endings.
func onlyWhitespace(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}

// appendLine appends line to dst. With colorize, the marker byte selects the line color, the differing region of sp is inverted, and every newline is preceded by
// a reset. A line without a trailing newline always gets a trailing reset so the terminal is not left colored.
func appendLine(dst []byte, line []byte, sp spans, colorize bool) []byte {
	n := len(line)
	for i, c := range line {
		if colorize {
			var esc string
			switch {
			case i == 0 && c == '+':
				esc = termformat.ANSIGreen
			case i == 0 && c == '-':
				esc = termformat.ANSIRed
			case i == 0 && c == '@':
				esc = termformat.ANSICyan
			case c == '\n':
				esc = termformat.ANSIReset
			case i == 0 && c != ' ':
				esc = termformat.ANSIBold
			case i != 0 && sp.highlight:
				if i == sp.prefix {
					esc = termformat.ANSIInvert
				}
				// An empty region gets only the closing code.
				if n-i == sp.suffix {
					esc = termformat.ANSIUninvert
				}
			}
			dst = append(dst, esc...)
		}
		dst = append(dst, c)
	}
	if n > 0 && line[n-1] != '\n' {
		dst = append(dst, termformat.ANSIReset...)
	}
	return dst
}
