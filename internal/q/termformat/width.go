package termformat

import "github.com/codalotl/dif/internal/q/uni"

// TextWidthWithANSICodes returns the text width of str for monospace fonts in terminals while ignoring ANSI codes. Ex: color formatting codes don't contribute to
// the width and so are ignored. In other words, if rendered to a terminal, how many cells does str occupy?
func TextWidthWithANSICodes(str string) int {
	width := 0
	start := 0
	for i := 0; i < len(str); {
		if str[i] != esc {
			i++
			continue
		}
		width += uni.TextWidth(str[start:i], nil)
		if n := ansiSequenceLength(str[i:]); n > 0 {
			i += n
		} else {
			i++
		}
		start = i
	}
	return width + uni.TextWidth(str[start:], nil)
}

// ansiSequenceLength returns the byte length of the escape sequence at the start of s, or 0 if s does not start with a complete one.
func ansiSequenceLength(s string) int {
	if len(s) < 2 {
		return len(s) // lone ESC at end of input
	}

	switch s[1] {
	case '[':
		// CSI: parameters and intermediates, then a final byte in 0x40-0x7e.
		for i := 2; i < len(s); i++ {
			if s[i] >= 0x40 && s[i] <= 0x7e {
				return i + 1
			}
		}
	case ']', 'P', '^', '_':
		// String sequences end with BEL (OSC only) or ST (ESC \).
		for i := 2; i < len(s); i++ {
			if s[1] == ']' && s[i] == '\a' {
				return i + 1
			}
			if s[i] == '\\' && s[i-1] == esc {
				return i + 1
			}
		}
	default:
		return 2
	}
	return 0
}
