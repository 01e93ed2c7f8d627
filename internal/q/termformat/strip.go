package termformat

const esc = '\x1b'

// StripColors removes color escapes from line in place and returns the shortened slice. An escape runs from ESC up to and including the next 'm'; an ESC with no
// following 'm' drops the remainder of line. Lines without ESC are returned unchanged, so StripColors is idempotent.
func StripColors(line []byte) []byte {
	dst := 0
	dropping := false
	for _, c := range line {
		if !dropping && c == esc {
			dropping = true
		}
		if !dropping {
			line[dst] = c
			dst++
			continue
		}
		if c == 'm' {
			dropping = false
		}
	}
	return line[:dst]
}

// StripColorsString is StripColors for strings.
func StripColorsString(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == esc {
			return string(StripColors([]byte(s)))
		}
	}
	return s
}
