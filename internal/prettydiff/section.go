package prettydiff

import "bytes"

// Section is the part of a diff a line belongs to.
type Section int

const (
	SectionPrelude Section = iota // before the first header; never re-entered
	SectionHeader                 // per-file header lines
	SectionContext                // hunk content
)

func (s Section) String() string {
	switch s {
	case SectionPrelude:
		return "prelude"
	case SectionHeader:
		return "header"
	case SectionContext:
		return "context"
	default:
		return "unknown"
	}
}

// headerPrefixes start lines that belong to a file header.
var headerPrefixes = [][]byte{
	[]byte("diff "),
	[]byte("index "),
	[]byte("new file "),
	[]byte("deleted file "),
	[]byte("rename "),
	[]byte("similarity index "),
	[]byte("+++ "),
	[]byte("--- "),
}

// isHeaderLine reports whether line starts with a header prefix. With inHunk, "+++ " and "--- " are not considered: inside a hunk they are far more likely to be
// content (ex: a removed line that read "-- x").
func isHeaderLine(line []byte, inHunk bool) bool {
	for _, p := range headerPrefixes {
		if inHunk && (p[0] == '+' || p[0] == '-') {
			continue
		}
		if bytes.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// Classifier tracks the section of successive lines. The zero value starts in SectionPrelude.
type Classifier struct {
	section Section
}

// Section returns the section of the most recently classified line.
func (c *Classifier) Section() Section {
	return c.section
}

// Next classifies line and reports its section and whether the section changed with it.
func (c *Classifier) Next(line []byte) (Section, bool) {
	prev := c.section
	switch c.section {
	case SectionPrelude:
		if isHeaderLine(line, false) {
			c.section = SectionHeader
		}
	case SectionHeader:
		if !isHeaderLine(line, false) {
			c.section = SectionContext
		}
	case SectionContext:
		if isHeaderLine(line, true) {
			c.section = SectionHeader
		}
	}
	return c.section, c.section != prev
}
