package prettydiff

import (
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/codalotl/dif/internal/q/termformat"
	"github.com/codalotl/dif/internal/q/uni"
	"github.com/codalotl/dif/internal/simplelogger"
)

const devNull = "/dev/null"

// ChangeKind is the kind of change a file banner announces.
type ChangeKind int

const (
	Modified ChangeKind = iota
	Added
	Moved
	Deleted
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Moved:
		return "moved"
	case Deleted:
		return "deleted"
	default:
		return "modified"
	}
}

// fileHeader is a from/to path pair assembled from "rename from"/"rename to" or "---"/"+++" lines.
type fileHeader struct {
	from  string
	to    string
	hasTo bool
}

// gitSection is what a "diff --git a/<x> b/<y>" line and the lines after it say about one file.
type gitSection struct {
	from     string // x, without its a/ prefix
	to       string // y, without its b/ prefix
	prefixed bool   // paths carried a/ and b/ prefixes
	added    bool   // saw "new file mode"
	deleted  bool   // saw "deleted file mode"
	banners  []string
}

// headers consumes header lines and renders file banners.
type headers struct {
	diag     io.Writer
	width    func() (int, error)
	cols     int
	haveCols bool

	open *fileHeader
	git  *gitSection
}

func newHeaders(diag io.Writer, width func() (int, error)) *headers {
	return &headers{diag: diag, width: width}
}

// handle processes a Header section line, appending any banner it completes to dst. It reports whether line was consumed; unconsumed lines are written as-is.
func (h *headers) handle(dst []byte, line []byte) ([]byte, bool, error) {
	text := string(line)
	var err error

	switch {
	case strings.HasPrefix(text, "diff "):
		dst, err = h.endFile(dst)
		h.git = parseGitHeader(text)
	case strings.HasPrefix(text, "index "), strings.HasPrefix(text, "similarity "):
	case strings.HasPrefix(text, "new file "):
		if h.git != nil {
			h.git.added = true
		}
	case strings.HasPrefix(text, "deleted file "):
		if h.git != nil {
			h.git.deleted = true
		}
	case strings.HasPrefix(text, "rename from "):
		dst, err = h.flushOpen(dst)
		h.open = &fileHeader{from: h.path(text[len("rename from "):], "")}
	case strings.HasPrefix(text, "rename to "):
		h.renameTo(h.path(text[len("rename to "):], ""))
	case strings.HasPrefix(text, "--- "):
		from := h.path(text[len("--- "):], "a/")
		if h.open != nil && h.open.from == from {
			break
		}
		dst, err = h.flushOpen(dst)
		h.open = &fileHeader{from: from}
	case strings.HasPrefix(text, "+++ "):
		dst, err = h.plusPlusPlus(dst, h.path(text[len("+++ "):], "b/"))
	default:
		return dst, false, nil
	}
	return dst, true, err
}

func (h *headers) renameTo(to string) {
	if h.open == nil {
		simplelogger.Warn(h.diag, "no 'from' path for 'to' path %s", to)
		return
	}
	if h.open.hasTo {
		if h.open.to != to {
			simplelogger.Warn(h.diag, "duplicate 'to' paths %s and %s for 'from' path %s", h.open.to, to, h.open.from)
		}
		return
	}
	h.open.to = to
	h.open.hasTo = true
}

// plusPlusPlus completes the open header with to and renders it.
func (h *headers) plusPlusPlus(dst []byte, to string) ([]byte, error) {
	if h.open == nil {
		simplelogger.Warn(h.diag, "no 'from' path for 'to' path %s", to)
		return dst, nil
	}
	fh := h.open
	h.open = nil
	if !fh.hasTo {
		fh.to = to
		fh.hasTo = true
	} else if fh.to != to {
		simplelogger.Warn(h.diag, "duplicate 'to' paths %s and %s for 'from' path %s", fh.to, to, fh.from)
	}
	return h.render(dst, *fh)
}

// flushOpen renders the open header if it is complete, or warns about it if not, and closes it.
func (h *headers) flushOpen(dst []byte) ([]byte, error) {
	fh := h.open
	if fh == nil {
		return dst, nil
	}
	h.open = nil
	if !fh.hasTo {
		simplelogger.Warn(h.diag, "no 'to' path for 'from' path %s", fh.from)
		return dst, nil
	}
	return h.render(dst, *fh)
}

// endFile closes out the current file: the open header is flushed, and a git file that has produced no banner yet (ex: an empty new file or a mode change) gets
// one from its "diff --git" paths.
func (h *headers) endFile(dst []byte) ([]byte, error) {
	dst, err := h.flushOpen(dst)
	if err != nil {
		return dst, err
	}
	if h.git != nil && len(h.git.banners) == 0 {
		return h.render(dst, fileHeader{from: h.git.from, to: h.git.to, hasTo: true})
	}
	return dst, nil
}

// kind classifies fh. Explicit git markers win over /dev/null paths.
func (h *headers) kind(fh fileHeader) ChangeKind {
	switch {
	case h.git != nil && h.git.added:
		return Added
	case h.git != nil && h.git.deleted:
		return Deleted
	case fh.from == fh.to:
		return Modified
	case fh.from == devNull:
		return Added
	case fh.to == devNull:
		return Deleted
	default:
		return Moved
	}
}

// render appends the banner for fh, padded to the terminal width. A banner already rendered for the current git file is skipped.
func (h *headers) render(dst []byte, fh fileHeader) ([]byte, error) {
	var style, label, name string
	switch h.kind(fh) {
	case Added:
		style, label, name = termformat.ANSIGreenReverse, "added: ", fh.to
		if name == devNull {
			name = fh.from
		}
	case Deleted:
		style, label, name = termformat.ANSIRedReverse, "deleted: ", fh.from
		if name == devNull {
			name = fh.to
		}
	case Moved:
		style, label, name = termformat.ANSIYellowReverse, "modified: ", fh.from+" → "+fh.to
	default:
		style, label, name = termformat.ANSIYellowReverse, "modified: ", fh.from
	}

	banner := style + label + termformat.ANSIBold + name
	if h.git != nil {
		if slices.Contains(h.git.banners, banner) {
			return dst, nil
		}
		h.git.banners = append(h.git.banners, banner)
	}

	cols, err := h.columns()
	if err != nil {
		return dst, err
	}
	dst = append(dst, banner...)
	for range uni.PadRight(termformat.TextWidthWithANSICodes(banner), cols) {
		dst = append(dst, ' ')
	}
	dst = append(dst, termformat.ANSIReset...)
	dst = append(dst, '\n')
	return dst, nil
}

// columns returns the terminal width, querying it on first use only.
func (h *headers) columns() (int, error) {
	if h.haveCols || h.width == nil {
		return h.cols, nil
	}
	cols, err := h.width()
	if err != nil {
		return 0, fmt.Errorf("prettydiff: terminal width: %w", err)
	}
	h.cols = cols
	h.haveCols = true
	return cols, nil
}

// path extracts a path from the rest of a header line. When the current git file uses a/ and b/ prefixes, gitPrefix is removed.
func (h *headers) path(rest string, gitPrefix string) string {
	p := unquotePath(trimPath(rest))
	if gitPrefix != "" && h.git != nil && h.git.prefixed && p != devNull {
		p = strings.TrimPrefix(p, gitPrefix)
	}
	return p
}

// timestampRE matches the modification time diff appends to "---"/"+++" paths. Ex: "\t2002-02-21 23:30:39.942229878 -0800".
var timestampRE = regexp.MustCompile(`[\t\n\v\f\r ]+\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d+)? [+-]\d{4}$`)

// trimPath strips trailing whitespace and a trailing timestamp from s. The timestamp is kept if removing it would leave nothing.
func trimPath(s string) string {
	s = strings.TrimRight(s, "\t\n\v\f\r ")
	if loc := timestampRE.FindStringIndex(s); loc != nil && loc[0] > 0 {
		return s[:loc[0]]
	}
	return s
}

// unquotePath decodes a path git or diff wrapped in double quotes because it holds special characters. Other paths are returned unchanged.
func unquotePath(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s
}

// parseGitHeader parses a "diff --git" line, returning nil for other "diff " lines.
func parseGitHeader(line string) *gitSection {
	rest, ok := strings.CutPrefix(strings.TrimRight(line, "\r\n"), "diff --git ")
	if !ok {
		return nil
	}

	from, to := splitGitPaths(rest)
	from, to = unquotePath(from), unquotePath(to)
	g := &gitSection{from: from, to: to}
	if strings.HasPrefix(from, "a/") && strings.HasPrefix(to, "b/") {
		g.prefixed = true
		g.from = from[2:]
		g.to = to[2:]
	}
	return g
}

// splitGitPaths splits the two paths of a "diff --git" line. Paths may contain spaces, so when several splits are possible the one naming the same file twice
// wins (the common case of a modification), then the first " b/".
func splitGitPaths(rest string) (string, string) {
	if strings.HasPrefix(rest, `"`) {
		if end := closingQuote(rest); end > 0 {
			return rest[:end+1], strings.TrimLeft(rest[end+1:], " ")
		}
	}

	var candidates []int
	for i := 0; i < len(rest); i++ {
		if rest[i] == ' ' {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return rest, rest
	}

	same := func(a, b string) bool {
		return strings.TrimPrefix(a, "a/") == strings.TrimPrefix(b, "b/")
	}
	for _, i := range candidates {
		if same(rest[:i], rest[i+1:]) {
			return rest[:i], rest[i+1:]
		}
	}
	for _, i := range candidates {
		if strings.HasPrefix(rest[i+1:], "b/") || strings.HasPrefix(rest[i+1:], `"b/`) {
			return rest[:i], rest[i+1:]
		}
	}
	i := candidates[0]
	return rest[:i], rest[i+1:]
}

// closingQuote returns the index of the quote ending the quoted string at the start of s, or -1.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
