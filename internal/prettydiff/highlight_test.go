package prettydiff

import (
	"bytes"
	"testing"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codalotl/dif/internal/q/termformat"
)

func render(line, pair string) string {
	var p []byte
	if pair != "" {
		p = []byte(pair)
	}
	l := []byte(line)
	return string(appendLine(nil, l, computeSpans(l, p), true))
}

func TestComputeSpansOverlappingSuffix(t *testing.T) {
	removed := []byte("-foo(a, b)\n")
	added := []byte("+foo(a, c, b)\n")

	sp := computeSpans(added, removed)
	assert.Equal(t, spans{prefix: 8, suffix: 5, highlight: true}, sp)
	assert.Equal(t, "foo(a, ", string(added[1:sp.prefix]))
	assert.Equal(t, ", b)\n", string(added[len(added)-sp.suffix:]))
	assert.Equal(t, "c", string(added[sp.prefix:len(added)-sp.suffix]))

	sp = computeSpans(removed, added)
	assert.Equal(t, spans{prefix: 8, suffix: 3, highlight: true}, sp)
	assert.LessOrEqual(t, sp.prefix+sp.suffix, len(removed))
}

func TestAppendLineOverlappingSuffix(t *testing.T) {
	assert.Equal(t, "\x1b[32m+foo(a, \x1b[7mc\x1b[27m, b)\x1b[0m\n", render("+foo(a, c, b)\n", "-foo(a, b)\n"))
	// The region is empty, so only the closing code is written.
	assert.Equal(t, "\x1b[31m-foo(a, \x1b[27mb)\x1b[0m\n", render("-foo(a, b)\n", "+foo(a, c, b)\n"))
}

func TestAppendLineMarkers(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"+added\n", "\x1b[32m+added\x1b[0m\n"},
		{"-removed\n", "\x1b[31m-removed\x1b[0m\n"},
		{"@@ -1 +1 @@ func f() {\n", "\x1b[36m@@ -1 +1 @@ func f() {\x1b[0m\n"},
		{" context\n", " context\x1b[0m\n"},
		{"Only in a: b\n", "\x1b[1mOnly in a: b\x1b[0m\n"},
		{"\n", "\x1b[0m\n"},
		{"+no newline", "\x1b[32m+no newline\x1b[0m"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, render(tt.line, ""))
		})
	}
}

func TestAppendLineWithoutColor(t *testing.T) {
	l := []byte("+x\n")
	assert.Equal(t, "+x\n", string(appendLine(nil, l, spans{prefix: 1}, false)))

	// An unterminated line still ends in a reset.
	l = []byte("trailing")
	assert.Equal(t, "trailing\x1b[0m", string(appendLine(nil, l, spans{prefix: 1}, false)))
}

func TestNoPairNeverInverts(t *testing.T) {
	for _, line := range []string{"-foo(a, b)\n", "+foo(a, c, b)\n", "+", "-\n", "+  \t\n", "-héllo\n"} {
		got := render(line, "")
		assert.NotContains(t, got, termformat.ANSIInvert, "line %q", line)
		assert.False(t, computeSpans([]byte(line), nil).highlight)
	}
}

func TestExactMatchSuppressesHighlight(t *testing.T) {
	sp := computeSpans([]byte("-same\n"), []byte("+same\n"))
	assert.Equal(t, 6, sp.prefix)
	assert.False(t, sp.highlight)
	assert.Equal(t, "\x1b[31m-same\x1b[0m\n", render("-same\n", "+same\n"))
}

// Highlighting is suppressed when everything the lines share is whitespace: the lines differ completely and inverting nearly all of them would be noise.
func TestWhitespaceOnlyCommonRegion(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		pair      string
		highlight bool
	}{
		{"only newline in common", "-abc\n", "+xyz\n", false},
		{"indent and newline", "-\t  return a\n", "+\t  panic(b)\n", false},
		{"crlf", "-foo\r\n", "+bar\r\n", false},
		{"no newline", "-foo", "+bar", false},
		{"shared word", "-  x = 1\n", "+  x = 2\n", true},
		{"shared trailing word", "-a end\n", "+b end\n", true},
		{"shared leading word only", "-call(x)", "+call(y, z)", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.highlight, computeSpans([]byte(tt.line), []byte(tt.pair)).highlight)
			assert.Equal(t, tt.highlight, computeSpans([]byte(tt.pair), []byte(tt.line)).highlight)
		})
	}
}

func TestComputeSpansUTF8Boundaries(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		pair   string
		prefix int
		suffix int
	}{
		{"prefix splits two-byte rune", "-é\n", "+è\n", 1, 1},
		{"suffix splits two-byte rune", "-xĀ\n", "+yÀ\n", 1, 1},
		{"prefix splits four-byte rune", "-go 😀 x\n", "+go 😃 x\n", 4, 3},
		{"cjk", "-日本語です\n", "+日本人です\n", 7, 7},
		{"malformed in prefix", "-a\xff b\n", "+a\xff c\n", 2, 1},
		{"malformed in suffix", "-b\xfe\n", "+c\xfe\n", 1, 1},
		{"combining mark stays with its base", "-cafe\u0301!\n", "+cafe\u0300!\n", 4, 2},
		{"flag is one cluster", "-\U0001F1EF\U0001F1F5\n", "+\U0001F1EF\U0001F1F7\n", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := computeSpans([]byte(tt.line), []byte(tt.pair))
			assert.Equal(t, tt.prefix, sp.prefix, "prefix")
			assert.Equal(t, tt.suffix, sp.suffix, "suffix")
		})
	}
}

// onBoundary reports whether offset i of b does not fall inside a code point.
func onBoundary(b []byte, i int) bool {
	return i == len(b) || utf8.RuneStart(b[i])
}

// runeBytes returns the byte length of the first n runes of s, or of its last n runes if fromEnd.
func runeBytes(s string, n int, fromEnd bool) int {
	r := []rune(s)
	if fromEnd {
		return len(string(r[len(r)-n:]))
	}
	return len(string(r[:n]))
}

// The common prefix and suffix of valid UTF-8 lines must agree with a rune-based comparison.
func TestComputeSpansMatchesRuneOracle(t *testing.T) {
	dmp := diffmatchpatch.New()
	pairs := [][2]string{
		{"-héllo wörld\n", "+héllo wårld\n"},
		{"-日本語テキスト\n", "+日本人テキスト\n"},
		{"-emoji 😀 here\n", "+emoji 😃 here\n"},
		{"-Ā→b\n", "+À→b\n"},
		{"-ab€cd\n", "+ab₤cd\n"},
		{"-κόσμε\n", "+κόσμος\n"},
		{"-x\n", "+y\n"},
		{"-ü", "+ö"},
	}
	for _, p := range pairs {
		for _, lp := range [][2]string{{p[0], p[1]}, {p[1], p[0]}} {
			line, pair := lp[0], lp[1]
			t.Run(line, func(t *testing.T) {
				sp := computeSpans([]byte(line), []byte(pair))
				require.True(t, onBoundary([]byte(line), sp.prefix))
				require.True(t, onBoundary([]byte(line), len(line)-sp.suffix))

				wantPrefix := 1 + runeBytes(line[1:], dmp.DiffCommonPrefix(line[1:], pair[1:]), false)
				wantSuffix := runeBytes(line[1:], dmp.DiffCommonSuffix(line[1:], pair[1:]), true)
				require.LessOrEqual(t, wantPrefix+wantSuffix, len(line), "pairs are chosen so prefix and suffix do not overlap")
				assert.Equal(t, wantPrefix, sp.prefix)
				assert.Equal(t, wantSuffix, sp.suffix)
			})
		}
	}
}

func TestPendingPairsEqualRuns(t *testing.T) {
	var p pending
	p.remove([]byte("-alpha one\n"))
	p.remove([]byte("-beta two\n"))
	p.add([]byte("+alpha 1\n"))
	p.add([]byte("+beta 2\n"))
	require.True(t, p.paired())

	got := string(p.flush(nil))
	// The region runs up to the newline, whose reset also ends the inversion.
	want := "\x1b[31m-alpha \x1b[7mone\x1b[0m\n" +
		"\x1b[31m-beta \x1b[7mtwo\x1b[0m\n" +
		"\x1b[32m+alpha \x1b[7m1\x1b[0m\n" +
		"\x1b[32m+beta \x1b[7m2\x1b[0m\n"
	assert.Equal(t, want, got)
	assert.True(t, p.empty())
}

func TestPendingUnequalRunsNotPaired(t *testing.T) {
	tests := []struct {
		name    string
		removed []string
		added   []string
	}{
		{"more removed", []string{"-foo(a)\n", "-foo(b)\n"}, []string{"+foo(c)\n"}},
		{"more added", []string{"-foo(a)\n"}, []string{"+foo(b)\n", "+foo(c)\n"}},
		{"only removed", []string{"-foo(a)\n"}, nil},
		{"only added", nil, []string{"+foo(a)\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p pending
			for _, l := range tt.removed {
				p.remove([]byte(l))
			}
			for _, l := range tt.added {
				p.add([]byte(l))
			}
			require.False(t, p.paired())
			got := p.flush(nil)
			assert.False(t, bytes.Contains(got, []byte(termformat.ANSIInvert)))
			assert.True(t, p.empty())
		})
	}
}

func TestPendingFlushOrder(t *testing.T) {
	var p pending
	p.remove([]byte("-1\n"))
	p.remove([]byte("-2\n"))
	require.True(t, p.canRemove())
	p.add([]byte("+3\n"))
	require.False(t, p.canRemove())

	got := termformat.StripColorsString(string(p.flush(nil)))
	assert.Equal(t, "-1\n-2\n+3\n", got)
	assert.True(t, p.canRemove())
}
