// Package uni measures how many terminal cells text occupies and segments text into grapheme clusters.
package uni

import (
	"github.com/clipperhouse/uax29/v2/graphemes"
	"github.com/mattn/go-runewidth"
)

// Options control width calculation.
//
// Currently only relevant for East Asian code points and their locale.
type Options struct {
	EastAsianWidth   bool // if true, treats certain East Asian code points as 2 wide (e.g., Chinese, Japanese, Korean). Use if the locale is one of CJK.
	TreatEmojiAsWide bool // Only considered if EastAsianWidth. If true, treats emoji as wide (2 columns).
}

// TextWidth returns the text width of str for monospace fonts in terminals. If opts is nil, locale is assumed to be non-East Asian.
func TextWidth[T string | []byte](str T, opts *Options) int {
	cond := conditionFromOptions(opts)
	return textWidth(str, cond)
}

// RuneWidth returns the width of r for monospace fonts in terminals. If opts is nil, locale is assumed to be non-East Asian.
func RuneWidth(r rune, opts *Options) int {
	cond := conditionFromOptions(opts)
	return cond.RuneWidth(r)
}

// PadRight returns the number of spaces needed after text of the given width so the line fills columns cells. It never returns a negative number: text that is
// already too wide gets no padding.
func PadRight(width, columns int) int {
	if width >= columns {
		return 0
	}
	return columns - width
}

// Iterator iterates over the grapheme clusters of a string or byte slice, reporting byte offsets.
type Iterator[T string | []byte] struct {
	iter *graphemes.Iterator[T]
}

// NewGraphemeIterator returns an iterator over the grapheme clusters of str.
func NewGraphemeIterator[T string | []byte](str T) *Iterator[T] {
	return &Iterator[T]{iter: newGraphemeIterator(str)}
}

// Next advances to the next cluster and reports whether there was one.
func (it *Iterator[T]) Next() bool {
	return it.iter.Next()
}

// Value returns the current cluster.
func (it *Iterator[T]) Value() T {
	return it.iter.Value()
}

// Start returns the byte offset of the current cluster.
func (it *Iterator[T]) Start() int {
	return it.iter.Start()
}

// End returns the byte offset just past the current cluster.
func (it *Iterator[T]) End() int {
	return it.iter.End()
}

func newGraphemeIterator[T string | []byte](text T) *graphemes.Iterator[T] {
	switch v := any(text).(type) {
	case string:
		iter := graphemes.FromString(v)
		return any(&iter).(*graphemes.Iterator[T])
	case []byte:
		iter := graphemes.FromBytes(v)
		return any(&iter).(*graphemes.Iterator[T])
	default:
		panic("unsupported type")
	}
}

func conditionFromOptions(opts *Options) *runewidth.Condition {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = false
	cond.StrictEmojiNeutral = true

	if opts == nil {
		return cond
	}

	cond.EastAsianWidth = opts.EastAsianWidth
	if opts.EastAsianWidth && opts.TreatEmojiAsWide {
		cond.StrictEmojiNeutral = false
	}

	return cond
}

func textWidth[T string | []byte](text T, cond *runewidth.Condition) int {
	switch v := any(text).(type) {
	case string:
		return cond.StringWidth(v)
	case []byte:
		return cond.StringWidth(string(v))
	default:
		panic("unsupported type")
	}
}
