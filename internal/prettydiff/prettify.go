package prettydiff

import (
	"errors"
	"fmt"
	"io"

	"github.com/codalotl/dif/internal/q/termformat"
)

// Options configure a Prettifier.
type Options struct {
	// Colorize restructures and colors the diff. When false, lines are only stripped of color escapes and passed through.
	Colorize bool

	// Width returns the terminal width in columns. It is called at most once, when the first banner is rendered. If nil, banners are not padded.
	Width func() (int, error)

	// Diag receives warnings about malformed headers. If nil, warnings are only logged.
	Diag io.Writer
}

// Prettifier rewrites a diff one line at a time. It is not safe for concurrent use.
type Prettifier struct {
	w          io.Writer
	opts       Options
	classifier Classifier
	headers    *headers
	pending    pending
	buf        []byte
	closed     bool
}

// New returns a Prettifier writing to w.
func New(w io.Writer, opts Options) *Prettifier {
	return &Prettifier{
		w:       w,
		opts:    opts,
		headers: newHeaders(opts.Diag, opts.Width),
	}
}

// WriteLine processes one line, which should include its trailing '\n' unless it is the last line of the diff. The Prettifier takes ownership of line: it is
// modified in place and may be retained until a later call.
func (p *Prettifier) WriteLine(line []byte) error {
	if p.closed {
		return errors.New("prettydiff: write after close")
	}
	line = termformat.StripColors(line)
	if !p.opts.Colorize {
		return p.write(line)
	}

	section, changed := p.classifier.Next(line)
	if section == SectionContext && len(line) > 0 {
		switch line[0] {
		case '-':
			if !p.pending.canRemove() {
				if err := p.write(p.pending.flush(p.buf[:0])); err != nil {
					return err
				}
			}
			p.pending.remove(line)
			return nil
		case '+':
			p.pending.add(line)
			return nil
		}
	}

	buf := p.pending.flush(p.buf[:0])
	var err error
	if changed && section == SectionContext {
		buf, err = p.headers.endFile(buf)
		if err != nil {
			return err
		}
	}
	if section == SectionHeader {
		var consumed bool
		buf, consumed, err = p.headers.handle(buf, line)
		if err != nil {
			return err
		}
		if consumed {
			return p.write(buf)
		}
	}
	buf = appendLine(buf, line, computeSpans(line, nil), section == SectionContext)
	return p.write(buf)
}

// Close writes everything still buffered: pending hunk lines and any file banner not yet rendered. It does not close the underlying writer.
func (p *Prettifier) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if !p.opts.Colorize {
		return nil
	}
	buf := p.pending.flush(p.buf[:0])
	buf, err := p.headers.endFile(buf)
	if werr := p.write(buf); werr != nil {
		return werr
	}
	return err
}

// write sends b to the underlying writer. Empty writes are skipped, so nothing reaches w until there is real output.
func (p *Prettifier) write(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if _, err := p.w.Write(b); err != nil {
		return fmt.Errorf("prettydiff: write: %w", err)
	}
	p.buf = b[:0]
	return nil
}

// Process reads a diff from r and writes its prettified form to w.
func Process(r io.Reader, w io.Writer, opts Options) error {
	lr := NewLineReader(r)
	p := New(w, opts)
	for {
		line, err := lr.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := p.WriteLine(line); err != nil {
			return err
		}
	}
	return p.Close()
}
