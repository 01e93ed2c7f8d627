package prettydiff

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// LineReader reads newline-terminated lines from a diff producer.
type LineReader struct {
	br *bufio.Reader
}

// NewLineReader returns a LineReader reading from r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{br: bufio.NewReaderSize(r, 64*1024)}
}

// ReadLine returns the next line including its trailing '\n'. The returned slice is owned by the caller. The last line of a stream may lack the '\n'; after it,
// ReadLine returns io.EOF. An interrupted read (EINTR) is retried without losing bytes already read.
func (lr *LineReader) ReadLine() ([]byte, error) {
	var line []byte
	for {
		chunk, err := lr.br.ReadBytes('\n')
		if line == nil {
			line = chunk
		} else {
			line = append(line, chunk...)
		}

		switch {
		case err == nil:
			return line, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, io.EOF):
			if len(line) > 0 {
				return line, nil
			}
			return nil, io.EOF
		default:
			return nil, fmt.Errorf("prettydiff: read line: %w", err)
		}
	}
}
