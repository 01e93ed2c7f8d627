package cli

import (
	"bufio"
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/codalotl/dif/internal/q/proc"
	"github.com/codalotl/dif/internal/simplelogger"
)

// output is where prettified bytes go.
type output interface {
	io.Writer
	Flush() error
}

// pagerWriter starts the pager on the first non-empty write and buffers everything into its stdin. An empty diff therefore never starts the pager, which would
// otherwise clear or redraw the screen for nothing.
type pagerWriter struct {
	sup    *proc.Supervisor
	cfg    PagerConfig
	stdout io.Writer

	child *proc.Child
	bw    *bufio.Writer
}

func newPagerWriter(sup *proc.Supervisor, cfg PagerConfig, stdout io.Writer) *pagerWriter {
	return &pagerWriter{sup: sup, cfg: cfg, stdout: stdout}
}

func (w *pagerWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if w.child == nil {
		child, err := w.sup.Spawn(w.cfg.Command, w.cfg.Args, proc.Pipe(), proc.Writer(w.stdout))
		if err != nil {
			return 0, err
		}
		simplelogger.Log("started pager %s %q (pid %d)", w.cfg.Command, w.cfg.Args, child.PID)
		w.child = child
		w.bw = bufio.NewWriter(child.WriteEnd)
	}
	return w.bw.Write(p)
}

// Flush sends buffered bytes to the pager, if it was started.
func (w *pagerWriter) Flush() error {
	if w.bw == nil {
		return nil
	}
	return w.bw.Flush()
}

// started reports whether the pager was spawned.
func (w *pagerWriter) started() bool {
	return w != nil && w.child != nil
}

// terminalFD returns the descriptor behind w if w is a terminal.
func terminalFD(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return -1, false
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return -1, false
	}
	return fd, true
}

// terminalWidth returns a width query for the terminal behind fd.
func terminalWidth(fd int) func() (int, error) {
	return func() (int, error) {
		width, _, err := term.GetSize(fd)
		return width, err
	}
}

// isBrokenPipe reports whether err means the reader went away. For the pager this is the user quitting before reading everything.
func isBrokenPipe(err error) bool {
	return errors.Is(err, unix.EPIPE)
}
