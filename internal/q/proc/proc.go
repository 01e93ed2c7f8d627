package proc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"golang.org/x/term"
)

// ExecStatus captures how process execution concluded.
type ExecStatus string

const (
	ExecStatusRunning       ExecStatus = "running"
	ExecStatusCompleted     ExecStatus = "completed"
	ExecStatusFailedToStart ExecStatus = "failed_to_start"
	ExecStatusTerminated    ExecStatus = "terminated"
)

// Endpoint describes how one standard stream of a child is connected.
type Endpoint struct {
	pipe bool
	r    io.Reader
	w    io.Writer
}

// Pipe connects the stream to a new pipe. The parent's end is exposed as Child.WriteEnd (stdin) or Child.ReadEnd (stdout).
func Pipe() Endpoint {
	return Endpoint{pipe: true}
}

// Reader connects a child's stdin to r. A nil r means the null device.
func Reader(r io.Reader) Endpoint {
	return Endpoint{r: r}
}

// Writer connects a child's stdout to w. A nil w means the null device.
func Writer(w io.Writer) Endpoint {
	return Endpoint{w: w}
}

// Child is a process started by a Supervisor.
type Child struct {
	Name string
	PID  int

	// WriteEnd is the parent's end of the child's stdin pipe (nil unless stdin was Pipe()).
	WriteEnd *os.File

	// ReadEnd is the parent's end of the child's stdout pipe (nil unless stdout was Pipe()).
	ReadEnd *os.File

	cmd         *exec.Cmd
	reaped      bool
	exitCode    int
	status      ExecStatus
	signal      string
	writeClosed bool
	readClosed  bool
}

// CloseWrite closes the parent's end of the child's stdin pipe. It is a no-op if there is no such pipe or it was already closed.
func (c *Child) CloseWrite() error {
	if c.WriteEnd == nil || c.writeClosed {
		return nil
	}
	c.writeClosed = true
	return c.WriteEnd.Close()
}

// CloseRead closes the parent's end of the child's stdout pipe. It is a no-op if there is no such pipe or it was already closed.
func (c *Child) CloseRead() error {
	if c.ReadEnd == nil || c.readClosed {
		return nil
	}
	c.readClosed = true
	return c.ReadEnd.Close()
}

// Status reports how the child concluded (ExecStatusRunning until it is reaped).
func (c *Child) Status() ExecStatus {
	return c.status
}

// Signal is the name of the signal that killed the child, or "" if it exited normally or is still running.
func (c *Child) Signal() string {
	return c.signal
}

// Supervisor owns a set of children.
type Supervisor struct {
	stderr io.Writer

	mu        sync.Mutex
	children  []*Child // started and not yet reaped
	termFD    int
	termState *term.State
}

// NewSupervisor returns a Supervisor whose children write their stderr to stderr (nil means the null device).
func NewSupervisor(stderr io.Writer) *Supervisor {
	return &Supervisor{stderr: stderr, termFD: -1}
}

// Spawn starts name with args. See Endpoint for how stdin and stdout are connected; stderr goes to the Supervisor's stderr. On failure no descriptors are leaked
// and nothing is registered.
func (s *Supervisor) Spawn(name string, args []string, stdin, stdout Endpoint) (*Child, error) {
	cmd := exec.Command(name, args...)
	cmd.Stderr = s.stderr
	child := &Child{Name: name, cmd: cmd, status: ExecStatusRunning}

	// childEnds are handed to the child; parentEnds are kept. Both are closed if anything fails.
	var childEnds, parentEnds []*os.File
	closeAll := func(files []*os.File) {
		for _, f := range files {
			_ = f.Close()
		}
	}

	if stdin.pipe {
		r, w, err := os.Pipe()
		if err != nil {
			return nil, fmt.Errorf("proc: create stdin pipe for %s: %w", name, err)
		}
		cmd.Stdin = r
		child.WriteEnd = w
		childEnds = append(childEnds, r)
		parentEnds = append(parentEnds, w)
	} else if stdin.r != nil {
		cmd.Stdin = stdin.r
	}

	if stdout.pipe {
		r, w, err := os.Pipe()
		if err != nil {
			closeAll(childEnds)
			closeAll(parentEnds)
			return nil, fmt.Errorf("proc: create stdout pipe for %s: %w", name, err)
		}
		cmd.Stdout = w
		child.ReadEnd = r
		childEnds = append(childEnds, w)
		parentEnds = append(parentEnds, r)
	} else if stdout.w != nil {
		cmd.Stdout = stdout.w
	}

	if err := cmd.Start(); err != nil {
		closeAll(childEnds)
		closeAll(parentEnds)
		child.status = ExecStatusFailedToStart
		return nil, fmt.Errorf("proc: start %s: %w", name, err)
	}

	// The child has its own copies now. Keeping ours open would stop EOF/SIGPIPE from ever reaching either side.
	closeAll(childEnds)

	child.PID = cmd.Process.Pid

	s.mu.Lock()
	s.children = append(s.children, child)
	s.mu.Unlock()

	return child, nil
}

// Wait blocks until c exits and returns its exit code: the exit status if it exited, 128+signal if it was killed. c is reaped exactly once; later calls return
// the same code. The returned error is non-nil only if waiting itself failed.
func (s *Supervisor) Wait(c *Child) (int, error) {
	if c.reaped {
		return c.exitCode, nil
	}

	waitErr := c.cmd.Wait()
	c.reaped = true
	s.unregister(c)

	state := c.cmd.ProcessState
	if state == nil {
		c.exitCode = -1
		c.status = ExecStatusFailedToStart
		return c.exitCode, fmt.Errorf("proc: wait %s: %w", c.Name, waitErr)
	}

	c.exitCode, c.status, c.signal = translateState(state)

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		// Ex: copying to a non-file stdout failed.
		return c.exitCode, fmt.Errorf("proc: wait %s: %w", c.Name, waitErr)
	}
	return c.exitCode, nil
}

// SaveTerminal records the state of the terminal behind fd so TerminateAll can restore it. It returns an error if fd is not a terminal.
func (s *Supervisor) SaveTerminal(fd int) error {
	state, err := term.GetState(fd)
	if err != nil {
		return fmt.Errorf("proc: save terminal state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.termFD = fd
	s.termState = state
	return nil
}

// TerminateAll kills every child that has not been reaped and restores the saved terminal state, if any. Children are left registered so the owner can still
// Wait for them. It may be called more than once and from any goroutine.
func (s *Supervisor) TerminateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.children {
		_ = c.cmd.Process.Kill()
	}

	// The pager may have left the terminal in raw mode.
	if s.termState != nil {
		_ = term.Restore(s.termFD, s.termState)
	}
}

// Children returns the children that have been started but not yet reaped, in start order.
func (s *Supervisor) Children() []*Child {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Child(nil), s.children...)
}

func (s *Supervisor) unregister(c *Child) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, other := range s.children {
		if other == c {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

func translateState(state *os.ProcessState) (int, ExecStatus, string) {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal()), ExecStatusTerminated, ws.Signal().String()
	}
	return state.ExitCode(), ExecStatusCompleted, ""
}
