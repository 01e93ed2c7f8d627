package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/codalotl/dif/internal/prettydiff"
	"github.com/codalotl/dif/internal/q/proc"
	"github.com/codalotl/dif/internal/simplelogger"
)

// In/Out/Err override standard I/O. If nil, defaults are used. Overriding is useful for testing.
type RunOptions struct {
	In  io.Reader
	Out io.Writer // colorized and paged only if this is an *os.File for a terminal
	Err io.Writer

	// Config, if set, is used instead of loading the config file.
	Config *Config

	// Exit ends the process after a terminating signal (SIGINT, SIGTERM, SIGHUP). Defaults to os.Exit.
	Exit func(code int)
}

// ExitError reports that a child decided the exit code: the pager if one ran, else the diff producer. A diff exiting 1 because the inputs differ is an ExitError,
// not a failure of dif.
type ExitError struct {
	Name string // program that chose the code
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Name, e.Code)
}

// Run runs dif with args (typically os.Args). args[1:] are passed to the diff producer after its configured flags; with no such arguments, opts.In (or stdin)
// is read as a diff.
//
// It returns the exit code and an error, if any:
//   - 0 -> err == nil
//   - the pager's code if a pager ran, else the producer's code; err is an *ExitError when that code is not 0.
//   - 1 -> a fatal error (bad config, a program failed to start, an I/O error). The error has already been written to opts.Err || Stderr.
//
// Callers may use os.Exit with the exit code.
func Run(args []string, opts *RunOptions) (code int, err error) {
	var in io.Reader = os.Stdin
	var out io.Writer = os.Stdout
	var errW io.Writer = os.Stderr
	exit := os.Exit
	var cfg *Config
	if opts != nil {
		if opts.In != nil {
			in = opts.In
		}
		if opts.Out != nil {
			out = opts.Out
		}
		if opts.Err != nil {
			errW = opts.Err
		}
		if opts.Exit != nil {
			exit = opts.Exit
		}
		cfg = opts.Config
	}

	if cfg == nil {
		loaded, err := LoadConfig()
		if err != nil {
			return fail(errW, err)
		}
		cfg = &loaded
	} else if err := validateConfig(*cfg); err != nil {
		return fail(errW, err)
	}

	s := &session{in: in, out: out, errW: errW, cfg: *cfg, sup: proc.NewSupervisor(errW)}

	stop := watchSignals(s.sup, exit)
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			s.sup.TerminateAll()
			_, _ = s.teardown()
			code, err = fail(errW, fmt.Errorf("panic: %v", r))
		}
	}()

	var argv []string
	if len(args) > 0 {
		argv = args[1:]
	}
	runErr := s.run(argv)
	code, waitErr := s.teardown()
	if runErr == nil {
		runErr = waitErr
	}
	if runErr != nil {
		return fail(errW, runErr)
	}
	if code != 0 {
		name := s.cfg.Diff.Command
		if s.pager.started() {
			name = s.cfg.Pager.Command
		}
		return code, &ExitError{Name: name, Code: code}
	}
	return 0, nil
}

// fail reports err and returns exit code 1.
func fail(errW io.Writer, err error) (int, error) {
	simplelogger.Log("fatal: %v", err)
	fmt.Fprintf(errW, "dif: %v\n", err)
	return 1, err
}

// session is one run: the producer, the pager and the pipeline between them.
type session struct {
	in   io.Reader
	out  io.Writer
	errW io.Writer
	cfg  Config
	sup  *proc.Supervisor

	producer *proc.Child
	pager    *pagerWriter
	sink     output
	torn     bool
}

// run spawns the producer (if there are arguments) and streams its output through prettydiff into the sink.
func (s *session) run(argv []string) error {
	src := s.in
	if len(argv) > 0 {
		args := append(append([]string(nil), s.cfg.Diff.Flags...), argv...)
		child, err := s.sup.Spawn(s.cfg.Diff.Command, args, proc.Reader(s.in), proc.Pipe())
		if err != nil {
			return err
		}
		simplelogger.Log("started producer %s %q (pid %d)", s.cfg.Diff.Command, args, child.PID)
		s.producer = child
		src = child.ReadEnd
	}

	popts := prettydiff.Options{Diag: s.errW}
	if fd, ok := terminalFD(s.out); ok {
		if err := s.sup.SaveTerminal(fd); err != nil {
			simplelogger.Log("%v", err)
		}
		s.pager = newPagerWriter(s.sup, s.cfg.Pager, s.out)
		s.sink = s.pager
		popts.Colorize = true
		popts.Width = terminalWidth(fd)
	} else {
		s.sink = bufio.NewWriter(s.out)
	}

	err := prettydiff.Process(src, s.sink, popts)
	if err == nil {
		err = s.sink.Flush()
	}
	if isBrokenPipe(err) {
		simplelogger.Log("pager closed its input: %v", err)
		return nil
	}
	return err
}

// teardown flushes output and reaps the children: the producer first (closing our end of its stdout so it cannot block), then the pager (closing its stdin so it
// sees EOF). It returns the exit code the children decided and runs only once.
func (s *session) teardown() (int, error) {
	if s.torn {
		return 0, nil
	}
	s.torn = true

	var errs []error
	if s.sink != nil {
		if err := s.sink.Flush(); err != nil && !isBrokenPipe(err) {
			errs = append(errs, err)
		}
	}

	code := 0
	if s.producer != nil {
		_ = s.producer.CloseRead()
		c, err := s.sup.Wait(s.producer)
		simplelogger.Log("producer exited with %d", c)
		if err != nil {
			errs = append(errs, err)
		}
		code = c
	}

	if s.pager.started() {
		_ = s.pager.child.CloseWrite()
		c, err := s.sup.Wait(s.pager.child)
		simplelogger.Log("pager exited with %d", c)
		if err != nil {
			errs = append(errs, err)
		}
		code = c
	}

	return code, errors.Join(errs...)
}

// watchSignals terminates every child and exits with 128+signal when dif is interrupted, hung up or terminated. The returned func stops watching.
func watchSignals(sup *proc.Supervisor, exit func(int)) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGINT, unix.SIGTERM, unix.SIGHUP)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-ch:
			simplelogger.Log("received %v, terminating children", sig)
			sup.TerminateAll()
			code := 1
			if n, ok := sig.(syscall.Signal); ok {
				code = 128 + int(n)
			}
			exit(code)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}
