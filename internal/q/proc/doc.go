// Package proc supervises the child processes of a small pipeline.
//
// A Supervisor spawns children with their standard streams either wired to a fresh pipe (the parent keeps the other end) or inherited from a reader/writer the
// caller provides. Pipe ends kept by the parent are close-on-exec, and the child's ends are closed in the parent as soon as the child has started, so closing the
// parent's end is enough to signal EOF (stdin pipe) or to let the child die of SIGPIPE (stdout pipe).
//
// Each Child is reaped exactly once with Wait, which translates the wait status into an exit code: "exited with N" is N and "killed by signal S" is 128+S.
//
// TerminateAll is the emergency exit: it SIGKILLs every child not yet reaped and restores the terminal state captured with SaveTerminal. It is safe to call from
// another goroutine (ex: a signal handler) while the owning goroutine is blocked in a read, a write, or Wait.
package proc
