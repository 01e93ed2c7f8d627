package simplelogger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
)

// EnvLogFile names the environment variable holding the debug log path.
const EnvLogFile = "DIF_LOG_FILE"

var mu sync.Mutex

// Log is a minimal printf-style logger. It appends formatted output to the file
// specified by the DIF_LOG_FILE environment variable.
//
// If DIF_LOG_FILE is unset/empty or the path can't be opened as a file,
// Log is a no-op.
func Log(format string, args ...any) {
	path := os.Getenv(EnvLogFile)
	if path == "" {
		return
	}

	// Serialize open/write/close to reduce interleaving within a single process.
	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = f.Write(format1(format, args...))
}

// Warn writes "warning: <msg>" to w (typically stderr) and mirrors it into the
// log file. A nil w only logs.
func Warn(w io.Writer, format string, args ...any) {
	msg := format1("warning: "+format, args...)
	if w != nil {
		_, _ = w.Write(msg)
	}
	Log("%s", msg)
}

// format1 formats one newline-terminated record.
func format1(format string, args ...any) []byte {
	var b bytes.Buffer
	_, _ = fmt.Fprintf(&b, format, args...)
	if b.Len() == 0 || b.Bytes()[b.Len()-1] != '\n' {
		_ = b.WriteByte('\n')
	}
	return b.Bytes()
}
