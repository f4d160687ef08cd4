// Package warnings writes non-fatal diagnostics such as retry notices and
// blocked release lines. Output goes to stderr unless redirected for tests.
package warnings

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu         sync.RWMutex
	warnWriter io.Writer = os.Stderr
)

// Warnf writes a formatted warning to the configured writer.
//
// Parameters:
//   - format: Printf-style format string; callers supply the trailing newline
//   - args: Variadic arguments to format into the string
func Warnf(format string, args ...any) {
	_, _ = fmt.Fprintf(WarningWriter(), format, args...)
}

// WarningWriter returns the currently configured warning writer.
func WarningWriter() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return warnWriter
}

// SetWarningWriter swaps the warning writer and returns a restore function.
//
// Parameters:
//   - w: The new writer; nil selects os.Stderr
//
// Returns:
//   - func(): Restores the previous writer
func SetWarningWriter(w io.Writer) func() {
	mu.Lock()
	defer mu.Unlock()

	previous := warnWriter
	if w == nil {
		w = os.Stderr
	}
	warnWriter = w

	return func() {
		mu.Lock()
		defer mu.Unlock()
		warnWriter = previous
	}
}
