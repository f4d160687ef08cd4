// Package testutil provides shared helpers and fakes for releasewatch tests.
package testutil

import (
	"bytes"
	"io"
	"os"
	"testing"
)

// CaptureStdout captures stdout during the execution of fn.
//
// Parameters:
//   - t: Testing instance for helper marking
//   - fn: Function to execute while capturing stdout
//
// Returns:
//   - string: All content written to stdout during fn execution
func CaptureStdout(t *testing.T, fn func()) string {
	t.Helper()
	out, _ := CaptureOutput(t, fn)
	return out
}

// CaptureStderr captures stderr during the execution of fn.
func CaptureStderr(t *testing.T, fn func()) string {
	t.Helper()
	_, errOut := CaptureOutput(t, fn)
	return errOut
}

// CaptureOutput captures both stdout and stderr during the execution of fn.
// Both streams are restored afterwards, even if fn panics.
//
// Returns:
//   - stdout: Content written to stdout
//   - stderr: Content written to stderr
func CaptureOutput(t *testing.T, fn func()) (stdout, stderr string) {
	t.Helper()

	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}

	oldStdout, oldStderr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = wOut, wErr

	outCh := drain(rOut)
	errCh := drain(rErr)

	func() {
		defer func() {
			os.Stdout, os.Stderr = oldStdout, oldStderr
			_ = wOut.Close()
			_ = wErr.Close()
		}()
		fn()
	}()

	return <-outCh, <-errCh
}

// drain reads r to EOF in the background so large outputs do not block fn.
func drain(r *os.File) <-chan string {
	ch := make(chan string, 1)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		_ = r.Close()
		ch <- buf.String()
	}()
	return ch
}
