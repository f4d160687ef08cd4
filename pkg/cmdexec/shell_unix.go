//go:build unix

package cmdexec

// shellCommand returns the POSIX shell used to run command lines.
//
// sh is used rather than $SHELL so that update scripts behave the same under
// CI runners and developer shells.
func shellCommand() (shell string, args []string) {
	return "sh", []string{"-c"}
}
