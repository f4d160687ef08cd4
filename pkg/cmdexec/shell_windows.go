//go:build windows

package cmdexec

func shellCommand() (shell string, args []string) {
	return "cmd", []string{"/C"}
}
