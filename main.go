// Package main is the entry point for the releasewatch CLI application.
//
// releasewatch compares the runtime versions a container build tree targets
// against the upstream release indexes and runs the update action when new
// releases are ready.
package main

import "github.com/ajxudir/releasewatch/cmd"

func main() {
	cmd.Execute()
}
