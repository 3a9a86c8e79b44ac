// The main package for the votd-archive executable.
package main

import (
	"github.com/dashwatch/votd-archive/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
