// The main package for the newsvault executable.
package main

import (
	"github.com/jfeld/newsvault/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
