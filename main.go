// The main package for the grantscout executable.
package main

import (
	"github.com/grantscout/grantscout/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
