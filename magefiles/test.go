//go:build mage

package main

// Runs the unit tests with the race detector.
func Test() error {
	return goRun("test", "-race", "./...")
}
