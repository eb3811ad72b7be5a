// Command cursorcode runs the agent pipeline from the terminal or serves it
// over HTTP.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
