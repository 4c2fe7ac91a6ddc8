// Command rollout reads standard input and appends it to a file named
// current in a directory, rotating that file to a numbered log file at
// a newline once it reaches a configured size, and removing the oldest
// numbered log files beyond a configured count.
//
// Rotated log files are named {prefix}{n}.log, where n starts at 1 and
// only ever increases.
//
// Any I/O error rollout cannot recover from causes it to exit
// immediately with status 1.
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stderr))
}
