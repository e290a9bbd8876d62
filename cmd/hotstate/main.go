// Command hotstate inspects and replays hotstate snapshots stored in their
// tagged-tuple JSON form.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
