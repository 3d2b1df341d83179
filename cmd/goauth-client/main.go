// Command goauth-client signs in to the portal from a terminal and keeps the
// session in a local, optionally sealed, state directory shared by every
// invocation.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
