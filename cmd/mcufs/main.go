// mcufs inspects and edits .mcufs store files and manages their backups.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
