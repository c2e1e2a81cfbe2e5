// Command racetime derives the distance, velocity and acceleration profile of
// a CO2 dragster from a thrust table and reports its top speed and race time.
package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/banshee-data/racetime/internal/fsutil"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, fsutil.OSFileSystem{}); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("racetime: %v", err)
	}
}
