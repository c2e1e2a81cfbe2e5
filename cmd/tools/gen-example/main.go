// Command gen-example writes the example thrust table served at
// /api/example.csv, for use as a template or a CLI smoke test.
package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/banshee-data/racetime/internal/dataset"
	"github.com/banshee-data/racetime/internal/fsutil"
)

func main() {
	out := flag.String("out", dataset.ExampleFileName, "output path (\"-\" writes stdout)")
	flag.Parse()

	if err := generate(*out, os.Stdout, fsutil.OSFileSystem{}); err != nil {
		log.Fatalf("gen-example: %v", err)
	}
	if *out != "-" {
		log.Printf("wrote %s", *out)
	}
}

func generate(out string, stdout io.Writer, fsys fsutil.FileSystem) error {
	data := dataset.ExampleCSV()
	if out == "-" {
		_, err := stdout.Write(data)
		return err
	}
	return fsys.WriteFile(out, data, 0o644)
}
