// Command erd writes an erd-editor (vuerd) JSON document describing the
// catalog schema.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"beautywiz/internal/erd"
	"beautywiz/internal/schema"
)

func run(w io.Writer, dialect string) error {
	doc, err := erd.Build(schema.Catalog(), schema.Dialect(dialect))
	if err != nil {
		return err
	}
	return erd.Write(w, doc)
}

func main() {
	out := flag.String("out", "database.vuerd.json", `output file ("-" for stdout)`)
	dialect := flag.String("dialect", "sqlite", "database the diagram targets: sqlite, postgres, mssql or mysql")
	flag.Parse()

	if *out == "-" {
		if err := run(os.Stdout, *dialect); err != nil {
			log.Fatalf("erd: %v", err)
		}
		return
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("erd: %v", err)
	}
	if err := run(f, *dialect); err != nil {
		_ = f.Close()
		log.Fatalf("erd: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("erd: close %s: %v", *out, err)
	}
	fmt.Printf("%s written\n", *out)
}
