// Command createdb drops and recreates the catalog schema in the configured
// store. With -print it writes the DDL for the configured storage kind to
// stdout instead of connecting.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"beautywiz/internal/catalog"
	"beautywiz/internal/config"
	"beautywiz/internal/schema"
	"beautywiz/internal/storage"

	_ "beautywiz/internal/storage/all"
)

type openFunc func(ctx context.Context, cfg storage.Config) (storage.Store, error)

// run resets the schema and returns the (empty) table counts as proof that
// every table exists.
func run(ctx context.Context, sc storage.Config, open openFunc) (catalog.Counts, error) {
	st, err := open(ctx, sc)
	if err != nil {
		return catalog.Counts{}, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.ResetSchema(ctx); err != nil {
		return catalog.Counts{}, fmt.Errorf("reset schema: %w", err)
	}
	return st.Counts(ctx)
}

func printDDL(w io.Writer, kind string) error {
	script, err := schema.Render(schema.Catalog(), schema.Dialect(kind))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, strings.Join(script.All(), "\n\n")+"\n")
	return err
}

func main() {
	printOnly := flag.Bool("print", false, "print the DDL for -storage and exit without connecting")

	cfg, err := config.Load()
	if err != nil {
		fatalf("%v", err)
	}

	if *printOnly {
		if err := printDDL(os.Stdout, cfg.Storage.Kind); err != nil {
			fatalf("createdb: %v", err)
		}
		return
	}

	if cfg.Verbose {
		log.Printf("createdb: storage=%s", cfg.Storage.Kind)
	}
	if _, err := run(context.Background(), storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN}, storage.New); err != nil {
		log.Fatalf("createdb: %v", err)
	}
	log.Printf("createdb: schema created (storage=%s)", cfg.Storage.Kind)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
