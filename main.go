// Command hinlibs is a thin terminal front end for the catalogue and
// circulation engine. All business rules live in the library package; this
// binary only parses arguments, resolves usernames and renders results.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"hinlibs/config"
	"hinlibs/library"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store, err := library.Open(cfg.DBPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := newRootCmd(store).Execute(); err != nil {
		os.Exit(1)
	}
}
