package main

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

//go:embed init_data/config.example.yaml
var configExample []byte

// runInit writes an example config file to dir. It never overwrites
// an existing config.
func runInit(w io.Writer, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, "config.yaml")
	if err := writeIfMissing(configPath, configExample); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %s\n", configPath)
	fmt.Fprintln(w, "Edit it to point at your router. wampctl subcommands do not read it; they take the router URL and realm as arguments.")
	return nil
}

// writeIfMissing writes content to path only if the file does not
// already exist. This ensures init never overwrites user customizations.
func writeIfMissing(path string, content []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, content, 0o644)
}
