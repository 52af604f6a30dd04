// Package wampinstance manages the process-stable instance id attached
// to session log lines. The id has no protocol meaning and is never
// sent on the wire; it exists to correlate log output across restarts
// in an operator's log aggregator.
package wampinstance

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const filename = "instance_id"

// LoadOrCreateInstanceID reads the instance id from a file in dir, or
// generates a new UUIDv7 and persists it there if the file does not
// exist. A file that exists but holds something other than a UUID
// (hand-edited, truncated by a crash mid-write) is treated as absent
// rather than trusted verbatim, since a garbled id is worse for log
// correlation than a freshly generated one.
func LoadOrCreateInstanceID(dir string) (string, error) {
	path := filepath.Join(dir, filename)

	if data, err := os.ReadFile(path); err == nil {
		if id, err := uuid.Parse(strings.TrimSpace(string(data))); err == nil {
			return id.String(), nil
		}
	}

	return regenerate(dir, path)
}

func regenerate(dir, path string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate instance id: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(id.String()+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("persist instance id to %s: %w", path, err)
	}

	return id.String(), nil
}
