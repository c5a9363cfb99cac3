// Package sqlitepath locates the SQLite call ledger for commands that read
// it outside of a running server.
package sqlitepath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/toolbox/pkg/dotdir"
)

const fileName = "toolbox.db"

// ErrNotFound is returned when no ledger database can be located.
var ErrNotFound = errors.New("could not find toolbox SQLite ledger; pass --sqlite")

// Source says how a ledger path was chosen.
type Source string

const (
	SourceFlag      Source = "flag"
	SourceEnv       Source = "env"
	SourceConfigDir Source = "config-dir"
	SourceSearch    Source = "search"
)

// Resolution is a located ledger path.
type Resolution struct {
	Path   string
	Source Source
}

// Resolve picks the ledger path in this order: override, TOOLBOX_SQLITE,
// TOOLBOX_DB, toolbox.db in the resolved .toolbox directory, then the first
// existing search candidate. Only the last two require the file to exist.
func Resolve(override, configDir string) (Resolution, error) {
	if override != "" {
		return Resolution{Path: override, Source: SourceFlag}, nil
	}

	for _, key := range []string{"TOOLBOX_SQLITE", "TOOLBOX_DB"} {
		if p := strings.TrimSpace(os.Getenv(key)); p != "" {
			return Resolution{Path: p, Source: SourceEnv}, nil
		}
	}

	if dir, err := dotdir.NewManager().Target(configDir); err == nil && dir != "" {
		if p := DefaultPath(dir); exists(p) {
			return Resolution{Path: p, Source: SourceConfigDir}, nil
		}
	}

	for _, candidate := range candidates() {
		if exists(candidate) {
			return Resolution{Path: candidate, Source: SourceSearch}, nil
		}
	}

	return Resolution{}, ErrNotFound
}

// DefaultPath is the ledger file inside a .toolbox directory.
func DefaultPath(dir string) string {
	return filepath.Join(dir, fileName)
}

func candidates() []string {
	out := []string{fileName}
	if home, err := os.UserHomeDir(); err == nil {
		out = append(out, filepath.Join(home, ".toolbox", fileName))
	}
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		out = append(out, filepath.Join(xdg, "toolbox", fileName))
	}
	return out
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
