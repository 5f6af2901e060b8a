// Package sessionlog reconstructs unsynced conversation context from agent
// session logs. It maps a project path to its session bucket, finds the last
// session that wrote a planning document, and merges every conversational
// event recorded since then into one ordered stream.
package sessionlog

import (
	"os"
	"path/filepath"
	"strings"
)

// keySeparator replaces path separators in project keys.
const keySeparator = "-"

// ProjectKey names the session bucket of one project directory.
type ProjectKey string

// ProjectKeyFor derives the bucket key for path. A leading "~" is expanded
// against home, the result is made absolute, and every separator becomes "-"
// with the whole key wrapped in "-": /Users/tmr -> --Users-tmr--.
func ProjectKeyFor(path, home string) ProjectKey {
	abs := absPath(expandHome(path, home))

	slashed := filepath.ToSlash(abs)
	if !strings.HasSuffix(slashed, "/") {
		slashed += "/"
	}
	encoded := strings.ReplaceAll(slashed, "/", keySeparator)
	return ProjectKey(keySeparator + encoded + keySeparator)
}

func expandHome(path, home string) string {
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~"+string(os.PathSeparator)) {
		return filepath.Join(home, path[2:])
	}
	return path
}

func absPath(path string) string {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// Store is a read-only view of a session storage root.
type Store struct {
	Root string
}

// NewStore returns a store rooted at root.
func NewStore(root string) *Store {
	return &Store{Root: root}
}

// BucketDir returns the directory holding the session logs for key.
func (s *Store) BucketDir(key ProjectKey) string {
	return filepath.Join(s.Root, string(key))
}

// DefaultRoot returns the session root used by the Pi agent under home.
func DefaultRoot(home string) string {
	return filepath.Join(home, ".pi", "agent", "sessions")
}
