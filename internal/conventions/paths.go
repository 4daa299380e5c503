package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default galgo data directory name (relative to home).
	DefaultDataDir = ".galgo"
	// DBFile is the filename of the SQLite job journal.
	DBFile = "galgo.db"
)

// DBPath returns the job journal database path inside the home directory.
func DBPath(homeDir string) string {
	return filepath.Join(homeDir, DefaultDataDir, DBFile)
}
