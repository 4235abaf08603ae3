package book

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// MissingFragmentError reports a required fragment file that does not exist.
type MissingFragmentError struct {
	Chapter string
	Role    Role
	Path    string
}

func (e *MissingFragmentError) Error() string {
	return fmt.Sprintf("chapter %s: missing required %s fragment (%s)", e.Chapter, e.Role, e.Path)
}

// Fragments resolves fragment files for one chapter directory below Base.
// Nothing is cached; each call reads the file system.
type Fragments struct {
	Base string
	Dir  string
	Log  *slog.Logger
}

// Path is the on-disk path of the role's file.
func (f Fragments) Path(role Role) string {
	return filepath.Join(f.Base, f.Dir, role.Filename())
}

// RelPath is the role's path relative to Base, with forward slashes.
func (f Fragments) RelPath(role Role) string {
	return filepath.ToSlash(filepath.Join(f.Dir, role.Filename()))
}

// Exists reports whether the role's file is present.
func (f Fragments) Exists(role Role) bool {
	info, err := os.Stat(f.Path(role))
	return err == nil && !info.IsDir()
}

// Read returns the trimmed file content. Read failures are logged and
// reported as empty content.
func (f Fragments) Read(role Role) string {
	return readTrimmed(f.Path(role), f.logger())
}

// FirstLine returns the first line that is neither blank nor a comment.
func (f Fragments) FirstLine(role Role) string {
	return FirstContentLine(f.Read(role))
}

// Check returns a MissingFragmentError for the role's file when it is absent.
func (f Fragments) Check(role Role) error {
	if f.Exists(role) {
		return nil
	}
	return &MissingFragmentError{Chapter: f.Dir, Role: role, Path: f.RelPath(role)}
}

func (f Fragments) logger() *slog.Logger {
	if f.Log == nil {
		return slog.Default()
	}
	return f.Log
}

// FirstContentLine returns the first non-blank, non-comment line, trimmed.
func FirstContentLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		s := strings.TrimSpace(line)
		if s == "" || strings.HasPrefix(s, "%") {
			continue
		}
		return s
	}
	return ""
}

func readTrimmed(path string, log *slog.Logger) string {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("read fragment", "path", path, "error", err)
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}

// ReadFile reads path like Fragments.Read: trimmed, empty on any failure.
func ReadFile(path string, log *slog.Logger) string {
	if log == nil {
		log = slog.Default()
	}
	return readTrimmed(path, log)
}
