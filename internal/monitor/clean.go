package monitor

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// PassLogName is the combined compiler output file for a pass.
func PassLogName(pass int) string {
	return fmt.Sprintf("compile_pass%d.log", pass)
}

// Clean removes stale build artifacts below dir: <base>.<ext> for each
// extension, the pass logs, then every file in the tree carrying one of the
// extensions. Version-control directories are never entered. Removal
// failures are logged and skipped. It returns the number of files removed.
func Clean(dir, base string, exts []string, log *slog.Logger) int {
	removed := 0
	remove := func(path string) {
		err := os.Remove(path)
		switch {
		case err == nil:
			removed++
		case errors.Is(err, fs.ErrNotExist):
		default:
			log.Warn("remove artifact", "path", path, "error", err)
		}
	}

	for _, ext := range exts {
		remove(filepath.Join(dir, base+"."+ext))
	}
	remove(filepath.Join(dir, PassLogName(1)))
	remove(filepath.Join(dir, PassLogName(2)))

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn("walk build tree", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if hasArtifactExt(d.Name(), exts) {
			remove(path)
		}
		return nil
	})
	if err != nil {
		log.Warn("walk build tree", "dir", dir, "error", err)
	}
	return removed
}

func hasArtifactExt(name string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(name, "."+ext) {
			return true
		}
	}
	return false
}
