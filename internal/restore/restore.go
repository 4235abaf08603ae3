// Package restore copies *.bak backups back over the files they were taken
// from.
package restore

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ManifestName is the list of restored files written at the root.
const ManifestName = "replaced_files.txt"

// AllowedExtensions are the original-file extensions eligible for restore.
var AllowedExtensions = map[string]bool{
	".tex": true,
	".md":  true,
	".py":  true,
	".txt": true,
	".sh":  true,
	".svg": true,
	".opf": true,
}

// Tree restores every eligible backup under root and writes the manifest.
// It returns the restored paths, sorted.
func Tree(ctx context.Context, root string, log *slog.Logger) ([]string, error) {
	if log == nil {
		log = slog.Default()
	}

	var backups []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn("walk", "path", path, "error", err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && strings.HasSuffix(d.Name(), ".bak") {
			backups = append(backups, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find backups: %w", err)
	}
	sort.Strings(backups)

	var restored []string
	for _, bak := range backups {
		target := strings.TrimSuffix(bak, ".bak")
		if !AllowedExtensions[strings.ToLower(filepath.Ext(target))] {
			continue
		}
		if err := CopyFile(bak, target); err != nil {
			log.Warn("restore backup", "backup", bak, "error", err)
			continue
		}
		restored = append(restored, target)
	}

	manifest := filepath.Join(root, ManifestName)
	if err := os.WriteFile(manifest, []byte(strings.Join(restored, "\n")), 0o644); err != nil {
		return restored, fmt.Errorf("write manifest: %w", err)
	}
	log.Info("backups restored", "count", len(restored), "manifest", manifest)
	return restored, nil
}

// CopyFile copies src over dst, keeping src's permission bits and
// modification time.
func CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
