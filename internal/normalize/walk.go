package normalize

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Result summarizes a tree walk.
type Result struct {
	Scanned int
	Updated []string // paths relative to the root, sorted
	Failed  int
}

// Tree normalizes every supported file under root, skipping .git. With
// dryRun set, changed files are reported but not written. Per-file failures
// are logged and counted; they do not stop the walk.
func Tree(ctx context.Context, root string, dryRun bool, log *slog.Logger) (Result, error) {
	if log == nil {
		log = slog.Default()
	}
	var res Result

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
		if !d.Type().IsRegular() || !IsSupportedExtension(path) {
			return nil
		}

		res.Scanned++
		changed, err := File(path, dryRun)
		if err != nil {
			res.Failed++
			log.Warn("normalize file", "path", path, "error", err)
			return nil
		}
		if changed {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			res.Updated = append(res.Updated, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("normalize %s: %w", root, err)
	}

	sort.Strings(res.Updated)
	log.Info("quotes normalized", "scanned", res.Scanned, "updated", len(res.Updated), "failed", res.Failed, "dry_run", dryRun)
	return res, nil
}

// File normalizes one file in place and reports whether its content changed.
func File(path string, dryRun bool) (bool, error) {
	n, err := ForFile(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	out, err := n.Normalize(src)
	if err != nil {
		return false, err
	}
	if bytes.Equal(src, out) {
		return false, nil
	}
	if dryRun {
		return true, nil
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("write: %w", err)
	}
	return true, nil
}
