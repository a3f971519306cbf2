package engine

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/stylescan/stylescan/internal/scanner"
)

// binarySniffLen is how much of a file is inspected for NUL bytes before
// deciding it is binary.
const binarySniffLen = 8192

// expandPaths turns the argument list into the set of files to scan.
// Explicitly named files are always included; directories are walked with
// the ignore rules applied. Returns the files plus a count of skipped
// entries.
func (e *Engine) expandPaths(paths []string) ([]string, int, error) {
	var files []string
	skipped := 0
	seen := make(map[string]bool)

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %s: %v", scanner.ErrInvalidInput, path, err)
		}

		if !info.IsDir() {
			add(path)
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}

			name := d.Name()
			if d.IsDir() {
				// Skip hidden directories, but not "." or the walk root
				if strings.HasPrefix(name, ".") && name != "." && p != path {
					return fs.SkipDir
				}
				return nil
			}

			if e.shouldIgnore(p) {
				skipped++
				e.log.Debug("Ignoring file: %s", p)
				return nil
			}

			if e.cfg.Scan.MaxFileSizeKB > 0 {
				if fi, statErr := d.Info(); statErr == nil && fi.Size() > int64(e.cfg.Scan.MaxFileSizeKB)*1024 {
					skipped++
					e.log.Debug("Skipping oversized file: %s", p)
					return nil
				}
			}

			if isBinary(p) {
				skipped++
				return nil
			}

			add(p)
			return nil
		})
		if err != nil {
			return nil, 0, fmt.Errorf("walking %s: %w", path, err)
		}
	}

	return files, skipped, nil
}

// shouldIgnore checks a path against the configured ignore globs. Each
// pattern is matched against the base name and against every path suffix,
// so "node_modules/*" catches nested trees too.
func (e *Engine) shouldIgnore(path string) bool {
	for _, pattern := range e.cfg.Scan.Ignore {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, path string) bool {
	if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
		return true
	}

	normalized := filepath.ToSlash(path)
	if matched, _ := filepath.Match(pattern, normalized); matched {
		return true
	}

	// Directory patterns like "vendor/*" must catch the whole subtree,
	// anywhere in the path; filepath.Match alone stops at separators.
	if dir, ok := strings.CutSuffix(pattern, "/*"); ok {
		for _, part := range strings.Split(normalized, "/") {
			if matched, _ := filepath.Match(dir, part); matched {
				return true
			}
		}
	}

	return false
}

// isBinary reports whether the file looks binary: a NUL byte within the
// first 8 KiB. Unreadable files are treated as binary and skipped; the
// scan proceeds without them.
func isBinary(path string) bool {
	f, err := os.Open(path) //nolint:gosec // Paths come from directory walks
	if err != nil {
		return true
	}
	defer f.Close()

	buf := make([]byte, binarySniffLen)
	n, err := f.Read(buf)
	if n == 0 && err != nil {
		return false // Empty file is text
	}

	return bytes.IndexByte(buf[:n], 0) != -1
}
