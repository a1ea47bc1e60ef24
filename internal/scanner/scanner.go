// Package scanner discovers supported documents under file and
// directory arguments.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/qualion/clean/pkg/models"
)

// Scanner finds documents in supported formats.
type Scanner struct{}

// New creates a document scanner.
func New() *Scanner {
	return &Scanner{}
}

// ScanPaths expands the given paths into a list of supported document
// files. Files named directly must be in a supported format; inside
// directories unsupported files are skipped silently.
func (s *Scanner) ScanPaths(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", path, err)
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			if _, err := models.FormatForPath(absPath); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			files = append(files, absPath)
			continue
		}
		found, err := s.scanDir(absPath)
		if err != nil {
			return nil, fmt.Errorf("scan directory %s: %w", path, err)
		}
		files = append(files, found...)
	}
	return files, nil
}

// scanDir recursively collects supported documents, skipping hidden
// directories, Office lock files and temp files.
func (s *Scanner) scanDir(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if skipFile(name) {
			return nil
		}
		if _, err := models.FormatForPath(path); err != nil {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// skipFile reports names that are never documents: Office owner/lock
// files (~$report.docx) and editor temp files.
func skipFile(name string) bool {
	return strings.HasPrefix(name, "~$") ||
		strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, ".tmp")
}
