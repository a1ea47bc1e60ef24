package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func names(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func TestScanPathsDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "proposal.docx"))
	touch(t, filepath.Join(dir, "deck.pptx"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "sub", "budget.xlsx"))

	files, err := New().ScanPaths([]string{dir})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"proposal.docx", "deck.pptx", "budget.xlsx"}, names(files))
}

func TestScanPathsSkipsTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "proposal.docx"))
	touch(t, filepath.Join(dir, "~$proposal.docx"))
	touch(t, filepath.Join(dir, ".hidden.docx"))
	touch(t, filepath.Join(dir, "draft.docx.tmp"))

	files, err := New().ScanPaths([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{"proposal.docx"}, names(files))
}

func TestScanPathsSkipsHiddenDirectories(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "report.pdf"))
	touch(t, filepath.Join(dir, ".git", "objects.docx"))

	files, err := New().ScanPaths([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{"report.pdf"}, names(files))
}

func TestScanPathsDirectFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proposal.docx")
	touch(t, path)

	files, err := New().ScanPaths([]string{path})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, filepath.IsAbs(files[0]))
}

func TestScanPathsDirectUnsupportedFileErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "readme.md")
	touch(t, path)

	_, err := New().ScanPaths([]string{path})
	assert.Error(t, err, "explicitly named files must be a supported format")
}

func TestScanPathsMissingPath(t *testing.T) {
	_, err := New().ScanPaths([]string{filepath.Join(t.TempDir(), "absent")})
	assert.Error(t, err)
}
