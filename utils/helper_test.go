package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanStringForFilename(t *testing.T) {
	assert.Equal(t, "import_errors", CleanStringForFilename("  import -- errors! "))
	assert.Equal(t, "file", CleanStringForFilename("***"))
	assert.Len(t, CleanStringForFilename(strings.Repeat("a", 150)), 100)
}

func TestGenerateQRCodePNG(t *testing.T) {
	data, err := GenerateQRCodePNG("http://localhost/public/files/students.xlsx", 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data[:4])

	_, err = GenerateQRCodePNG("", 128)
	assert.Error(t, err)
}

func TestCleanupAllExpired(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	oldFile := filepath.Join(dir, "old.xlsx")
	freshFile := filepath.Join(dir, "fresh.xlsx")
	require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0644))
	require.NoError(t, os.WriteFile(freshFile, []byte("fresh"), 0644))
	require.NoError(t, os.Chtimes(oldFile, now.Add(-48*time.Hour), now.Add(-48*time.Hour)))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	deleted, err := CleanupAllExpired(dir, ExportFileTTL, now)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	assert.NoFileExists(t, oldFile)
	assert.FileExists(t, freshFile)
}

func TestCleanupAllExpiredMissingDir(t *testing.T) {
	deleted, err := CleanupAllExpired(filepath.Join(t.TempDir(), "missing"), time.Hour, time.Now())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestLocalFileStorage(t *testing.T) {
	storage := NewLocalFileStorage(filepath.Join(t.TempDir(), "files"))

	path, err := storage.UploadFileFromReader(strings.NewReader("payload"), "report.xlsx")
	require.NoError(t, err)

	exists, err := storage.FileExists(path)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, storage.DeleteFile("report.xlsx"))
	exists, err = storage.FileExists("report.xlsx")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGenerateHashIsOrderIndependent(t *testing.T) {
	searchA, storageA := GenerateHash("student", map[string]string{"name": "ada", "email": "a@b.c"}, 1, 10)
	searchB, _ := GenerateHash("student", map[string]string{"email": "a@b.c", "name": "ada"}, 1, 10)

	assert.Equal(t, searchA, searchB)
	assert.True(t, strings.HasPrefix(searchA, "student:"))
	assert.True(t, strings.HasPrefix(storageA, searchA+":"))
}

func TestNormalizeDate(t *testing.T) {
	DateLocation = time.UTC
	t.Cleanup(func() { DateLocation = nil })

	in := time.Date(2020, time.January, 2, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC), NormalizeDate(in))
}
