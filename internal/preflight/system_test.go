package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckWritePermissions_CreatesDataDir(t *testing.T) {
	// Given: a data directory that does not exist yet
	dir := filepath.Join(t.TempDir(), "nested", ".ragindex")

	// When: checking
	r := New().CheckWritePermissions(dir)

	// Then: it passes, the directory exists and no temp file is left
	assert.Equal(t, StatusPass, r.Status)
	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCheckDiskSpace_MissingPathUsesParent(t *testing.T) {
	r := New().CheckDiskSpace(filepath.Join(t.TempDir(), "not", "yet"))

	assert.Contains(t, r.Message, "free")
}

func TestExistingParent(t *testing.T) {
	root := t.TempDir()

	assert.Equal(t, root, existingParent(filepath.Join(root, "a", "b")))
	assert.Equal(t, root, existingParent(root))
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{512, "512 bytes"},
		{2048, "2.0 KB"},
		{150 * 1024 * 1024, "150.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBytes(tt.in))
	}
}
