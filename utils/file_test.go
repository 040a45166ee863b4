package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFileWithTimestamp(t *testing.T) {
	srcDir := t.TempDir()
	uploadDir := filepath.Join(t.TempDir(), "uploads")

	src := filepath.Join(srcDir, "BrakeManual.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4 content"), 0644))

	dest, err := CopyFileWithTimestamp(src, uploadDir)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`BrakeManual_\d+\.pdf$`), dest)

	copied, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 content"), copied)
}

func TestCopyFileWithTimestamp_MissingSource(t *testing.T) {
	_, err := CopyFileWithTimestamp(filepath.Join(t.TempDir(), "nope.pdf"), t.TempDir())
	assert.Error(t, err)
}
