package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BhavyaSri138/SE-ProfAid/internal/domain"
)

func newTestFileManager(t *testing.T, limit int64) *FileManager {
	t.Helper()

	fm, err := NewFileManager(t.TempDir(), limit)
	require.NoError(t, err)
	return fm
}

func uploadFile(t *testing.T, content string) *os.File {
	t.Helper()

	path := filepath.Join(t.TempDir(), "upload.pdf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	file, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { file.Close() })
	return file
}

func TestSaveAttachmentReturnsOpaqueRef(t *testing.T) {
	fm := newTestFileManager(t, 1024)

	ref, err := fm.SaveAttachment(uploadFile(t, "notes"), "my notes.pdf")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(ref, ".pdf"))
	assert.NotContains(t, ref, "my notes", "reference must not leak the original name")

	path, err := fm.Resolve(ref)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "notes", string(data))
}

func TestSaveAttachmentEnforcesLimit(t *testing.T) {
	fm := newTestFileManager(t, 4)

	_, err := fm.SaveAttachment(uploadFile(t, "way past the limit"), "big.pdf")
	assert.True(t, domain.IsValidation(err), "expected validation error, got %v", err)

	entries, readErr := os.ReadDir(fm.UploadDir())
	require.NoError(t, readErr)
	assert.Empty(t, entries, "rejected upload must leave no partial file")
}

func TestResolveRejectsTraversal(t *testing.T) {
	fm := newTestFileManager(t, 1024)

	for _, ref := range []string{"", "..", "../doubts.json", ".hidden", "a/b.pdf"} {
		_, err := fm.Resolve(ref)
		assert.ErrorIs(t, err, domain.ErrNotFound, "ref %q", ref)
	}
}

func TestDiscardRemovesStoredRefs(t *testing.T) {
	fm := newTestFileManager(t, 1024)

	ref, err := fm.SaveAttachment(uploadFile(t, "temp"), "temp.txt")
	require.NoError(t, err)

	fm.Discard([]string{ref})

	_, err = fm.Resolve(ref)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
