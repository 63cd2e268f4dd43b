// internal/storage/file_storage_test.go
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *FileStorage {
	t.Helper()
	store, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSaveAndReadRoundTrip(t *testing.T) {
	store := newStore(t)

	url, err := store.SaveFile(CoversDir, "cover.jpg", []byte("jpeg bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/covers/cover.jpg", url)

	content, err := store.ReadByURL(url)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg bytes"), content)
	assert.True(t, store.FileExists(url))

	require.NoError(t, store.DeleteFile(url))
	assert.False(t, store.FileExists(url))
}

func TestSaveChapterAudioNaming(t *testing.T) {
	store := newStore(t)

	url, err := store.SaveChapterAudio(12, 3, []byte("mp3"))
	require.NoError(t, err)

	pattern := regexp.MustCompile(`^/uploads/audio/book_12_chapter_3_\d+\.mp3$`)
	assert.Regexp(t, pattern, url)
	assert.True(t, store.FileExists(url))
}

func TestSaveUploadKeepsExtension(t *testing.T) {
	store := newStore(t)

	url, err := store.SaveUpload("pdf", "My Book.PDF", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, ".pdf", filepath.Ext(url))

	path := store.LocalPath(url)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, len("%PDF-1.4"), info.Size())
}

func TestSaveFileLeavesNoTempFilesBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStorage(dir)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := store.SaveFile(AudioDir, fmt.Sprintf("f%d.mp3", i), []byte("x"))
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, AudioDir))
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".tmp")
	}
	assert.Len(t, entries, 5)
}
