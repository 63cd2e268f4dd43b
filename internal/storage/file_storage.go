// internal/storage/file_storage.go
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileStorage is the local-disk blob store for uploaded covers, source PDFs
// and generated narration audio. Files are served under the /uploads URL
// prefix by the HTTP layer.
type FileStorage struct {
	BaseDir string

	// Per-path locks so concurrent writes to the same asset serialize.
	fileLocks sync.Map // full path -> *sync.RWMutex
}

const (
	AudioDir  = "audio"
	CoversDir = "covers"
	PDFDir    = "pdfs"
)

// NewFileStorage creates the blob store rooted at baseDir.
func NewFileStorage(baseDir string) (*FileStorage, error) {
	for _, sub := range []string{"", AudioDir, CoversDir, PDFDir} {
		if err := os.MkdirAll(filepath.Join(baseDir, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	return &FileStorage{BaseDir: baseDir}, nil
}

func (fs *FileStorage) getFileLock(fullPath string) *sync.RWMutex {
	value, _ := fs.fileLocks.LoadOrStore(fullPath, &sync.RWMutex{})
	return value.(*sync.RWMutex)
}

// SaveFile writes content atomically (temp file + rename) and returns the
// public URL path of the stored asset.
func (fs *FileStorage) SaveFile(dirPath, filename string, content []byte) (string, error) {
	fullDirPath := filepath.Join(fs.BaseDir, dirPath)
	fullPath := filepath.Join(fullDirPath, filename)

	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(fullDirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tempPath := fullPath + ".tmp"
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempPath, fullPath); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	return "/uploads/" + filepath.ToSlash(filepath.Join(dirPath, filename)), nil
}

// SaveChapterAudio stores one chapter's narration under a name unique per
// book, chapter and timestamp, so a rerun overwrites logically but never
// collides physically.
func (fs *FileStorage) SaveChapterAudio(bookID uint, chapterNumber int, audio []byte) (string, error) {
	filename := fmt.Sprintf("book_%d_chapter_%d_%d.mp3", bookID, chapterNumber, time.Now().Unix())
	return fs.SaveFile(AudioDir, filename, audio)
}

// SaveUpload stores an admin-uploaded asset (cover image or source PDF)
// under a collision-free name and returns its URL path.
func (fs *FileStorage) SaveUpload(kind, originalName string, content []byte) (string, error) {
	var dir string
	switch kind {
	case "pdf":
		dir = PDFDir
	case "cover":
		dir = CoversDir
	default:
		return "", fmt.Errorf("unknown upload kind: %s", kind)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	filename := uuid.New().String() + ext
	return fs.SaveFile(dir, filename, content)
}

// ReadByURL resolves a previously returned /uploads URL path back to bytes.
func (fs *FileStorage) ReadByURL(urlPath string) ([]byte, error) {
	rel := strings.TrimPrefix(urlPath, "/uploads/")
	rel = filepath.Clean("/" + rel) // strip any traversal
	fullPath := filepath.Join(fs.BaseDir, rel)

	lock := fs.getFileLock(fullPath)
	lock.RLock()
	defer lock.RUnlock()

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored file: %w", err)
	}
	return content, nil
}

// LocalPath maps a stored URL path to the on-disk location. Used by the PDF
// extractor, which needs a seekable file rather than a byte slice.
func (fs *FileStorage) LocalPath(urlPath string) string {
	rel := strings.TrimPrefix(urlPath, "/uploads/")
	rel = filepath.Clean("/" + rel)
	return filepath.Join(fs.BaseDir, rel)
}

// DeleteFile removes a stored asset by its URL path.
func (fs *FileStorage) DeleteFile(urlPath string) error {
	fullPath := fs.LocalPath(urlPath)

	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", urlPath)
	}
	return os.Remove(fullPath)
}

// FileExists reports whether an asset exists for the URL path.
func (fs *FileStorage) FileExists(urlPath string) bool {
	_, err := os.Stat(fs.LocalPath(urlPath))
	return err == nil
}
