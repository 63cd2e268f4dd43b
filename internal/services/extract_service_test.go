// internal/services/extract_service_test.go
package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwise-app/bookwise-server/internal/logger"
)

func TestExtractTextMissingFile(t *testing.T) {
	svc := NewExtractService(logger.NewNop())
	_, err := svc.ExtractText(filepath.Join(t.TempDir(), "nope.pdf"))
	assert.Error(t, err)
}

func TestExtractTextRejectsNonPDF(t *testing.T) {
	svc := NewExtractService(logger.NewNop())

	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is just text"), 0644))

	_, err := svc.ExtractText(path)
	assert.Error(t, err)
}
