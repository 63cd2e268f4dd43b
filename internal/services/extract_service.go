// internal/services/extract_service.go
package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/bookwise-app/bookwise-server/internal/logger"
)

// maxSourceChars caps how much extracted text is handed to the language
// model. Longer books are clipped from the front.
const maxSourceChars = 15000

// ExtractService pulls plain text out of uploaded PDF documents.
type ExtractService struct {
	log *logger.Logger
}

func NewExtractService(baseLog *logger.Logger) *ExtractService {
	return &ExtractService{log: baseLog.With("service", "ExtractService")}
}

// ExtractText reads the PDF at path and returns its plain text, clipped to
// maxSourceChars. An empty result with a nil error means the document
// contained no extractable text.
func (s *ExtractService) ExtractText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	text := strings.TrimSpace(string(content))
	if len(text) > maxSourceChars {
		s.log.Debug("clipping extracted text", "path", path, "chars", len(text), "max", maxSourceChars)
		text = text[:maxSourceChars]
	}
	return text, nil
}
