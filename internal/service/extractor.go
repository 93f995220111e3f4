package service

import (
	"path/filepath"
	"strings"

	"manuscript-extractor/internal/docx"
	"manuscript-extractor/internal/domain"
	"manuscript-extractor/internal/pdfdoc"
	apperrors "manuscript-extractor/pkg/errors"
)

// ExtractorService routes a manuscript to the extractor for its format. The
// format is declared by the filename extension, never sniffed from content.
type ExtractorService struct {
	docx   *DocxExtractor
	pdf    *PDFExtractor
	config domain.Config
	logger domain.Logger
}

// NewExtractorService creates a new extraction routing service.
func NewExtractorService(
	docxExtractor *DocxExtractor,
	pdfExtractor *PDFExtractor,
	config domain.Config,
	logger domain.Logger,
) *ExtractorService {
	return &ExtractorService{
		docx:   docxExtractor,
		pdf:    pdfExtractor,
		config: config,
		logger: logger,
	}
}

// ExtractFile opens the manuscript at path and runs the matching extraction
// pipeline. Unreadable documents fail the whole call; per-item problems
// inside a readable document degrade to partial output.
func (s *ExtractorService) ExtractFile(path string) (*domain.StructuredDocument, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".docx":
		s.logger.Info("Extracting styled document", "path", path)
		doc, err := docx.OpenFile(path)
		if err != nil {
			return nil, apperrors.NewProcessingError("failed to open styled document", err)
		}
		return s.docx.Extract(doc)
	case ".pdf":
		s.logger.Info("Extracting paginated document", "path", path)
		doc, err := pdfdoc.Open(path, s.config.GetLineTolerance(), s.logger)
		if err != nil {
			return nil, apperrors.NewProcessingError("failed to open paginated document", err)
		}
		return s.pdf.Extract(doc)
	default:
		return nil, apperrors.NewValidationError("unsupported document format", ext)
	}
}
