package config

import (
	"manuscript-extractor/internal/domain"
	"manuscript-extractor/internal/service"
	"manuscript-extractor/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config       domain.Config
	Logger       domain.Logger
	FigureWriter *service.FigureWriter
	Docx         *service.DocxExtractor
	PDF          *service.PDFExtractor
	Renderer     *service.LatexRenderer
	Extractor    *service.ExtractorService
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *AppConfig) *Container {
	appLogger := logger.NewLogger(cfg.GetLogLevel())

	// Extraction pipeline: both extractors share one figure writer so image
	// filenames stay unique across a run.
	figureWriter := service.NewFigureWriter(cfg.GetFigureDir(), appLogger)
	docxExtractor := service.NewDocxExtractor(figureWriter, appLogger)
	pdfExtractor := service.NewPDFExtractor(figureWriter, appLogger)
	renderer := service.NewLatexRenderer(appLogger)
	extractor := service.NewExtractorService(docxExtractor, pdfExtractor, cfg, appLogger)

	return &Container{
		Config:       cfg,
		Logger:       appLogger,
		FigureWriter: figureWriter,
		Docx:         docxExtractor,
		PDF:          pdfExtractor,
		Renderer:     renderer,
		Extractor:    extractor,
	}
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

// GetExtractor returns the extraction routing service
func (c *Container) GetExtractor() *service.ExtractorService {
	return c.Extractor
}

// GetRenderer returns the LaTeX renderer instance
func (c *Container) GetRenderer() *service.LatexRenderer {
	return c.Renderer
}
