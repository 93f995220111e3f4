package service

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"manuscript-extractor/internal/domain"
)

// FigureWriter persists figure payloads into the shared output directory.
// Names are kept unique within a run by suffixing; runs that must not see
// each other's files should use distinct directories.
type FigureWriter struct {
	dir    string
	logger domain.Logger

	mu   sync.Mutex
	used map[string]bool
}

// NewFigureWriter creates a figure writer rooted at dir.
func NewFigureWriter(dir string, logger domain.Logger) *FigureWriter {
	return &FigureWriter{
		dir:    dir,
		logger: logger,
		used:   make(map[string]bool),
	}
}

// Save writes payload bytes as name.ext inside the output directory and
// returns the final filename and path. An empty ext is sniffed from the
// payload. Collisions with names already written this run get a numeric
// suffix: name_2.ext, name_3.ext and so on.
func (w *FigureWriter) Save(name, ext string, data []byte) (string, string, error) {
	if ext == "" {
		ext = w.sniffExt(data)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create figure directory: %w", err)
	}

	filename := w.reserve(name, ext)
	path := filepath.Join(w.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write figure %s: %w", filename, err)
	}
	return filename, path, nil
}

// reserve claims the first free filename for name.ext in this run.
func (w *FigureWriter) reserve(name, ext string) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	filename := fmt.Sprintf("%s.%s", name, ext)
	for n := 2; w.used[filename]; n++ {
		filename = fmt.Sprintf("%s_%d.%s", name, n, ext)
	}
	w.used[filename] = true
	return filename
}

// sniffExt decodes the payload header to pick a file extension. The bytes
// are written unmodified either way; an undecodable payload keeps the png
// default.
func (w *FigureWriter) sniffExt(data []byte) string {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		w.logger.Debug("Figure payload not decodable, defaulting extension", "error", err)
		return "png"
	}
	w.logger.Debug("Figure payload decoded", "format", format, "width", cfg.Width, "height", cfg.Height)
	return format
}
