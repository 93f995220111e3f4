package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"manuscript-extractor/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	inPath := flag.String("in", "", "path to the source manuscript (.docx or .pdf)")
	outPath := flag.String("out", "", "output path (default: input name with .tex, or .json with -json)")
	templatePath := flag.String("template", "", "LaTeX template file overriding the built-in default")
	figureDir := flag.String("figures", "", "directory for extracted figure images")
	asJSON := flag.Bool("json", false, "emit the structured document as JSON instead of LaTeX")
	flag.Parse()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	cfg := config.Load()
	if *figureDir != "" {
		cfg.FigureDir = *figureDir
	}
	if *templatePath != "" {
		cfg.TemplatePath = *templatePath
	}

	// Wiring
	container := config.NewContainer(cfg)
	logger := container.Logger

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "usage: extractor -in manuscript.docx [-out out.tex] [-template custom.tex] [-figures dir] [-json]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	doc, err := container.Extractor.ExtractFile(*inPath)
	if err != nil {
		logger.Error("Extraction failed", err, "input", *inPath)
		os.Exit(1)
	}
	logger.Info("Manuscript extracted",
		"input", *inPath,
		"sections", len(doc.Body),
		"tables", len(doc.Tables),
		"references", len(doc.References),
		"figures", len(doc.Metadata.Figures),
	)

	var output []byte
	ext := ".tex"
	if *asJSON {
		output, err = json.MarshalIndent(doc, "", "  ")
		if err != nil {
			logger.Error("Failed to encode structured document", err)
			os.Exit(1)
		}
		ext = ".json"
	} else {
		templateText := ""
		if path := cfg.GetTemplatePath(); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				logger.Error("Failed to read template", err, "path", path)
				os.Exit(1)
			}
			templateText = string(data)
		}
		rendered, err := container.Renderer.Render(doc, templateText)
		if err != nil {
			logger.Error("Rendering failed", err)
			os.Exit(1)
		}
		output = []byte(rendered)
	}

	target := *outPath
	if target == "" {
		target = strings.TrimSuffix(*inPath, filepath.Ext(*inPath)) + ext
	}
	if err := os.WriteFile(target, output, 0o644); err != nil {
		logger.Error("Failed to write output", err, "path", target)
		os.Exit(1)
	}
	logger.Info("Output written", "path", target)
}
