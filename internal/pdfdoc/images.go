package pdfdoc

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"manuscript-extractor/internal/domain"
)

// EmbeddedImage is one raster resource drawn on a page, already decoded to
// an interchange format named by Ext (png, jpg, tiff).
type EmbeddedImage struct {
	Name string
	Ext  string
	Data []byte
}

// extractImages collects every page's image XObjects. The positioned-text
// reader has no access to resource streams, so the file is read again
// through pdfcpu's optimize pass, which indexes images per page.
func extractImages(path string, log domain.Logger) (map[int][]EmbeddedImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, err
	}

	images := make(map[int][]EmbeddedImage)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		byObj, err := pdfcpu.ExtractPageImages(ctx, pageNr, false)
		if err != nil {
			log.Warn("page image extraction failed", "page", pageNr, "error", err)
			continue
		}
		if len(byObj) == 0 {
			continue
		}
		// Map order is random; object numbers keep figure numbering stable.
		objNrs := make([]int, 0, len(byObj))
		for objNr := range byObj {
			objNrs = append(objNrs, objNr)
		}
		sort.Ints(objNrs)
		for _, objNr := range objNrs {
			img := byObj[objNr]
			data, err := io.ReadAll(img)
			if err != nil {
				log.Warn("image stream unreadable", "page", pageNr, "object", objNr, "error", err)
				continue
			}
			images[pageNr] = append(images[pageNr], EmbeddedImage{
				Name: img.Name,
				Ext:  strings.ToLower(img.FileType),
				Data: data,
			})
		}
	}
	return images, nil
}
