// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pdfraster/pkg/types"
)

// MuPDF renders in-process through go-fitz. Rasterization is serialized by
// the library; TIFF encoding of finished pages runs on Threads workers.
type MuPDF struct{}

// NewMuPDF returns the in-process MuPDF renderer.
func NewMuPDF() *MuPDF { return &MuPDF{} }

func (m *MuPDF) Name() string { return string(types.RenderMuPDF) }

func (m *MuPDF) Render(ctx context.Context, pdfPath, outDir string, opts Options) ([]string, error) {
	opts = opts.withDefaults()
	if err := prepare(pdfPath, outDir); err != nil {
		return nil, err
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPages, pdfPath)
	}

	paths := make([]string, pageCount)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Threads)
	for i := 0; i < pageCount; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := doc.ImageDPI(i, float64(opts.DPI))
			if err != nil {
				return fmt.Errorf("rendering page %d: %w", i+1, err)
			}
			path := pagePath(outDir, opts.OutputRoot, i+1, pageCount)
			if err := writeTIFF(path, img); err != nil {
				return fmt.Errorf("writing page %d: %w", i+1, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, p := range paths {
			if p != "" {
				os.Remove(p)
			}
		}
		return nil, err
	}
	return paths, nil
}

func writeTIFF(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
