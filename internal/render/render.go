// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns PDF documents into one TIFF image per page. Backends
// wrap poppler (pdftoppm), Ghostscript, or MuPDF (in-process via go-fitz).
package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/pdfraster/pkg/types"
)

// tiffExt is the extension every backend writes.
const tiffExt = ".tif"

var (
	// ErrSourceNotFound is returned when the PDF to render does not exist.
	ErrSourceNotFound = errors.New("source PDF not found")

	// ErrNoPages is returned when a render finished without writing any page.
	ErrNoPages = errors.New("renderer produced no pages")
)

// Renderer converts a PDF into TIFF pages.
type Renderer interface {
	// Name returns the backend name.
	Name() string

	// Render writes one TIFF per page of pdfPath into outDir and returns
	// their paths in page order.
	Render(ctx context.Context, pdfPath, outDir string, opts Options) ([]string, error)
}

// Options controls a single render.
type Options struct {
	// DPI is the render resolution. Zero or negative uses types.DefaultDPI.
	DPI int

	// Threads bounds concurrent workers. Zero or negative uses
	// types.DefaultThreads.
	Threads int

	// OutputRoot is the file stem for page images ("<root>-<page>.tif").
	// Empty generates a random UUID stem.
	OutputRoot string
}

// Normalize fills a non-positive DPI or thread count with the defaults.
// OutputRoot is left alone so each render still picks its own stem.
func (o Options) Normalize() Options {
	if o.DPI <= 0 {
		o.DPI = types.DefaultDPI
	}
	if o.Threads <= 0 {
		o.Threads = types.DefaultThreads
	}
	return o
}

func (o Options) withDefaults() Options {
	o = o.Normalize()
	if o.OutputRoot == "" {
		o.OutputRoot = uuid.NewString()
	}
	return o
}

// New returns the Renderer for backend.
func New(backend types.RenderBackend) (Renderer, error) {
	switch backend {
	case types.RenderPoppler, "":
		return NewPoppler(), nil
	case types.RenderGhostscript:
		return NewGhostscript(), nil
	case types.RenderMuPDF:
		return NewMuPDF(), nil
	default:
		return nil, fmt.Errorf("unsupported render backend %q: use poppler, ghostscript, or mupdf", backend)
	}
}

// prepare checks the source and creates outDir.
func prepare(pdfPath, outDir string) error {
	info, err := os.Stat(pdfPath)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, pdfPath)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", outDir, err)
	}
	return nil
}

// collectPages finds "<root>-<n>.tif" files in outDir, sorted by page number.
func collectPages(outDir, root string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(outDir, root+"-*"+tiffExt))
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}

	type page struct {
		num  int
		path string
	}
	pages := make([]page, 0, len(matches))
	prefix := root + "-"
	for _, m := range matches {
		stem := strings.TrimSuffix(filepath.Base(m), tiffExt)
		n, err := strconv.Atoi(strings.TrimPrefix(stem, prefix))
		if err != nil {
			continue
		}
		pages = append(pages, page{num: n, path: m})
	}
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].num < pages[j].num })
	paths := make([]string, len(pages))
	for i, p := range pages {
		paths[i] = p.path
	}
	return paths, nil
}

// removePages deletes every "<root>-*.tif" in outDir. Backends call it when
// a render fails so pages written by other workers are not left behind.
func removePages(outDir, root string) {
	matches, _ := filepath.Glob(filepath.Join(outDir, root+"-*"+tiffExt))
	for _, m := range matches {
		os.Remove(m)
	}
}

// pagePath names page n of a document with pageCount pages, zero-padded to
// the width of pageCount the way pdftoppm does.
func pagePath(outDir, root string, n, pageCount int) string {
	width := len(strconv.Itoa(pageCount))
	return filepath.Join(outDir, fmt.Sprintf("%s-%0*d%s", root, width, n, tiffExt))
}
