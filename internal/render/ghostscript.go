// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pdiddy/pdfraster/internal/tool"
	"github.com/pdiddy/pdfraster/pkg/types"
)

const (
	binGhostscript = "gs"

	// gsDevice writes 24-bit RGB uncompressed TIFF.
	gsDevice = "tiff24nc"
)

// Ghostscript renders every page in a single gs process using its own
// rendering threads.
type Ghostscript struct {
	gs tool.Tool
}

// NewGhostscript returns a renderer that uses gs from PATH.
func NewGhostscript() *Ghostscript {
	return &Ghostscript{gs: tool.New(binGhostscript)}
}

func (g *Ghostscript) Name() string { return string(types.RenderGhostscript) }

func (g *Ghostscript) Render(ctx context.Context, pdfPath, outDir string, opts Options) ([]string, error) {
	opts = opts.withDefaults()
	if err := prepare(pdfPath, outDir); err != nil {
		return nil, err
	}

	if _, err := g.gs.Output(ctx, ghostscriptArgs(pdfPath, outDir, opts)...); err != nil {
		removePages(outDir, opts.OutputRoot)
		return nil, fmt.Errorf("rendering %s: %w", filepath.Base(pdfPath), err)
	}
	return collectPages(outDir, opts.OutputRoot)
}

func ghostscriptArgs(pdfPath, outDir string, opts Options) []string {
	return []string{
		"-dNOPAUSE",
		"-dSAFER",
		"-dBATCH",
		fmt.Sprintf("-dNumRenderingThreads=%d", opts.Threads),
		"-q",
		"-sDEVICE=" + gsDevice,
		fmt.Sprintf("-r%d", opts.DPI),
		"-sOutputFile=" + filepath.Join(outDir, opts.OutputRoot+"-%d"+tiffExt),
		pdfPath,
	}
}
