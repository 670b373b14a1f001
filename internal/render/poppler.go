// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pdfraster/internal/tool"
	"github.com/pdiddy/pdfraster/pkg/types"
)

const (
	binPdfinfo  = "pdfinfo"
	binPdftoppm = "pdftoppm"
)

// Poppler renders with pdftoppm. The page range is split into one
// contiguous chunk per thread and each chunk runs as its own process.
type Poppler struct {
	pdfinfo  tool.Tool
	pdftoppm tool.Tool
}

// NewPoppler returns a renderer that uses pdfinfo and pdftoppm from PATH.
func NewPoppler() *Poppler {
	return &Poppler{
		pdfinfo:  tool.New(binPdfinfo),
		pdftoppm: tool.New(binPdftoppm),
	}
}

func (p *Poppler) Name() string { return string(types.RenderPoppler) }

func (p *Poppler) Render(ctx context.Context, pdfPath, outDir string, opts Options) ([]string, error) {
	opts = opts.withDefaults()
	if err := prepare(pdfPath, outDir); err != nil {
		return nil, err
	}

	pageCount, err := p.pageCount(ctx, pdfPath)
	if err != nil {
		return nil, err
	}
	if pageCount == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPages, pdfPath)
	}

	root := filepath.Join(outDir, opts.OutputRoot)
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range splitPages(pageCount, opts.Threads) {
		c := c
		g.Go(func() error {
			args := []string{
				"-r", strconv.Itoa(opts.DPI),
				"-tiff",
				"-f", strconv.Itoa(c.first),
				"-l", strconv.Itoa(c.last),
				pdfPath,
				root,
			}
			if _, err := p.pdftoppm.Output(gctx, args...); err != nil {
				return fmt.Errorf("rendering pages %d-%d: %w", c.first, c.last, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		removePages(outDir, opts.OutputRoot)
		return nil, err
	}

	return collectPages(outDir, opts.OutputRoot)
}

// pageCount reads the "Pages:" line from pdfinfo.
func (p *Poppler) pageCount(ctx context.Context, pdfPath string) (int, error) {
	out, err := p.pdfinfo.Output(ctx, pdfPath)
	if err != nil {
		return 0, fmt.Errorf("reading page count: %w", err)
	}
	return parsePageCount(out)
}

func parsePageCount(out []byte) (int, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if err != nil {
			return 0, fmt.Errorf("parsing page count %q: %w", line, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("page count not found in pdfinfo output")
}

// chunk is an inclusive 1-based page range.
type chunk struct {
	first, last int
}

// splitPages divides pages 1..pageCount into at most threads contiguous
// ranges. Earlier ranges take the remainder, one extra page each.
func splitPages(pageCount, threads int) []chunk {
	if pageCount <= 0 {
		return nil
	}
	if threads <= 0 {
		threads = 1
	}
	if threads > pageCount {
		threads = pageCount
	}

	base := pageCount / threads
	remainder := pageCount % threads
	chunks := make([]chunk, 0, threads)
	first := 1
	for i := 0; i < threads; i++ {
		size := base
		if remainder > 0 {
			size++
			remainder--
		}
		chunks = append(chunks, chunk{first: first, last: first + size - 1})
		first += size
	}
	return chunks
}
