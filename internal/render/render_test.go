// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfraster/internal/tool"
	"github.com/pdiddy/pdfraster/pkg/types"
)

// fakeTool implements tool.Tool with a scripted Output.
type fakeTool struct {
	name   string
	output func(args []string) ([]byte, error)

	mu    sync.Mutex
	calls [][]string
}

func (f *fakeTool) Name() string    { return f.name }
func (f *fakeTool) Available() bool { return true }

func (f *fakeTool) Output(_ context.Context, args ...string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()
	return f.output(args)
}

// fakePdftoppm writes an empty "<root>-<page>.tif" for every page in -f..-l.
func fakePdftoppm(pageCount int) *fakeTool {
	return &fakeTool{name: binPdftoppm, output: func(args []string) ([]byte, error) {
		var first, last int
		for i := 0; i < len(args)-1; i++ {
			switch args[i] {
			case "-f":
				first, _ = strconv.Atoi(args[i+1])
			case "-l":
				last, _ = strconv.Atoi(args[i+1])
			}
		}
		root := args[len(args)-1]
		width := len(strconv.Itoa(pageCount))
		for n := first; n <= last; n++ {
			path := fmt.Sprintf("%s-%0*d.tif", root, width, n)
			if err := os.WriteFile(path, []byte("II*\x00"), 0o644); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}}
}

func fakePdfinfo(pages int) *fakeTool {
	return &fakeTool{name: binPdfinfo, output: func([]string) ([]byte, error) {
		return []byte(fmt.Sprintf("Title:          test\nPages:          %d\nEncrypted:      no\n", pages)), nil
	}}
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n"), 0o644))
	return path
}

func TestSplitPages(t *testing.T) {
	tests := []struct {
		name    string
		pages   int
		threads int
		want    []chunk
	}{
		{name: "even split", pages: 8, threads: 4, want: []chunk{{1, 2}, {3, 4}, {5, 6}, {7, 8}}},
		{name: "remainder goes first", pages: 10, threads: 4, want: []chunk{{1, 3}, {4, 6}, {7, 8}, {9, 10}}},
		{name: "more threads than pages", pages: 2, threads: 5, want: []chunk{{1, 1}, {2, 2}}},
		{name: "single thread", pages: 3, threads: 1, want: []chunk{{1, 3}}},
		{name: "zero threads treated as one", pages: 3, threads: 0, want: []chunk{{1, 3}}},
		{name: "no pages", pages: 0, threads: 4, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitPages(tt.pages, tt.threads))
		})
	}
}

func TestParsePageCount(t *testing.T) {
	n, err := parsePageCount([]byte("Producer: x\nPages:          25\n"))
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	_, err = parsePageCount([]byte("Producer: x\n"))
	assert.Error(t, err)

	_, err = parsePageCount([]byte("Pages: many\n"))
	assert.Error(t, err)
}

func TestPoppler_Render(t *testing.T) {
	pdf := writePDF(t)
	outDir := filepath.Join(t.TempDir(), "images")

	pdftoppm := fakePdftoppm(12)
	p := &Poppler{pdfinfo: fakePdfinfo(12), pdftoppm: pdftoppm}

	pages, err := p.Render(context.Background(), pdf, outDir, Options{DPI: 150, Threads: 4, OutputRoot: "doc"})
	require.NoError(t, err)
	require.Len(t, pages, 12)

	assert.Equal(t, filepath.Join(outDir, "doc-01.tif"), pages[0])
	assert.Equal(t, filepath.Join(outDir, "doc-12.tif"), pages[11])
	assert.Len(t, pdftoppm.calls, 4)
	for _, args := range pdftoppm.calls {
		assert.Equal(t, []string{"-r", "150", "-tiff"}, args[:3])
	}
}

func TestPoppler_RenderErrors(t *testing.T) {
	t.Run("missing source", func(t *testing.T) {
		p := &Poppler{pdfinfo: fakePdfinfo(1), pdftoppm: fakePdftoppm(1)}
		_, err := p.Render(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), t.TempDir(), Options{})
		assert.ErrorIs(t, err, ErrSourceNotFound)
	})

	t.Run("zero pages", func(t *testing.T) {
		p := &Poppler{pdfinfo: fakePdfinfo(0), pdftoppm: fakePdftoppm(0)}
		_, err := p.Render(context.Background(), writePDF(t), t.TempDir(), Options{})
		assert.ErrorIs(t, err, ErrNoPages)
	})

	t.Run("pdfinfo not installed", func(t *testing.T) {
		info := &fakeTool{name: binPdfinfo, output: func([]string) ([]byte, error) {
			return nil, fmt.Errorf("pdfinfo: %w", tool.ErrNotInstalled)
		}}
		p := &Poppler{pdfinfo: info, pdftoppm: fakePdftoppm(1)}
		_, err := p.Render(context.Background(), writePDF(t), t.TempDir(), Options{})
		assert.ErrorIs(t, err, tool.ErrNotInstalled)
	})

	t.Run("pdftoppm failure", func(t *testing.T) {
		failing := &fakeTool{name: binPdftoppm, output: func([]string) ([]byte, error) {
			return nil, errors.New("Syntax Error")
		}}
		p := &Poppler{pdfinfo: fakePdfinfo(3), pdftoppm: failing}
		_, err := p.Render(context.Background(), writePDF(t), t.TempDir(), Options{Threads: 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rendering pages 1-3")
	})
}

func TestPoppler_RenderFailureRemovesPages(t *testing.T) {
	outDir := t.TempDir()

	pages := fakePdftoppm(8)
	failing := &fakeTool{name: binPdftoppm, output: func(args []string) ([]byte, error) {
		if args[3] == "-f" && args[4] == "7" {
			return nil, errors.New("Syntax Error")
		}
		return pages.output(args)
	}}
	p := &Poppler{pdfinfo: fakePdfinfo(8), pdftoppm: failing}

	_, err := p.Render(context.Background(), writePDF(t), outDir, Options{Threads: 4, OutputRoot: "doc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rendering pages 7-8")

	left, err := filepath.Glob(filepath.Join(outDir, "*"))
	require.NoError(t, err)
	assert.Empty(t, left, "pages from successful chunks must be removed")
}

func TestGhostscript_RenderFailureRemovesPages(t *testing.T) {
	outDir := t.TempDir()
	keep := filepath.Join(outDir, "other-1.tif")
	require.NoError(t, os.WriteFile(keep, nil, 0o644))

	gs := &fakeTool{name: binGhostscript, output: func(args []string) ([]byte, error) {
		for n := 1; n <= 2; n++ {
			if err := os.WriteFile(filepath.Join(outDir, fmt.Sprintf("doc-%d.tif", n)), nil, 0o644); err != nil {
				return nil, err
			}
		}
		return nil, errors.New("Unrecoverable error")
	}}
	g := &Ghostscript{gs: gs}

	_, err := g.Render(context.Background(), writePDF(t), outDir, Options{OutputRoot: "doc"})
	require.Error(t, err)

	left, err := filepath.Glob(filepath.Join(outDir, "*"))
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, left, "only this render's pages are removed")
}

func TestGhostscript_Render(t *testing.T) {
	pdf := writePDF(t)
	outDir := t.TempDir()

	gs := &fakeTool{name: binGhostscript, output: func(args []string) ([]byte, error) {
		var pattern string
		for _, a := range args {
			if strings.HasPrefix(a, "-sOutputFile=") {
				pattern = strings.TrimPrefix(a, "-sOutputFile=")
			}
		}
		for n := 1; n <= 11; n++ {
			if err := os.WriteFile(strings.Replace(pattern, "%d", strconv.Itoa(n), 1), nil, 0o644); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}}
	g := &Ghostscript{gs: gs}

	pages, err := g.Render(context.Background(), pdf, outDir, Options{DPI: 300, Threads: 5, OutputRoot: "doc"})
	require.NoError(t, err)
	require.Len(t, pages, 11)
	assert.Equal(t, filepath.Join(outDir, "doc-1.tif"), pages[0])
	assert.Equal(t, filepath.Join(outDir, "doc-2.tif"), pages[1])
	assert.Equal(t, filepath.Join(outDir, "doc-11.tif"), pages[10])

	args := gs.calls[0]
	assert.Contains(t, args, "-dNumRenderingThreads=5")
	assert.Contains(t, args, "-sDEVICE=tiff24nc")
	assert.Contains(t, args, "-r300")
	assert.Equal(t, pdf, args[len(args)-1])
}

func TestGhostscript_NoPages(t *testing.T) {
	gs := &fakeTool{name: binGhostscript, output: func([]string) ([]byte, error) { return nil, nil }}
	g := &Ghostscript{gs: gs}
	_, err := g.Render(context.Background(), writePDF(t), t.TempDir(), Options{OutputRoot: "doc"})
	assert.ErrorIs(t, err, ErrNoPages)
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, types.DefaultDPI, o.DPI)
	assert.Equal(t, types.DefaultThreads, o.Threads)
	assert.Len(t, o.OutputRoot, 36, "default root should be a UUID")

	o = Options{DPI: 72, Threads: 2, OutputRoot: "x"}.withDefaults()
	assert.Equal(t, Options{DPI: 72, Threads: 2, OutputRoot: "x"}, o)
}

func TestOptionsNormalize(t *testing.T) {
	o := Options{DPI: -1, Threads: 0}.Normalize()
	assert.Equal(t, Options{DPI: types.DefaultDPI, Threads: types.DefaultThreads}, o, "root stays empty")
}

func TestPagePath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "r-007.tif"), pagePath("out", "r", 7, 120))
	assert.Equal(t, filepath.Join("out", "r-7.tif"), pagePath("out", "r", 7, 9))
}

func TestNew(t *testing.T) {
	tests := []struct {
		backend types.RenderBackend
		want    string
		wantErr bool
	}{
		{backend: "", want: "poppler"},
		{backend: types.RenderPoppler, want: "poppler"},
		{backend: types.RenderGhostscript, want: "ghostscript"},
		{backend: types.RenderMuPDF, want: "mupdf"},
		{backend: "pdfium", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			r, err := New(tt.backend)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Name())
		})
	}
}
