// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdfraster/internal/history"
	"github.com/pdiddy/pdfraster/pkg/types"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	setConfigDefaults(v)
	v.SetEnvPrefix("PDFRASTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestLoadPipelineConfig_Defaults(t *testing.T) {
	cfg, err := loadPipelineConfig(newTestViper(t))
	require.NoError(t, err)

	assert.Equal(t, types.DocWEBP, cfg.Defaults.Format)
	assert.True(t, cfg.Defaults.KeepIntermediate)
	assert.Equal(t, cliDPI, cfg.TIFF.DPI)
	assert.Equal(t, types.DefaultThreads, cfg.TIFF.Threads)
	assert.Equal(t, types.RenderPoppler, cfg.TIFF.Backend)
	assert.Equal(t, types.DefaultQuality, cfg.WEBP.Quality)
	assert.False(t, cfg.WEBP.Lossless)
	assert.Equal(t, types.EncodeLibwebp, cfg.WEBP.Backend)
	assert.Equal(t, ".pdfraster", cfg.History.Dir)
	assert.Equal(t, 60*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "pdfs", cfg.Fetch.WorkDir)
	assert.True(t, cfg.Storage.Secure)
}

func TestLoadPipelineConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfraster.yaml")
	content := `defaults:
  format: tif
  image_dir: images
tif:
  dpi: 300
  threads: 2
  backend: mupdf
webp:
  quality: 75
  lossless: true
storage:
  endpoint: s3.local:9000
  bucket: pages
fetch:
  timeout: 10s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := newTestViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadPipelineConfig(v)
	require.NoError(t, err)
	assert.Equal(t, types.DocTIFF, cfg.Defaults.Format)
	assert.Equal(t, "images", cfg.Defaults.ImageDir)
	assert.Equal(t, 300, cfg.TIFF.DPI)
	assert.Equal(t, 2, cfg.TIFF.Threads)
	assert.Equal(t, types.RenderMuPDF, cfg.TIFF.Backend)
	assert.Equal(t, 75, cfg.WEBP.Quality)
	assert.True(t, cfg.WEBP.Lossless)
	assert.Equal(t, "s3.local:9000", cfg.Storage.Endpoint)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "pdfraster/0.1", cfg.Fetch.UserAgent, "unset keys keep defaults")
}

func TestLoadPipelineConfig_Env(t *testing.T) {
	t.Setenv("PDFRASTER_WEBP_QUALITY", "55")
	t.Setenv("PDFRASTER_TIF_BACKEND", "ghostscript")

	cfg, err := loadPipelineConfig(newTestViper(t))
	require.NoError(t, err)
	assert.Equal(t, 55, cfg.WEBP.Quality)
	assert.Equal(t, types.RenderGhostscript, cfg.TIFF.Backend)
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		raw     string
		want    types.DocType
		warning bool
	}{
		{"webp", types.DocWEBP, false},
		{"TIF", types.DocTIFF, false},
		{"tiff", types.DocTIFF, false},
		{"pdf", types.DocPDF, false},
		{"png", types.DefaultTarget, true},
		{"", types.DefaultTarget, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var buf bytes.Buffer
			got := resolveFormat(tt.raw, &buf)
			assert.Equal(t, tt.want, got)
			if tt.warning {
				assert.Contains(t, buf.String(), "WARNING: Unrecognized conversion format")
				assert.Contains(t, buf.String(), "pdf, tif, webp")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestConversionOptions(t *testing.T) {
	cfg := cliDefaults()
	cfg.TIFF.DPI = 150
	cfg.TIFF.Threads = 8
	cfg.WEBP.Quality = 60
	cfg.WEBP.Lossless = true
	cfg.Defaults.KeepIntermediate = false

	opts := conversionOptions(cfg)
	assert.Equal(t, 150, opts.Render.DPI)
	assert.Equal(t, 8, opts.Render.Threads)
	assert.Equal(t, 60, opts.Encode.Quality)
	assert.True(t, opts.Encode.Lossless)
	assert.False(t, opts.KeepIntermediate)
}

func TestConversionOptions_ResolvesDefaults(t *testing.T) {
	cfg := cliDefaults()
	cfg.TIFF.DPI = 0
	cfg.TIFF.Threads = -2
	cfg.WEBP.Quality = -1

	opts := conversionOptions(cfg)
	assert.Equal(t, types.DefaultDPI, opts.Render.DPI)
	assert.Equal(t, types.DefaultThreads, opts.Render.Threads)
	assert.Equal(t, types.DefaultQuality, opts.Encode.Quality)
	assert.Empty(t, opts.Render.OutputRoot, "each render picks its own root")

	var buf bytes.Buffer
	printSettings(&buf, opts, types.DocWEBP)
	assert.Equal(t, "DPI: 200  Quality: 90  Lossless? false\nConversion Format: webp\n", buf.String())
}

func TestPrintFormats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printFormats(&buf))
	out := buf.String()
	assert.Contains(t, out, "[tif webp]")
	assert.Contains(t, out, "poppler")
	assert.Contains(t, out, "libwebp")
}

func TestCLIDefaults_YAMLSections(t *testing.T) {
	data, err := yaml.Marshal(cliDefaults())
	require.NoError(t, err)

	var sections map[string]any
	require.NoError(t, yaml.Unmarshal(data, &sections))
	for _, key := range []string{"defaults", "tif", "webp", "storage", "history", "fetch"} {
		assert.Contains(t, sections, key)
	}
}

func TestFormatRuns(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, formatRuns(&buf, nil, false))
		assert.Contains(t, buf.String(), "No runs recorded.")
	})

	t.Run("table", func(t *testing.T) {
		runs := []history.Run{{
			ID:        "abc",
			Source:    "/docs/report.pdf",
			Target:    types.DocWEBP,
			Status:    history.StatusConverted,
			Duration:  2 * time.Second,
			CreatedAt: time.Now(),
			Files:     []string{"a.tif", "a.webp"},
		}}
		var buf bytes.Buffer
		require.NoError(t, formatRuns(&buf, runs, false))
		out := buf.String()
		assert.Contains(t, out, "report.pdf")
		assert.Contains(t, out, "converted")
		assert.Contains(t, out, "2.0000")
		assert.Contains(t, out, "1 runs")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, formatRuns(&buf, []history.Run{{ID: "abc"}}, true))
		assert.Contains(t, buf.String(), `"id": "abc"`)
	})
}
