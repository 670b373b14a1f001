// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package encode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"golang.org/x/image/tiff"

	"github.com/pdiddy/pdfraster/pkg/types"
)

// Libwebp decodes TIFF with x/image/tiff and encodes through libwebp.
type Libwebp struct{}

// NewLibwebp returns the libwebp encoder.
func NewLibwebp() *Libwebp { return &Libwebp{} }

func (l *Libwebp) Name() string { return string(types.EncodeLibwebp) }

func (l *Libwebp) Encode(ctx context.Context, srcPath, outDir string, opts Options) (string, error) {
	opts, err := opts.resolve()
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", srcPath, err)
	}
	defer in.Close()

	img, err := tiff.Decode(in)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", srcPath, err)
	}

	eo, err := encoderOptions(opts)
	if err != nil {
		return "", fmt.Errorf("building encoder options: %w", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory %s: %w", outDir, err)
	}

	outPath := OutputPath(srcPath, outDir)
	tmp, err := os.CreateTemp(outDir, ".encode-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	encErr := webp.Encode(tmp, img, eo)
	closeErr := tmp.Close()
	if encErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("encoding %s: %w", filepath.Base(srcPath), encErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return outPath, nil
}

func encoderOptions(opts Options) (*encoder.Options, error) {
	if opts.Lossless {
		return encoder.NewLosslessEncoderOptions(encoder.PresetDefault, losslessLevel(opts.Quality))
	}
	return encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(opts.Quality))
}

// losslessLevel maps a 0-100 effort onto libwebp's lossless presets 0-9.
func losslessLevel(quality int) int {
	return (quality*9 + 50) / 100
}
