// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package encode

import (
	"context"
	"fmt"
	"os"

	"github.com/h2non/bimg"

	"github.com/pdiddy/pdfraster/pkg/types"
)

// Vips encodes through libvips. libvips treats quality 0 as "use default",
// so the lowest lossy quality sent is 1. Lossless effort is left to libvips.
type Vips struct{}

// NewVips returns the libvips encoder.
func NewVips() *Vips { return &Vips{} }

func (v *Vips) Name() string { return string(types.EncodeVips) }

func (v *Vips) Encode(ctx context.Context, srcPath, outDir string, opts Options) (string, error) {
	opts, err := opts.resolve()
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	buf, err := bimg.Read(srcPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", srcPath, err)
	}

	quality := opts.Quality
	if quality == 0 {
		quality = 1
	}
	out, err := bimg.NewImage(buf).Process(bimg.Options{
		Type:     bimg.WEBP,
		Quality:  quality,
		Lossless: opts.Lossless,
	})
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", srcPath, err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory %s: %w", outDir, err)
	}
	outPath := OutputPath(srcPath, outDir)
	if err := bimg.Write(outPath, out); err != nil {
		return "", fmt.Errorf("writing %s: %w", outPath, err)
	}
	return outPath, nil
}
