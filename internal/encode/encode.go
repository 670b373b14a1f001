// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package encode re-encodes TIFF page images as WEBP.
//
// Quality is interpreted the way libwebp does: for lossy output 0 gives the
// smallest file and 100 the largest; for lossless output 0 is the fastest
// compression and 100 the strongest.
package encode

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdfraster/pkg/types"
)

const webpExt = ".webp"

// ErrQualityRange is returned for a quality above 100.
var ErrQualityRange = errors.New("quality must be within [0, 100]")

// Encoder converts a single image into WEBP.
type Encoder interface {
	// Name returns the backend name.
	Name() string

	// Encode writes srcPath as WEBP into outDir and returns the new path.
	Encode(ctx context.Context, srcPath, outDir string, opts Options) (string, error)
}

// Options controls a single encode.
type Options struct {
	// Quality is 0-100. A negative value selects types.DefaultQuality.
	Quality int

	// Lossless selects lossless compression.
	Lossless bool
}

// DefaultOptions returns the encoder's settings when nothing is configured.
func DefaultOptions() Options {
	return Options{Quality: types.DefaultQuality, Lossless: types.DefaultLossless}
}

// Normalize replaces a negative quality with types.DefaultQuality.
func (o Options) Normalize() Options {
	if o.Quality < 0 {
		o.Quality = types.DefaultQuality
	}
	return o
}

// Validate reports ErrQualityRange for a quality above 100. Negative
// values are accepted since Normalize maps them to the default.
func (o Options) Validate() error {
	if o.Quality > 100 {
		return fmt.Errorf("%w: got %d", ErrQualityRange, o.Quality)
	}
	return nil
}

func (o Options) resolve() (Options, error) {
	o = o.Normalize()
	return o, o.Validate()
}

// OutputPath names the WEBP for srcPath: the source name up to its first
// dot, with a .webp extension, inside outDir.
func OutputPath(srcPath, outDir string) string {
	name := filepath.Base(srcPath)
	if i := strings.Index(name, "."); i >= 0 {
		name = name[:i]
	}
	return filepath.Join(outDir, name+webpExt)
}

// New returns the Encoder for backend.
func New(backend types.EncodeBackend) (Encoder, error) {
	switch backend {
	case types.EncodeLibwebp, "":
		return NewLibwebp(), nil
	case types.EncodeVips:
		return NewVips(), nil
	default:
		return nil, fmt.Errorf("unsupported encode backend %q: use libwebp or vips", backend)
	}
}
