// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert composes a renderer and an encoder into the PDF to
// TIFF to WEBP pipeline, and records what was produced on the Document.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/pdfraster/internal/encode"
	"github.com/pdiddy/pdfraster/internal/render"
	"github.com/pdiddy/pdfraster/pkg/types"
)

var (
	// ErrNoTargetFormat is returned when no target format was given.
	ErrNoTargetFormat = errors.New("no target conversion format specified")

	// ErrUnsupportedSource is returned when the source cannot be rasterized.
	ErrUnsupportedSource = errors.New("unsupported source document type")

	// ErrPartialConversion is returned when some pages failed to encode.
	ErrPartialConversion = errors.New("conversion partially failed")

	// ErrEncodeFailed is returned when no page could be encoded.
	ErrEncodeFailed = errors.New("no page could be encoded")
)

// Options holds per-conversion settings for both stages.
type Options struct {
	Render render.Options
	Encode encode.Options

	// KeepIntermediate keeps TIFF pages on disk after a WEBP conversion.
	KeepIntermediate bool
}

// DefaultOptions returns stage defaults with intermediates kept.
func DefaultOptions() Options {
	return Options{
		Encode:           encode.DefaultOptions(),
		KeepIntermediate: true,
	}
}

// Result describes one Convert call.
type Result struct {
	// Skipped is true when the document already was in the target format.
	Skipped bool

	// Pages is the number of TIFF pages rendered.
	Pages int

	// Encoded is the number of WEBP images written.
	Encoded int

	// FailedPages lists TIFFs that could not be encoded.
	FailedPages []string
}

// Pipeline converts documents with a fixed renderer and encoder.
type Pipeline struct {
	renderer render.Renderer
	encoder  encode.Encoder
	logger   *zap.Logger
	out      io.Writer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithOutput sets where human-readable progress lines are written.
// Defaults to io.Discard.
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) {
		if w != nil {
			p.out = w
		}
	}
}

// NewPipeline returns a Pipeline using r for PDF to TIFF and e for TIFF to
// WEBP.
func NewPipeline(r render.Renderer, e encode.Encoder, opts ...Option) *Pipeline {
	p := &Pipeline{
		renderer: r,
		encoder:  e,
		logger:   zap.NewNop(),
		out:      io.Discard,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Convert brings doc into target. Every target goes through TIFF first;
// WEBP then re-encodes each TIFF page. Produced files are appended to
// doc.Files and the elapsed time to doc.ConversionDuration.
func (p *Pipeline) Convert(ctx context.Context, doc *types.Document, target types.DocType, opts Options) (Result, error) {
	if !target.IsDefined() {
		return Result{}, ErrNoTargetFormat
	}

	if doc.DocType == target {
		fmt.Fprintf(p.out, "Target format ('%s') matches the current document type. Nothing to do.\n", target)
		return Result{Skipped: true}, nil
	}

	if !target.IsRasterTarget() {
		return Result{}, fmt.Errorf("unsupported target format %q: supported formats are %v", target, types.SupportedTargetNames())
	}
	if doc.DocType != types.DocPDF {
		return Result{}, fmt.Errorf("%w: %s (%s)", ErrUnsupportedSource, doc.Filename, doc.DocType)
	}
	if target == types.DocWEBP {
		if err := opts.Encode.Validate(); err != nil {
			return Result{}, err
		}
	}

	var result Result
	if err := p.renderTIFF(ctx, doc, opts, &result); err != nil {
		return result, err
	}

	if target != types.DocWEBP {
		return result, nil
	}

	if err := p.encodeWEBP(ctx, doc, opts, &result); err != nil {
		return result, err
	}

	if !opts.KeepIntermediate {
		p.removeIntermediates(doc)
	}
	return result, nil
}

func (p *Pipeline) renderTIFF(ctx context.Context, doc *types.Document, opts Options, result *Result) error {
	log := p.logger.With(zap.String("source", doc.Path), zap.String("renderer", p.renderer.Name()))
	log.Debug("rendering pdf", zap.Int("dpi", opts.Render.DPI), zap.Int("threads", opts.Render.Threads))

	start := time.Now()
	pages, err := p.renderer.Render(ctx, doc.Path, doc.ImageDir, opts.Render)
	if err != nil {
		log.Error("render failed", zap.Error(err))
		return fmt.Errorf("rendering %s: %w", doc.Filename, err)
	}
	elapsed := time.Since(start)

	doc.AddFiles(pages...)
	doc.ConversionDuration = elapsed
	result.Pages = len(pages)

	fmt.Fprintf(p.out, "%s: conversion took %0.6f seconds (%d pages)\n", p.renderer.Name(), elapsed.Seconds(), len(pages))
	log.Info("rendered pdf", zap.Int("pages", len(pages)), zap.Duration("elapsed", elapsed))
	return nil
}

// encodeWEBP encodes every TIFF on the document. A failed page is reported
// and skipped so the remaining pages still convert.
func (p *Pipeline) encodeWEBP(ctx context.Context, doc *types.Document, opts Options, result *Result) error {
	log := p.logger.With(zap.String("source", doc.Path), zap.String("encoder", p.encoder.Name()))

	var errs []error
	for _, tiff := range doc.TIFFs() {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		out, err := p.encoder.Encode(ctx, tiff, doc.ImageDir, opts.Encode)
		if err != nil {
			fmt.Fprintf(p.out, "  %s: unable to convert '%s': %v\n", p.encoder.Name(), filepath.Base(tiff), err)
			log.Warn("encode failed", zap.String("page", tiff), zap.Error(err))
			result.FailedPages = append(result.FailedPages, tiff)
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(tiff), err))
			continue
		}
		elapsed := time.Since(start)

		doc.AddFiles(out)
		doc.ConversionDuration += elapsed
		result.Encoded++

		fmt.Fprintf(p.out, "  %s: %s -> webp in %0.3f seconds (lossless=%t quality=%d%%)\n",
			p.encoder.Name(), filepath.Base(tiff), elapsed.Seconds(), opts.Encode.Lossless, opts.Encode.Quality)
		log.Debug("encoded page", zap.String("page", out), zap.Duration("elapsed", elapsed))
	}

	if len(errs) > 0 && result.Encoded == 0 {
		return fmt.Errorf("%w: %w", ErrEncodeFailed, errors.Join(errs...))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %d of %d pages: %w",
			ErrPartialConversion, len(errs), len(errs)+result.Encoded, errors.Join(errs...))
	}
	return nil
}

// removeIntermediates deletes TIFF pages from disk and from doc.Files.
func (p *Pipeline) removeIntermediates(doc *types.Document) {
	kept := doc.Files[:0]
	for _, f := range doc.Files {
		if isTIFF(f) {
			if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
				p.logger.Warn("removing intermediate", zap.String("path", f), zap.Error(err))
				kept = append(kept, f)
			}
			continue
		}
		kept = append(kept, f)
	}
	doc.Files = kept
}

func isTIFF(path string) bool {
	t, _ := types.ParseDocType(filepath.Ext(path))
	return t == types.DocTIFF
}
