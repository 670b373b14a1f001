// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pdiddy/pdfraster/pkg/types"
)

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int

	// Documents holds every document that was attempted, in input order.
	Documents []*types.Document
}

// Total returns the total number of documents processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any document failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Outcome is the per-document report passed to a batch hook.
type Outcome struct {
	Document *types.Document
	Result   Result
	Err      error
}

// Hook observes each document after it has been converted.
type Hook func(ctx context.Context, o Outcome)

// ConvertBatch converts each path into target, writing images to imageDir
// (or next to each source when empty). It continues after individual
// failures, printing per-file status to w and returning a summary.
func ConvertBatch(ctx context.Context, p *Pipeline, paths []string, imageDir string, target types.DocType, opts Options, w io.Writer, hooks ...Hook) BatchResult {
	var result BatchResult
	for _, path := range paths {
		if ctx.Err() != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", path, ctx.Err())
			result.Failed++
			continue
		}

		doc, err := types.NewDocument(path, imageDir)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", path, err)
			result.Failed++
			continue
		}
		result.Documents = append(result.Documents, doc)

		res, err := p.Convert(ctx, doc, target, opts)
		for _, h := range hooks {
			h(ctx, Outcome{Document: doc, Result: res, Err: err})
		}

		switch {
		case err != nil && errors.Is(err, ErrPartialConversion):
			fmt.Fprintf(w, "partial: %s (%d of %d pages failed)\n",
				doc.Filename, len(res.FailedPages), len(res.FailedPages)+res.Encoded)
			result.Failed++
		case err != nil:
			fmt.Fprintf(w, "failed:  %s (%v)\n", doc.Filename, err)
			result.Failed++
		case res.Skipped:
			fmt.Fprintf(w, "skipped: %s (already %s)\n", doc.Filename, target)
			result.Skipped++
		default:
			fmt.Fprintf(w, "converted: %s (%d files)\n", doc.Filename, len(doc.Files))
			result.Converted++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}
