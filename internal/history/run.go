// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"errors"

	"github.com/pdiddy/pdfraster/internal/convert"
	"github.com/pdiddy/pdfraster/pkg/types"
)

// RunFromOutcome builds a Run from a batch outcome and the settings used.
func RunFromOutcome(o convert.Outcome, target types.DocType, opts convert.Options, renderer, encoder string) Run {
	run := Run{
		Source:   o.Document.Path,
		Target:   target,
		Renderer: renderer,
		DPI:      opts.Render.DPI,
		Duration: o.Document.ConversionDuration,
		Files:    append([]string(nil), o.Document.Files...),
	}
	if target == types.DocWEBP {
		run.Encoder = encoder
		run.Quality = opts.Encode.Quality
		run.Lossless = opts.Encode.Lossless
	}

	switch {
	case o.Err != nil && errors.Is(o.Err, convert.ErrPartialConversion):
		run.Status = StatusPartial
		run.Error = o.Err.Error()
	case o.Err != nil:
		run.Status = StatusFailed
		run.Error = o.Err.Error()
	case o.Result.Skipped:
		run.Status = StatusSkipped
	default:
		run.Status = StatusConverted
	}
	return run
}
