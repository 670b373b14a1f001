// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/pdfraster/internal/convert"
	"github.com/pdiddy/pdfraster/internal/encode"
	"github.com/pdiddy/pdfraster/internal/fetch"
	"github.com/pdiddy/pdfraster/internal/history"
	"github.com/pdiddy/pdfraster/internal/publish"
	"github.com/pdiddy/pdfraster/internal/render"
	"github.com/pdiddy/pdfraster/internal/secrets"
	"github.com/pdiddy/pdfraster/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [pdfs...]",
	Short: "Convert PDF files to TIFF or WEBP page images",
	Long: `Convert renders every page of each PDF into a TIFF image and, for the
webp format, re-encodes each page as WEBP. Sources may be local paths or
http(s) URLs; remote PDFs are downloaded into the fetch work directory first.

Renderers: poppler (pdftoppm), ghostscript (gs), mupdf (in-process).
Encoders: libwebp (in-process), vips (libvips).

With --record each run is logged to the history database. With --upload the
produced images are copied to the configured S3 bucket.`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().IntP("dpi", "d", cliDPI, "set conversion DPI")
	convertCmd.Flags().StringP("format", "f", string(types.DefaultTarget), "conversion format: pdf, tif, or webp")
	convertCmd.Flags().BoolP("lossless", "l", cliLossless, "create a lossless representation")
	convertCmd.Flags().IntP("quality", "q", types.DefaultQuality, "quality factor [0, 100], compression effort [0, 100] if lossless")
	convertCmd.Flags().IntP("threads", "t", types.DefaultThreads, "number of concurrent render workers")
	convertCmd.Flags().StringP("image-dir", "o", "", "directory for page images (default: next to each PDF)")
	convertCmd.Flags().String("renderer", string(types.RenderPoppler), "PDF renderer: poppler, ghostscript, or mupdf")
	convertCmd.Flags().String("encoder", string(types.EncodeLibwebp), "WEBP encoder: libwebp or vips")
	convertCmd.Flags().Bool("keep-intermediate", true, "keep TIFF pages after WEBP conversion")
	convertCmd.Flags().Bool("upload", false, "upload produced images to the configured S3 bucket")
	convertCmd.Flags().Bool("record", false, "record each conversion in the history database")

	bindFlags := map[string]string{
		"tif.dpi":                    "dpi",
		"tif.threads":                "threads",
		"tif.backend":                "renderer",
		"webp.quality":               "quality",
		"webp.lossless":              "lossless",
		"webp.backend":               "encoder",
		"defaults.format":            "format",
		"defaults.image_dir":         "image-dir",
		"defaults.keep_intermediate": "keep-intermediate",
	}
	for key, flag := range bindFlags {
		if err := viper.BindPFlag(key, convertCmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more PDF files or URLs")
	}

	cfg, err := loadPipelineConfig(viper.GetViper())
	if err != nil {
		return err
	}
	secrets.ApplyStorage(&cfg.Storage, loadedSecrets)

	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	target := resolveFormat(string(cfg.Defaults.Format), out)
	opts := conversionOptions(cfg)

	printSettings(out, opts, target)
	if target == types.DocWEBP {
		if err := opts.Encode.Validate(); err != nil {
			return err
		}
	}

	renderer, err := render.New(cfg.TIFF.Backend)
	if err != nil {
		return err
	}
	encoder, err := encode.New(cfg.WEBP.Backend)
	if err != nil {
		return err
	}

	paths, fetchFailed := resolveSources(ctx, cfg.Fetch, args, out)

	var hooks []convert.Hook
	record, _ := cmd.Flags().GetBool("record")
	if record {
		store, err := history.NewStore(cfg.History)
		if err != nil {
			return err
		}
		defer store.Close()
		hooks = append(hooks, recordHook(store, target, opts, renderer.Name(), encoder.Name()))
	}

	uploadFailed := 0
	upload, _ := cmd.Flags().GetBool("upload")
	if upload {
		pub, err := publish.NewMinio(ctx, cfg.Storage, logger)
		if err != nil {
			return err
		}
		hooks = append(hooks, uploadHook(pub, out, &uploadFailed))
	}

	pipeline := convert.NewPipeline(renderer, encoder,
		convert.WithLogger(logger),
		convert.WithOutput(out),
	)
	result := convert.ConvertBatch(ctx, pipeline, paths, cfg.Defaults.ImageDir, target, opts, out, hooks...)

	for _, doc := range result.Documents {
		fmt.Fprintln(out)
		fmt.Fprintln(out, doc.Status())
	}

	failed := result.Failed + fetchFailed
	if failed > 0 {
		return fmt.Errorf("%d document(s) failed conversion", failed)
	}
	if uploadFailed > 0 {
		return fmt.Errorf("%d document(s) failed upload", uploadFailed)
	}
	return nil
}

// resolveSources downloads remote sources and returns local paths. Failed
// downloads are reported to w and counted.
func resolveSources(ctx context.Context, cfg types.FetchConfig, args []string, w io.Writer) ([]string, int) {
	fetcher := fetch.New(&http.Client{Timeout: cfg.Timeout}, cfg)

	paths := make([]string, 0, len(args))
	failed := 0
	for _, src := range args {
		p, err := fetcher.Resolve(ctx, src, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", src, err)
			logger.Error("fetch failed", zap.String("source", src), zap.Error(err))
			failed++
			continue
		}
		paths = append(paths, p)
	}
	return paths, failed
}

// recordHook logs every attempted document to the history store.
func recordHook(store *history.Store, target types.DocType, opts convert.Options, renderer, encoder string) convert.Hook {
	return func(ctx context.Context, o convert.Outcome) {
		run := history.RunFromOutcome(o, target, opts, renderer, encoder)
		id, err := store.Record(ctx, run)
		if err != nil {
			logger.Warn("recording run", zap.String("source", run.Source), zap.Error(err))
			return
		}
		logger.Debug("recorded run", zap.String("id", id), zap.String("status", string(run.Status)))
	}
}

// uploadHook publishes the images of each successfully converted document.
func uploadHook(pub *publish.Publisher, w io.Writer, failed *int) convert.Hook {
	return func(ctx context.Context, o convert.Outcome) {
		if o.Err != nil || o.Result.Skipped {
			return
		}
		urls, err := pub.Publish(ctx, o.Document)
		if err != nil {
			fmt.Fprintf(w, "upload failed: %s (%v)\n", o.Document.Filename, err)
			*failed++
			return
		}
		for _, u := range urls {
			fmt.Fprintf(w, "uploaded: %s\n", u)
		}
	}
}
