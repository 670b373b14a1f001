// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/pdfraster/internal/convert"
	"github.com/pdiddy/pdfraster/internal/encode"
	"github.com/pdiddy/pdfraster/internal/render"
	"github.com/pdiddy/pdfraster/pkg/types"
)

// CLI defaults that differ from the library defaults.
const (
	cliDPI      = 100
	cliLossless = false
)

// cliDefaults returns the configuration used when no file, environment
// variable, or flag overrides a value.
func cliDefaults() types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()
	cfg.TIFF.DPI = cliDPI
	cfg.WEBP.Lossless = cliLossless
	return cfg
}

// setConfigDefaults registers every configuration key with v so that
// environment variables and Unmarshal see the full key set.
func setConfigDefaults(v *viper.Viper) {
	d := cliDefaults()

	v.SetDefault("defaults.format", string(d.Defaults.Format))
	v.SetDefault("defaults.image_dir", d.Defaults.ImageDir)
	v.SetDefault("defaults.keep_intermediate", d.Defaults.KeepIntermediate)

	v.SetDefault("tif.backend", string(d.TIFF.Backend))
	v.SetDefault("tif.dpi", d.TIFF.DPI)
	v.SetDefault("tif.threads", d.TIFF.Threads)

	v.SetDefault("webp.backend", string(d.WEBP.Backend))
	v.SetDefault("webp.quality", d.WEBP.Quality)
	v.SetDefault("webp.lossless", d.WEBP.Lossless)

	v.SetDefault("storage.endpoint", d.Storage.Endpoint)
	v.SetDefault("storage.bucket", d.Storage.Bucket)
	v.SetDefault("storage.region", d.Storage.Region)
	v.SetDefault("storage.prefix", d.Storage.Prefix)
	v.SetDefault("storage.access_key", d.Storage.AccessKey)
	v.SetDefault("storage.secret_key", d.Storage.SecretKey)
	v.SetDefault("storage.secure", d.Storage.Secure)

	v.SetDefault("history.dir", d.History.Dir)
	v.SetDefault("history.max_results", d.History.MaxResults)

	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)
	v.SetDefault("fetch.work_dir", d.Fetch.WorkDir)
	v.SetDefault("fetch.max_retries", d.Fetch.MaxRetries)
}

// loadPipelineConfig decodes every section from v.
func loadPipelineConfig(v *viper.Viper) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

// resolveFormat parses a requested target format. An unrecognized value
// prints a warning to w and falls back to the default target.
func resolveFormat(raw string, w io.Writer) types.DocType {
	t, ok := types.ParseDocType(raw)
	if ok {
		return t
	}
	fmt.Fprintf(w, "WARNING: Unrecognized conversion format: '%s' -- Supported formats: %s\n"+
		"\t Using the default format: '%s'\n\n",
		strings.ToLower(raw), strings.Join(supportedFormatNames(), ", "), types.DefaultTarget)
	return types.DefaultTarget
}

// supportedFormatNames lists every format name accepted by --format.
func supportedFormatNames() []string {
	return []string{string(types.DocPDF), string(types.DocTIFF), string(types.DocWEBP)}
}

// conversionOptions maps configuration sections onto pipeline options,
// replacing unset or negative values with the stage defaults.
func conversionOptions(cfg types.PipelineConfig) convert.Options {
	return convert.Options{
		Render: render.Options{
			DPI:     cfg.TIFF.DPI,
			Threads: cfg.TIFF.Threads,
		}.Normalize(),
		Encode: encode.Options{
			Quality:  cfg.WEBP.Quality,
			Lossless: cfg.WEBP.Lossless,
		}.Normalize(),
		KeepIntermediate: cfg.Defaults.KeepIntermediate,
	}
}

// printSettings writes the settings a conversion runs with.
func printSettings(w io.Writer, opts convert.Options, target types.DocType) {
	fmt.Fprintf(w, "DPI: %d  Quality: %d  Lossless? %t\n", opts.Render.DPI, opts.Encode.Quality, opts.Encode.Lossless)
	fmt.Fprintf(w, "Conversion Format: %s\n", target)
}
