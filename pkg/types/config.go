// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

const (
	// DefaultDPI is the render resolution used when none is configured.
	DefaultDPI = 200

	// DefaultThreads is the number of concurrent render workers.
	DefaultThreads = 4

	// DefaultQuality is the WEBP quality (lossy) or effort (lossless).
	DefaultQuality = 90

	// DefaultLossless is the encoder's own default when no setting is given.
	DefaultLossless = true

	// DefaultTarget is the conversion format used by the CLI.
	DefaultTarget = DocWEBP
)

// HTTPConfig holds shared HTTP settings used when fetching remote sources.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// RenderBackend identifies the PDF-to-TIFF renderer.
type RenderBackend string

const (
	RenderPoppler     RenderBackend = "poppler"
	RenderGhostscript RenderBackend = "ghostscript"
	RenderMuPDF       RenderBackend = "mupdf"
)

// EncodeBackend identifies the TIFF-to-WEBP encoder.
type EncodeBackend string

const (
	EncodeLibwebp EncodeBackend = "libwebp"
	EncodeVips    EncodeBackend = "vips"
)

// RenderConfig holds settings for rendering PDF pages to TIFF.
type RenderConfig struct {
	// Backend selects the renderer: poppler, ghostscript, or mupdf.
	Backend RenderBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// DPI is the render resolution in dots per inch.
	DPI int `json:"dpi" yaml:"dpi" mapstructure:"dpi"`

	// Threads is the number of concurrent render workers.
	Threads int `json:"threads" yaml:"threads" mapstructure:"threads"`
}

// EncodeConfig holds settings for re-encoding TIFF pages as WEBP.
type EncodeConfig struct {
	// Backend selects the encoder: libwebp or vips.
	Backend EncodeBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Quality is 0-100. Lossy: visual quality. Lossless: compression effort.
	Quality int `json:"quality" yaml:"quality" mapstructure:"quality"`

	// Lossless selects lossless encoding.
	Lossless bool `json:"lossless" yaml:"lossless" mapstructure:"lossless"`
}

// ConversionConfig holds the application-level conversion defaults.
type ConversionConfig struct {
	// Format is the target format: tif or webp.
	Format DocType `json:"format" yaml:"format" mapstructure:"format"`

	// ImageDir is where images are written; empty means next to the source.
	ImageDir string `json:"image_dir" yaml:"image_dir" mapstructure:"image_dir"`

	// KeepIntermediate keeps the TIFF pages after a WEBP conversion.
	KeepIntermediate bool `json:"keep_intermediate" yaml:"keep_intermediate" mapstructure:"keep_intermediate"`
}

// StorageConfig holds S3-compatible object storage settings for uploads.
type StorageConfig struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	Bucket    string `json:"bucket" yaml:"bucket" mapstructure:"bucket"`
	Region    string `json:"region" yaml:"region" mapstructure:"region"`
	Prefix    string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
	AccessKey string `json:"access_key,omitempty" yaml:"access_key,omitempty" mapstructure:"access_key"`
	SecretKey string `json:"secret_key,omitempty" yaml:"secret_key,omitempty" mapstructure:"secret_key"`
	Secure    bool   `json:"secure" yaml:"secure" mapstructure:"secure"`
}

// IsZero reports whether no endpoint or bucket is configured.
func (c StorageConfig) IsZero() bool {
	return c.Endpoint == "" || c.Bucket == ""
}

// HistoryConfig holds settings for the conversion history database.
type HistoryConfig struct {
	// Dir is the directory holding history.db.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default number of runs listed (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// FetchConfig holds settings for downloading remote PDFs.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// WorkDir is where downloaded PDFs are stored.
	WorkDir string `json:"work_dir" yaml:"work_dir" mapstructure:"work_dir"`

	// MaxRetries bounds retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// PipelineConfig groups every section of the configuration file. The
// defaults, tif, and webp sections mirror the layout of the defaults file.
type PipelineConfig struct {
	Defaults ConversionConfig `json:"defaults" yaml:"defaults" mapstructure:"defaults"`
	TIFF     RenderConfig     `json:"tif" yaml:"tif" mapstructure:"tif"`
	WEBP     EncodeConfig     `json:"webp" yaml:"webp" mapstructure:"webp"`
	Storage  StorageConfig    `json:"storage" yaml:"storage" mapstructure:"storage"`
	History  HistoryConfig    `json:"history" yaml:"history" mapstructure:"history"`
	Fetch    FetchConfig      `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
}

// DefaultPipelineConfig returns the built-in configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Defaults: ConversionConfig{
			Format:           DefaultTarget,
			KeepIntermediate: true,
		},
		TIFF: RenderConfig{
			Backend: RenderPoppler,
			DPI:     DefaultDPI,
			Threads: DefaultThreads,
		},
		WEBP: EncodeConfig{
			Backend:  EncodeLibwebp,
			Quality:  DefaultQuality,
			Lossless: false,
		},
		Storage: StorageConfig{
			Secure: true,
		},
		History: HistoryConfig{
			Dir:        ".pdfraster",
			MaxResults: 20,
		},
		Fetch: FetchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   60 * time.Second,
				UserAgent: "pdfraster/0.1",
			},
			WorkDir:    "pdfs",
			MaxRetries: 5,
		},
	}
}
