// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Document holds a source file and everything produced while converting it:
// the directory images are written to, the produced file paths in the order
// they were created, and the accumulated conversion time.
type Document struct {
	// Path is the absolute path of the source document.
	Path string `json:"path" yaml:"path"`

	// ImageDir is the absolute directory converted images are written to.
	ImageDir string `json:"image_dir" yaml:"image_dir"`

	// Filename is the base name of the source document.
	Filename string `json:"filename" yaml:"filename"`

	// DocType is the lower-cased extension of the source document.
	DocType DocType `json:"doc_type" yaml:"doc_type"`

	// Files lists produced images (intermediate and final) in creation order.
	Files []string `json:"files" yaml:"files"`

	// ConversionDuration is the total time spent rendering and encoding.
	ConversionDuration time.Duration `json:"conversion_duration" yaml:"conversion_duration"`
}

// NewDocument builds a Document for the file at path. Images go to
// conversionDir, or next to the source when conversionDir is empty.
func NewDocument(path, conversionDir string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	imageDir := filepath.Dir(abs)
	if conversionDir != "" {
		imageDir, err = filepath.Abs(conversionDir)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", conversionDir, err)
		}
	}

	name := filepath.Base(abs)
	return &Document{
		Path:     abs,
		ImageDir: imageDir,
		Filename: name,
		DocType:  DocType(extension(name)),
	}, nil
}

// Stem returns the source filename without its extension.
func (d *Document) Stem() string {
	return strings.TrimSuffix(d.Filename, filepath.Ext(d.Filename))
}

// AddFiles appends produced file paths.
func (d *Document) AddFiles(paths ...string) {
	d.Files = append(d.Files, paths...)
}

// FilesOfType returns the produced files whose name ends in the extension t.
func (d *Document) FilesOfType(t DocType) []string {
	var out []string
	suffix := strings.ToLower(string(t))
	for _, f := range d.Files {
		if strings.HasSuffix(strings.ToLower(f), suffix) {
			out = append(out, f)
		}
	}
	return out
}

// TIFFs returns the produced TIFF images.
func (d *Document) TIFFs() []string { return d.FilesOfType(DocTIFF) }

// WEBPs returns the produced WEBP images.
func (d *Document) WEBPs() []string { return d.FilesOfType(DocWEBP) }

// FormatTypes lists the distinct formats the document now exists in: the
// extensions of produced files (sorted) followed by the source extension.
func (d *Document) FormatTypes() []string {
	seen := make(map[string]bool)
	var formats []string
	for _, f := range d.Files {
		ext := extension(f)
		if !seen[ext] {
			seen[ext] = true
			formats = append(formats, ext)
		}
	}
	sort.Strings(formats)
	return append(formats, extension(d.Filename))
}

// Status renders a human-readable summary of the conversion.
func (d *Document) Status() string {
	var b strings.Builder
	fmt.Fprintf(&b, "SOURCE DOCUMENT: %s\n", d.Path)
	fmt.Fprintf(&b, "LIST OF TIFFs:\n%s\n", formatList(d.TIFFs()))
	fmt.Fprintf(&b, "LIST OF WEBPs:\n%s\n", formatList(d.WEBPs()))
	fmt.Fprintf(&b, "CONVERSION DURATION: %0.4f seconds\n", d.ConversionDuration.Seconds())
	fmt.Fprintf(&b, "CREATED DOC FORMATS: %v\n", d.FormatTypes())
	return b.String()
}

func formatList(files []string) string {
	if len(files) == 0 {
		return "  (none)"
	}
	return "  " + strings.Join(files, "\n  ")
}

// extension returns the lower-cased text after the last dot in name.
func extension(name string) string {
	base := filepath.Base(name)
	i := strings.LastIndex(base, ".")
	if i < 0 {
		return strings.ToLower(base)
	}
	return strings.ToLower(base[i+1:])
}
