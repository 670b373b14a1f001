//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert renders every PDF in pdfs/ to WEBP pages under images/.
func Convert() error {
	mg.Deps(Build, Init)

	pdfs, err := filepath.Glob(filepath.Join(pdfDir, "*.pdf"))
	if err != nil {
		return err
	}
	if len(pdfs) == 0 {
		fmt.Printf("[convert] No PDFs in %s/.\n", pdfDir)
		return nil
	}

	args := append([]string{"convert", "--image-dir", imageDir, "--record"}, pdfs...)
	return sh.RunV(filepath.Join(binDir, binName), args...)
}
