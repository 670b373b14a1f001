// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tool runs external command-line programs (pdftoppm, pdfinfo, gs)
// used by the rendering backends.
package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// ErrNotInstalled is returned when a tool binary cannot be found on PATH.
var ErrNotInstalled = errors.New("tool not installed")

// Tool is a single external program.
type Tool interface {
	// Name returns the binary name (e.g. "pdftoppm").
	Name() string

	// Available reports whether the binary exists on PATH.
	Available() bool

	// Output runs the tool with args and returns its stdout. A non-zero
	// exit is reported as an error that includes the tool's stderr.
	Output(ctx context.Context, args ...string) ([]byte, error)
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

type binary struct {
	bin  string
	exec executor
}

var defaultExec executor = &osExecutor{}

// New returns a Tool for the named binary.
func New(bin string) Tool {
	return newBinary(bin, defaultExec)
}

func newBinary(bin string, exec executor) *binary {
	return &binary{bin: bin, exec: exec}
}

func (b *binary) Name() string { return b.bin }

func (b *binary) Available() bool {
	_, err := b.exec.LookPath(b.bin)
	return err == nil
}

func (b *binary) Output(ctx context.Context, args ...string) ([]byte, error) {
	if !b.Available() {
		return nil, fmt.Errorf("%s: %w", b.bin, ErrNotInstalled)
	}

	var stdout, stderr bytes.Buffer
	if err := b.exec.Run(ctx, b.bin, args, &stdout, &stderr); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("running %s: %w", b.bin, ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("running %s: %w", b.bin, err)
		}
		return nil, fmt.Errorf("running %s: %w: %s", b.bin, err, msg)
	}
	return stdout.Bytes(), nil
}
