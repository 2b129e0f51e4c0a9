package graph

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrEngineMissing indicates the Graphviz layout engine is not installed
	ErrEngineMissing = errors.New("graphviz executable not found; install Graphviz and ensure it is on your PATH")

	// ErrExport indicates the layout engine ran but failed to produce the artifact
	ErrExport = errors.New("graph export failed")
)

// Export formats the layout engine can materialize.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
	FormatPDF = "pdf"
	FormatDOT = "dot"
)

// SupportedFormats lists the export formats in presentation order.
func SupportedFormats() []string {
	return []string{FormatPNG, FormatSVG, FormatPDF, FormatDOT}
}

// IsSupportedFormat reports whether the layout engine can produce format.
func IsSupportedFormat(format string) bool {
	switch format {
	case FormatPNG, FormatSVG, FormatPDF, FormatDOT:
		return true
	}
	return false
}

// Exporter renders models to artifacts through an external Graphviz layout
// engine. The zero value is not usable; construct with NewExporter.
type Exporter struct {
	engine string
}

// NewExporter creates an exporter that invokes the given engine binary.
// An empty engine defaults to "dot".
func NewExporter(engine string) *Exporter {
	if engine == "" {
		engine = "dot"
	}
	return &Exporter{engine: engine}
}

// Export lays out the model and writes the artifact derived from destPath:
// the destination keeps its directory and stem but always carries the
// format's extension. The returned path is the artifact actually written.
// On failure no artifact is left behind. Concurrent exports are safe; each
// run works through its own uniquely named intermediate file.
func (e *Exporter) Export(ctx context.Context, m *Model, destPath, format string) (string, error) {
	if !IsSupportedFormat(format) {
		return "", fmt.Errorf("%w: unsupported format %q (supported: %s)",
			ErrExport, format, strings.Join(SupportedFormats(), ", "))
	}

	engine, err := exec.LookPath(e.engine)
	if err != nil {
		return "", fmt.Errorf("%w (looked for %q)", ErrEngineMissing, e.engine)
	}

	artifact := replaceExt(destPath, "."+format)
	if dir := filepath.Dir(artifact); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("%w: %v", ErrExport, err)
		}
	}

	source := filepath.Join(filepath.Dir(artifact), ".pyscope-"+uuid.New().String()+".gv")
	if err := writeDOTFile(m, source); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExport, err)
	}
	defer os.Remove(source)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, engine, "-T"+format, "-o", artifact, source)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(artifact)
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: layout engine interrupted: %v", ErrExport, ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %v: %s", ErrExport, err, msg)
		}
		return "", fmt.Errorf("%w: %v", ErrExport, err)
	}

	return artifact, nil
}

func writeDOTFile(m *Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteDOT(m, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// replaceExt swaps a path's extension, treating a path without one as a
// bare stem.
func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
