// Package internal holds the plumbing of pdfcropmargins: external program
// calls, and the PDF read/modify/write layer built on pdfcpu.
package internal

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
)

// gsCandidates lists the Ghostscript executable names tried per platform.
func gsCandidates() []string {
	if runtime.GOOS == "windows" {
		return []string{"gswin64c", "gswin32c", "gs"}
	}
	return []string{"gs"}
}

// FindGhostscript locates the Ghostscript executable. The PDFCROPMARGINS_GS
// environment variable overrides the search path lookup.
func FindGhostscript() (string, error) {
	if env := os.Getenv("PDFCROPMARGINS_GS"); env != "" {
		return env, nil
	}
	for _, name := range gsCandidates() {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("ghostscript executable not found (set PDFCROPMARGINS_GS to override)")
}

// RunGhostscript runs gs with the given arguments and returns its combined
// output. Ghostscript reports bounding boxes on stderr, so stdout and stderr
// are captured together.
func RunGhostscript(ctx context.Context, gsPath string, args ...string) ([]byte, error) {
	full := append([]string{"-dSAFER", "-dNOPAUSE", "-dBATCH", "-dQUIET"}, args...)
	cmd := exec.CommandContext(ctx, gsPath, full...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	slog.Debug("running ghostscript", "path", gsPath, "args", strings.Join(full, " "))
	if err := cmd.Run(); err != nil {
		return buf.Bytes(), fmt.Errorf("ghostscript failed: %w: %s", err, firstLines(buf.Bytes(), 4))
	}
	return buf.Bytes(), nil
}

// TempWorkDir creates a uniquely named scratch directory for intermediate
// files (rendered pages, repaired PDFs). The caller removes it when done.
func TempWorkDir() (string, error) {
	dir := filepath.Join(os.TempDir(), "pdfcropmargins-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating work dir: %w", err)
	}
	return dir, nil
}

// GhostscriptFix round-trips the input through the pdfwrite device into the
// work dir, repairing damaged cross-reference tables the way the original
// tool's --gsFix option does. Returns the path of the repaired copy.
func GhostscriptFix(ctx context.Context, gsPath, inPath, workDir string) (string, error) {
	out := filepath.Join(workDir, "fixed_"+filepath.Base(inPath))
	_, err := RunGhostscript(ctx, gsPath,
		"-sDEVICE=pdfwrite", "-o", out, inPath)
	if err != nil {
		return "", err
	}
	return out, nil
}

// LaunchViewer opens path with the given external viewer program and waits
// for it to exit.
func LaunchViewer(ctx context.Context, viewer, path string) error {
	cmd := exec.CommandContext(ctx, viewer, path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("viewer %q failed: %w", viewer, err)
	}
	return nil
}

func firstLines(b []byte, n int) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, " / ")
}
