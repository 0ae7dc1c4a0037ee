package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pdfcropmargins/types"
)

func testConfig(t *testing.T) types.WatchConfig {
	base := t.TempDir()
	return types.WatchConfig{
		SourceDir:      filepath.Join(base, "in"),
		OutputDir:      filepath.Join(base, "out"),
		BadDir:         filepath.Join(base, "bad"),
		MonitoringTime: 10 * time.Millisecond,
	}
}

func TestEnsureDirs(t *testing.T) {
	cfg := testConfig(t)
	w := NewWatcher(cfg)
	if err := w.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	for _, dir := range []string{cfg.SourceDir, cfg.OutputDir, cfg.BadDir} {
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			t.Errorf("directory %s not created", dir)
		}
	}
}

func TestDestPathDatedAndConflictFree(t *testing.T) {
	cfg := testConfig(t)
	w := NewWatcher(cfg)

	first := w.destPath(cfg.OutputDir, "report.pdf")
	wantDir := filepath.Join(cfg.OutputDir, time.Now().Format("2006-01-02"))
	if filepath.Dir(first) != wantDir {
		t.Errorf("destPath dir = %s, want %s", filepath.Dir(first), wantDir)
	}
	if filepath.Base(first) != "report.pdf" {
		t.Errorf("destPath base = %s, want report.pdf", filepath.Base(first))
	}

	if err := os.WriteFile(first, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	second := w.destPath(cfg.OutputDir, "report.pdf")
	if second == first {
		t.Error("destPath returned a conflicting path")
	}
	if !strings.HasPrefix(filepath.Base(second), "report_") {
		t.Errorf("conflict name %s should carry a counter", filepath.Base(second))
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.pdf")
	dst := filepath.Join(dir, "b.pdf")
	if err := os.WriteFile(src, []byte("content"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := moveFile(src, dst); err != nil {
		t.Fatalf("moveFile: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source still exists after move")
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "content" {
		t.Errorf("destination content = %q, err %v", data, err)
	}
}
