package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pdfcropmargins/app/pipeline"
	"pdfcropmargins/types"
)

const pollInterval = 1 * time.Second

// Watcher tracks the files of the source directory. A file is handed off for
// cropping only after it has been present and untouched for the monitoring
// window, so half-uploaded PDFs are never processed.
type Watcher struct {
	cfg types.WatchConfig

	fileMutex       sync.Mutex
	fileFirstSeen   map[string]time.Time
	filesProcessing map[string]bool
}

func NewWatcher(cfg types.WatchConfig) *Watcher {
	return &Watcher{
		cfg:             cfg,
		fileFirstSeen:   make(map[string]time.Time),
		filesProcessing: make(map[string]bool),
	}
}

func (w *Watcher) EnsureDirs() error {
	for _, dir := range []string{w.cfg.SourceDir, w.cfg.OutputDir, w.cfg.BadDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating watch directory %s: %w", dir, err)
		}
	}
	return nil
}

// WatchFiles polls the source directory and sends quiet PDF paths on
// fileChan until the context is cancelled.
func (w *Watcher) WatchFiles(ctx context.Context, fileChan chan<- string) {
	slog.Info("monitoring folder", "dir", w.cfg.SourceDir)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	defer slog.Debug("file watcher stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scan(ctx, fileChan)
		}
	}
}

func (w *Watcher) scan(ctx context.Context, fileChan chan<- string) {
	files, err := os.ReadDir(w.cfg.SourceDir)
	if err != nil {
		slog.Error("reading source directory", "error", err)
		return
	}

	currentFiles := make(map[string]bool)

	for _, file := range files {
		if file.IsDir() || !strings.EqualFold(filepath.Ext(file.Name()), ".pdf") {
			continue
		}

		filePath := filepath.Join(w.cfg.SourceDir, file.Name())
		currentFiles[filePath] = true

		w.fileMutex.Lock()
		if w.filesProcessing[filePath] {
			w.fileMutex.Unlock()
			continue
		}
		firstSeen, seen := w.fileFirstSeen[filePath]
		if !seen {
			w.fileFirstSeen[filePath] = time.Now()
			slog.Info("new file detected", "file", filePath)
			w.fileMutex.Unlock()
			continue
		}
		w.fileMutex.Unlock()

		if time.Since(firstSeen) <= w.cfg.MonitoringTime {
			continue
		}

		w.fileMutex.Lock()
		w.filesProcessing[filePath] = true
		w.fileMutex.Unlock()

		select {
		case fileChan <- filePath:
		case <-ctx.Done():
			return
		}
	}

	// Forget files that disappeared from the directory.
	w.fileMutex.Lock()
	for filePath := range w.fileFirstSeen {
		if !currentFiles[filePath] {
			delete(w.fileFirstSeen, filePath)
			delete(w.filesProcessing, filePath)
			slog.Debug("file removed from tracking", "file", filePath)
		}
	}
	w.fileMutex.Unlock()
}

// CropFiles consumes paths from fileChan, crops each through the standard
// pipeline, and sorts the source file into the output or bad directory.
func (w *Watcher) CropFiles(ctx context.Context, fileChan <-chan string, base types.Options) {
	defer slog.Debug("file processor stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case filePath, ok := <-fileChan:
			if !ok {
				return
			}
			w.cropOne(ctx, filePath, base)

			w.fileMutex.Lock()
			delete(w.filesProcessing, filePath)
			delete(w.fileFirstSeen, filePath)
			w.fileMutex.Unlock()
		}
	}
}

func (w *Watcher) cropOne(ctx context.Context, filePath string, base types.Options) {
	slog.Info("processing file", "file", filePath)

	opts := base
	opts.InputFile = filePath
	opts.OutputFile = w.destPath(w.cfg.OutputDir, filePath)
	opts.ModifyOriginal = false
	opts.Preview = ""
	opts.ServeAddr = ""

	if errs := opts.Validate(); len(errs) > 0 {
		slog.Error("invalid options for file", "file", filePath, "errors", errs)
		w.moveToBad(filePath)
		return
	}

	if _, err := pipeline.ProcessFile(ctx, &opts); err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("cropping failed", "file", filePath, "error", err)
		w.moveToBad(filePath)
		return
	}

	slog.Info("cropped", "file", filePath, "output", opts.OutputFile)
	if err := os.Remove(filePath); err != nil {
		slog.Error("removing source file", "file", filePath, "error", err)
	}
}

func (w *Watcher) moveToBad(filePath string) {
	destPath := w.destPath(w.cfg.BadDir, filePath)
	if err := moveFile(filePath, destPath); err != nil {
		slog.Error("moving file to bad dir", "file", filePath, "error", err)
		return
	}
	slog.Info("file moved to bad dir", "dest", destPath)
}

// destPath places the file under a dated subdirectory of dir, appending a
// counter on name conflicts.
func (w *Watcher) destPath(dir, filePath string) string {
	destDir := filepath.Join(dir, time.Now().Format("2006-01-02"))
	if err := os.MkdirAll(destDir, 0755); err != nil {
		slog.Error("creating directory", "dir", destDir, "error", err)
		return filepath.Join(dir, filepath.Base(filePath))
	}

	destPath := filepath.Join(destDir, filepath.Base(filePath))
	counter := 1
	for {
		if _, err := os.Stat(destPath); os.IsNotExist(err) {
			return destPath
		}
		ext := filepath.Ext(filePath)
		baseName := strings.TrimSuffix(filepath.Base(filePath), ext)
		destPath = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", baseName, counter, ext))
		counter++
	}
}

// moveFile copies then removes, so it works across filesystems.
func moveFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	in.Close()
	return os.Remove(src)
}
