// Package service implements the directory batch mode: watch a source
// directory, crop every PDF dropped into it once the file has gone quiet,
// and sort the results into an output or a bad directory.
package service

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"pdfcropmargins/types"
)

const shutdownTimeout = 5 * time.Second

type Service struct {
	logger  *slog.Logger
	opts    types.Options
	watcher *Watcher
}

func New(cfg types.WatchConfig, opts *types.Options) *Service {
	return &Service{
		logger:  slog.Default(),
		opts:    *opts,
		watcher: NewWatcher(cfg),
	}
}

func (s *Service) Stop() {
	s.logger.Info("watch service stopped")
}

// Run watches until the context is cancelled or a shutdown signal arrives,
// then waits for in-flight crops with a timeout.
func (s *Service) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	if err := s.watcher.EnsureDirs(); err != nil {
		return err
	}

	fileChan := make(chan string, 10)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(fileChan)
		s.watcher.WatchFiles(ctx, fileChan)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.watcher.CropFiles(ctx, fileChan, s.opts)
	}()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigch)

	select {
	case <-sigch:
		s.logger.Info("received shutdown signal, shutting down gracefully")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("all workers stopped")
	case <-shutdownCtx.Done():
		s.logger.Warn("timeout waiting for workers, forcing shutdown")
	}

	s.Stop()
	return nil
}
