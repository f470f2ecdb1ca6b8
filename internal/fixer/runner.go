package fixer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tsfix/internal/domain"
	"tsfix/internal/journal"
	"tsfix/internal/metrics"
)

// ErrFileNotFound is returned when a path handed to Run does not exist.
var ErrFileNotFound = errors.New("file not found")

// Outcome reports what Run did to one file.
type Outcome struct {
	Path    string
	Fixer   string
	Changes int
	Skipped int
	Written bool
}

// RunnerConfig holds the dependencies for a Runner. Journal may be nil.
type RunnerConfig struct {
	Registry *Registry
	Journal  domain.Journal
	DryRun   bool
	Logger   *slog.Logger
}

// Runner reads a file, applies a fixer, and writes the result back once.
type Runner struct {
	registry *Registry
	journal  domain.Journal
	dryRun   bool
	logger   *slog.Logger
}

func NewRunner(cfg RunnerConfig) *Runner {
	return &Runner{
		registry: cfg.Registry,
		journal:  cfg.Journal,
		dryRun:   cfg.DryRun,
		logger:   cfg.Logger,
	}
}

// Run applies the named fixer to path. The file is rewritten only when the
// content changed and the runner is not in dry-run mode.
func (r *Runner) Run(ctx context.Context, name, path string) (Outcome, error) {
	out := Outcome{Path: path, Fixer: name}

	f, err := r.registry.Lookup(name)
	if err != nil {
		return out, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return out, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return out, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return out, fmt.Errorf("%s is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("read %s: %w", path, err)
	}
	original := string(data)

	start := time.Now()
	res := f.Fix(original)
	metrics.FileLatency.Observe(time.Since(start).Seconds())
	metrics.FilesProcessed.Inc()
	metrics.LastRun.Set(time.Now().Unix())
	metrics.Changes(name).Add(int64(res.Changes))
	metrics.Skipped(name).Add(int64(res.Skipped))

	out.Changes = res.Changes
	out.Skipped = res.Skipped

	if res.Skipped > 0 {
		r.logger.Debug("sites skipped", "path", path, "fixer", name, "skipped", res.Skipped)
	}
	if !res.Changed(original) {
		return out, nil
	}
	if r.dryRun {
		r.logger.Info("dry run, not writing", "path", path, "fixer", name, "changes", res.Changes)
		return out, nil
	}

	if r.journal != nil {
		err := r.journal.Record(ctx, domain.JournalEntry{
			Path:       JournalKey(path),
			Fixer:      name,
			Changes:    res.Changes,
			Skipped:    res.Skipped,
			Original:   original,
			ResultHash: journal.HashContent(res.Content),
		})
		if err != nil {
			return out, fmt.Errorf("journal %s: %w", path, err)
		}
	}

	if err := os.WriteFile(path, []byte(res.Content), info.Mode().Perm()); err != nil {
		return out, fmt.Errorf("write %s: %w", path, err)
	}
	metrics.FilesWritten.Inc()
	out.Written = true
	r.logger.Debug("file rewritten", "path", path, "fixer", name, "changes", res.Changes)
	return out, nil
}

// JournalKey is the path under which runs on path are journaled.
func JournalKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
