package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"tsfix/internal/config"
	"tsfix/internal/domain"
	"tsfix/internal/fixer"
	"tsfix/internal/journal"
	"tsfix/internal/metrics"
	"tsfix/internal/scan"

	"github.com/spf13/cobra"
)

func addToolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "addtool <filepath>...",
		Short: "Rewrite this.addTool({...}) blocks into this.registerTool(...) calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(w, "Usage: tsfix addtool <filepath>")
				return nil
			}
			return runFix(cmd.Context(), "addtool", args, func(cfg *config.Config, out fixer.Outcome) {
				if dryRun {
					fmt.Fprintf(w, "Would fix: %s (%d blocks)\n", out.Path, out.Changes)
					return
				}
				fmt.Fprintf(w, "Fixed: %s\n", out.Path)
			})
		},
	}
}

func typesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types <server-file>...",
		Short: "Add generic type parameters to createToolHandler calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(w, "Usage: tsfix types <server-file>")
				return &exitError{code: 1}
			}
			for _, p := range args {
				if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
					fmt.Fprintf(w, "File not found: %s\n", p)
					return &exitError{code: 1}
				}
			}
			return runFix(cmd.Context(), "types", args, func(cfg *config.Config, out fixer.Outcome) {
				reportTypes(w, cfg, out)
			})
		},
	}
}

func reportTypes(w io.Writer, cfg *config.Config, out fixer.Outcome) {
	base := filepath.Base(out.Path)
	switch {
	case out.Changes == 0:
		fmt.Fprintf(w, "✨ No changes needed in %s\n", base)
	case dryRun:
		fmt.Fprintf(w, "🔍 Would fix %d %s calls in %s\n", out.Changes, cfg.Types.Wrapper, base)
	default:
		fmt.Fprintf(w, "✅ Fixed %d %s calls in %s\n", out.Changes, cfg.Types.Wrapper, base)
	}
}

// runFix expands args into files and applies the named fixer to each in turn,
// calling report after every file.
func runFix(ctx context.Context, name string, args []string, report func(*config.Config, fixer.Outcome)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	files, err := scan.Expand(args, scan.Options{
		Extensions: cfg.Scan.Extensions,
		Ignore:     cfg.Scan.Ignore,
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Warn("no matching source files", "paths", args)
		return nil
	}

	// The journal only adds undo history; a broken one never blocks a rewrite.
	var j domain.Journal
	if cfg.Journal.Enabled && !noJournal && !dryRun {
		store, err := openJournal(ctx, cfg)
		if err != nil {
			logger.Warn("journal unavailable, continuing without undo history", "path", cfg.Journal.DBPath, "err", err)
		} else {
			defer store.Close()
			j = store
		}
	}

	runner := fixer.NewRunner(fixer.RunnerConfig{
		Registry: buildRegistry(cfg),
		Journal:  j,
		DryRun:   dryRun,
		Logger:   logger,
	})

	defer writeMetrics()

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := runner.Run(ctx, name, f)
		if err != nil {
			return err
		}
		logger.Debug("processed", "path", f, "fixer", name, "changes", out.Changes, "skipped", out.Skipped, "written", out.Written)
		report(cfg, out)
	}
	return nil
}

// openJournal opens the run journal and prunes runs past the retention window.
func openJournal(ctx context.Context, cfg *config.Config) (*journal.SQLiteStore, error) {
	store, err := journal.Open(cfg.Journal.DBPath, logger)
	if err != nil {
		return nil, err
	}
	if n, err := store.Prune(ctx, cfg.Journal.RetentionDays); err != nil {
		logger.Warn("journal prune failed", "err", err)
	} else if n > 0 {
		logger.Debug("pruned journal", "rows", n, "retentionDays", cfg.Journal.RetentionDays)
	}
	return store, nil
}

func writeMetrics() {
	if metricsOut == "" {
		return
	}
	if err := metrics.Collector.WriteFile(metricsOut); err != nil {
		logger.Error("cannot write metrics", "path", metricsOut, "err", err)
		return
	}
	logger.Debug("metrics written", "path", metricsOut)
}
