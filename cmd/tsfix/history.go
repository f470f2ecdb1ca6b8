package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/tabwriter"

	"tsfix/internal/fixer"
	"tsfix/internal/journal"

	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent rewrites recorded in the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, err := journal.Open(cfg.Journal.DBPath, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list journal: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println("No runs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIME\tFIXER\tCHANGES\tPATH")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
					e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Fixer, e.Changes, e.Path)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}

func undoCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "undo <file>",
		Short: "Restore a file to its content before the last tsfix rewrite",
		Long: `Restores the original content recorded by the most recent run on the file.
Refuses when the file was edited after that run, unless --force is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, err := journal.Open(cfg.Journal.DBPath, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			path := fixer.JournalKey(args[0])
			entry, err := store.Latest(ctx, path)
			if errors.Is(err, journal.ErrNoEntry) {
				return fmt.Errorf("nothing to undo for %s", args[0])
			}
			if err != nil {
				return err
			}

			mode := fs.FileMode(0o644)
			current, err := os.ReadFile(path)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				if !force {
					return fmt.Errorf("%s no longer exists (use --force to recreate it)", args[0])
				}
			case err != nil:
				return fmt.Errorf("read %s: %w", path, err)
			default:
				if journal.HashContent(string(current)) != entry.ResultHash && !force {
					return fmt.Errorf("%s was modified after the %s run (use --force to overwrite)", args[0], entry.Fixer)
				}
				if info, err := os.Stat(path); err == nil {
					mode = info.Mode().Perm()
				}
			}

			if dryRun {
				fmt.Printf("Would restore: %s (%s, %d changes)\n", args[0], entry.Fixer, entry.Changes)
				return nil
			}
			if err := os.WriteFile(path, []byte(entry.Original), mode); err != nil {
				return fmt.Errorf("restore %s: %w", path, err)
			}
			if err := store.Delete(ctx, entry.ID); err != nil {
				logger.Warn("restored but could not remove journal entry", "id", entry.ID, "err", err)
			}
			fmt.Printf("Restored: %s (%s, %d changes undone)\n", args[0], entry.Fixer, entry.Changes)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "restore even if the file changed since the run")
	return cmd
}
