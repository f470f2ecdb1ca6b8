package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"tsfix/internal/config"
	"tsfix/internal/journal"
	"tsfix/internal/rules"

	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your tsfix setup",
		Long: `Verifies that tsfix's configuration, journal database, and rule packs
are correctly set up. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("tsfix doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config file exists and validates
			var cfg *config.Config
			if _, err := os.Stat(cfgPath); err != nil {
				printWarn("Config file", fmt.Sprintf("not found at %s, using defaults", cfgPath))
				warned++
				cfg = defaultConfig()
			} else {
				printPass("Config file", cfgPath)
				passed++

				loaded, err := config.Load(cfgPath)
				if err != nil {
					printFail("Config validation", err.Error())
					failed++
					fmt.Printf("\n%d passed, %d failed\n", passed, failed)
					return fmt.Errorf("%d check(s) failed", failed)
				}
				printPass("Config validation", "valid")
				passed++
				cfg = loaded
			}

			// 2. Rewrite identifiers
			for _, id := range []struct{ name, value string }{
				{"addtool.oldMethod", cfg.AddTool.OldMethod},
				{"addtool.newMethod", cfg.AddTool.NewMethod},
				{"types.method", cfg.Types.Method},
				{"types.wrapper", cfg.Types.Wrapper},
			} {
				if config.IsIdentifier(id.value) {
					printPass(id.name, id.value)
					passed++
				} else {
					printFail(id.name, fmt.Sprintf("%q is not an identifier", id.value))
					failed++
				}
			}

			// 3. Journal writable
			if !cfg.Journal.Enabled {
				printWarn("Journal", "disabled; rewrites cannot be undone")
				warned++
			} else if err := checkJournal(cfg.Journal.DBPath); err != nil {
				printFail("Journal", err.Error())
				failed++
			} else {
				printPass("Journal", cfg.Journal.DBPath)
				passed++
			}

			// 4. Rule packs
			if cfg.General.RulesDir == "" {
				printWarn("Rule packs", "no rules directory configured")
				warned++
			} else if _, err := os.Stat(cfg.General.RulesDir); errors.Is(err, os.ErrNotExist) {
				printWarn("Rule packs", fmt.Sprintf("directory %s does not exist", cfg.General.RulesDir))
				warned++
			} else {
				packs, err := rules.LoadFromDirectory(cfg.General.RulesDir, logger)
				if err != nil {
					printFail("Rule packs", err.Error())
					failed++
				} else {
					printPass("Rule packs", fmt.Sprintf("%d loaded from %s", len(packs), cfg.General.RulesDir))
					passed++
				}
			}

			// 5. Fixers
			reg := buildRegistry(cfg)
			for _, name := range reg.Names() {
				printPass("Fixer: "+name, reg.Get(name).Description())
				passed++
			}

			// Summary
			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before running tsfix.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\ntsfix should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed! tsfix is ready to run.\n")
			}
			return nil
		},
	}
}

// checkJournal opens the journal (creating it if needed) and pings it.
func checkJournal(dbPath string) error {
	store, err := journal.Open(dbPath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("cannot ping: %w", err)
	}
	if _, err := store.List(ctx, 1); err != nil {
		return fmt.Errorf("not readable: %w", err)
	}
	return nil
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
