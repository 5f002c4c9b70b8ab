package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/ledgerloom/ledgerloom/internal/ofx"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import financial transactions from OFX or QFX (Quicken) files exported
from your bank.

Examples:
  # Import single file
  ledgerloom import --user alice ~/Downloads/chase_jan_2024.qfx

  # Import all QFX files in a directory
  ledgerloom import --user alice ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	userID, err := requireUser()
	if err != nil {
		return err
	}

	// Expand globs and collect all files
	var allFiles []string
	for _, arg := range args {
		matches, globErr := filepath.Glob(arg)
		if globErr != nil {
			return fmt.Errorf("invalid pattern %s: %w", arg, globErr)
		}
		if len(matches) == 0 {
			// If no glob matches, check if it's a direct file
			if _, statErr := os.Stat(arg); statErr == nil {
				allFiles = append(allFiles, arg)
			} else {
				slog.Warn("No files found matching pattern", "pattern", arg)
			}
		} else {
			allFiles = append(allFiles, matches...)
		}
	}

	if len(allFiles) == 0 {
		return fmt.Errorf("no files found to import")
	}

	slog.Info("Importing OFX files...",
		"file_count", len(allFiles),
		"user", userID,
		"dry_run", dryRun)

	var allTransactions []model.Transaction
	seen := make(map[string]bool) // Dedupe by hash across files

	parser := ofx.NewParser()

	for _, filePath := range allFiles {
		slog.Info("Processing file", "file", filepath.Base(filePath))

		f, openErr := os.Open(filePath)
		if openErr != nil {
			slog.Error("Failed to open file", "file", filePath, "error", openErr)
			continue
		}

		transactions, parseErr := parser.ParseFile(ctx, f, userID)
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("Failed to close file", "file", filePath, "error", closeErr)
		}
		if parseErr != nil {
			slog.Error("Failed to parse OFX file", "file", filePath, "error", parseErr)
			continue
		}

		added := 0
		for _, tx := range transactions {
			if !seen[tx.Hash] {
				seen[tx.Hash] = true
				allTransactions = append(allTransactions, tx)
				added++
			}
		}
		slog.Info("Parsed file",
			"file", filepath.Base(filePath),
			"transactions", len(transactions),
			"new", added)
	}

	if len(allTransactions) == 0 {
		return fmt.Errorf("no transactions found in any file")
	}

	if dryRun {
		slog.Info("Dry run complete, nothing saved",
			"transactions", len(allTransactions))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("failed to close storage", "error", closeErr)
		}
	}()

	if err := store.SaveTransactions(ctx, allTransactions); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	slog.Info("Import complete",
		"transactions", len(allTransactions),
		"user", userID)

	return nil
}
