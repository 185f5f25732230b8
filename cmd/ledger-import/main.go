package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/reena96/spendsense-sub001/internal/cli"
	"github.com/reena96/spendsense-sub001/internal/ingest"
)

func main() {
	accountsPath := flag.String("accounts", "", "accounts CSV file")
	transactionsPath := flag.String("transactions", "", "transactions CSV file")
	liabilitiesPath := flag.String("liabilities", "", "liabilities CSV file")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	if *accountsPath == "" && *transactionsPath == "" && *liabilitiesPath == "" {
		fmt.Fprintln(os.Stderr, "usage: ledger-import [-accounts file] [-transactions file] [-liabilities file]")
		os.Exit(2)
	}

	ledger := cli.InitLedger(logger, cfg.SQLiteDBPath)
	defer ledger.Close()

	importer := ingest.NewImporter(ledger, cfg.ImportBatchSize)
	ctx := context.Background()

	// Accounts first: transactions and liabilities reference them.
	steps := []struct {
		name string
		path string
		fn   func(context.Context, io.Reader) (int, error)
	}{
		{"accounts", *accountsPath, importer.ImportAccounts},
		{"transactions", *transactionsPath, importer.ImportTransactions},
		{"liabilities", *liabilitiesPath, importer.ImportLiabilities},
	}

	for _, step := range steps {
		if step.path == "" {
			continue
		}
		f, err := os.Open(step.path)
		if err != nil {
			logger.Error("Failed to open file", "file", step.path, "error", err)
			os.Exit(1)
		}
		count, err := step.fn(ctx, f)
		f.Close()
		if err != nil {
			logger.Error("Import failed", "kind", step.name, "file", step.path, "error", err)
			os.Exit(1)
		}
		logger.Info("Import complete", "kind", step.name, "file", step.path, "rows_imported", count)
	}
}
