package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/reena96/spendsense-sub001/internal/cli"
	"github.com/reena96/spendsense-sub001/internal/core"
	"github.com/reena96/spendsense-sub001/internal/signals"
)

func main() {
	userID := flag.String("user", "", "user id to summarize (required)")
	date := flag.String("date", "", "reference date as YYYY-MM-DD (default today)")
	pretty := flag.Bool("pretty", true, "indent the JSON output")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: spendsense -user <user_id> [-date YYYY-MM-DD]")
		os.Exit(2)
	}

	reference := core.Day(time.Now())
	if *date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", *date, time.UTC)
		if err != nil {
			logger.Error("Invalid reference date", "date", *date, "error", err)
			os.Exit(2)
		}
		reference = parsed
	}

	ledger := cli.InitLedger(logger, cfg.SQLiteDBPath)
	defer ledger.Close()

	builder := signals.NewSummaryBuilder(ledger)
	summary := builder.Build(context.Background(), *userID, reference)

	var (
		out []byte
		err error
	)
	if *pretty {
		out, err = json.MarshalIndent(summary.ToDict(), "", "  ")
	} else {
		out, err = json.Marshal(summary.ToDict())
	}
	if err != nil {
		logger.Error("Failed to marshal summary", "error", err)
		os.Exit(1)
	}

	fmt.Println(string(out))
}
