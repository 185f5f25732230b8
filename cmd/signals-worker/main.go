package main

import (
	"context"
	"os"
	"time"

	"github.com/reena96/spendsense-sub001/internal/amqp"
	"github.com/reena96/spendsense-sub001/internal/cache"
	"github.com/reena96/spendsense-sub001/internal/cli"
	"github.com/reena96/spendsense-sub001/internal/signals"
	"github.com/reena96/spendsense-sub001/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting signals-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	ledger := cli.InitLedger(logger, cfg.SQLiteDBPath)
	defer ledger.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRequestQueue, cfg.AMQPResultQueue, cfg.PublishTimeout)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	var summaries *cache.SummaryCache
	if cfg.SummaryCacheSize > 0 {
		summaries = cache.NewSummaryCache(cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
	}

	summaryWorker := worker.NewSummaryWorker(signals.NewSummaryBuilder(ledger), amqpClient, summaries)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	go func() {
		if err := amqpClient.ConsumeSummaryRequests(ctx, summaryWorker.HandleSummaryRequest); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
			}
		}
	}()

	logger.Info("Worker ready",
		"queue", cfg.AMQPRequestQueue,
		"result_queue", cfg.AMQPResultQueue,
		"db_path", cfg.SQLiteDBPath)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
