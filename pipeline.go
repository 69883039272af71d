package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"comic-market-watch/config"
	"comic-market-watch/metrics"
	"comic-market-watch/models"
	"comic-market-watch/scraper/ebay"
	"comic-market-watch/services"
	"comic-market-watch/storage"
	"comic-market-watch/utils"
)

type pipelineOptions struct {
	input  string
	dryRun bool
	now    func() time.Time
}

// runPipeline executes fetch → analyze → render once.
//
// Analysis failures are reported on out and end the run without touching the
// previous outputs. Fetch and write errors are returned unrecovered.
func runPipeline(ctx context.Context, cfg *config.Config, opts pipelineOptions, out io.Writer, logger *utils.Logger) error {
	if opts.now == nil {
		opts.now = time.Now
	}

	logger.Info("=== Comic Market Watch starting ===")

	var (
		raw models.RawResponse
		err error
	)
	if opts.input != "" {
		logger.Info("[main] Reading saved response from %s", opts.input)
		raw, err = ebay.ReadFile(opts.input)
	} else {
		raw, err = ebay.New(cfg, logger, ebay.WithClock(opts.now)).Fetch(ctx)
	}
	if err != nil {
		return err
	}

	insightSvc := services.NewInsightService(cfg.Report, logger)
	report, err := insightSvc.Analyze(raw)
	if errors.Is(err, services.ErrNoData) || errors.Is(err, services.ErrNoValidPrices) {
		logger.Warn("[main] Nothing to publish: %v", err)
		fmt.Fprintln(out, "Error:", err)
		return nil
	}
	if err != nil {
		return err
	}

	if opts.dryRun {
		insightSvc.Print(out, report)
		logger.Info("[main] Dry run, %s and %s left untouched", cfg.Render.HTMLPath, cfg.Render.RSSPath)
		return nil
	}

	htmlWriter, err := storage.NewHTMLWriter(cfg.Render.HTMLPath, cfg.Render.HTMLEscape)
	if err != nil {
		return err
	}
	writers := []storage.ReportWriter{
		htmlWriter,
		storage.NewRSSWriter(cfg.Render.RSSPath, cfg.Feed, storage.WithClock(opts.now)),
	}
	for _, w := range writers {
		if err := w.Write(report); err != nil {
			return err
		}
		logger.Info("[main] Wrote %s", w.Path())
	}

	if cfg.MetricsFile != "" {
		m := metrics.New()
		m.Observe(report)
		m.MarkSuccess(opts.now())
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			// The report is already published; metrics are best effort.
			logger.Warn("[main] %v", err)
		} else {
			logger.Debug("[main] Metrics written to %s", cfg.MetricsFile)
		}
	}

	fmt.Fprintln(out, "Report and RSS feed updated.")
	return nil
}
