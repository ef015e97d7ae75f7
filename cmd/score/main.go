package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"procurerisk/engine"
	"procurerisk/internal/tabular"
	"procurerisk/rules"
	"procurerisk/types"
)

func main() {
	var (
		input     = flag.String("input", "contracts.csv", "Cleaned contract dataset (CSV with header)")
		outDir    = flag.String("out", "./out", "Output directory for scored.csv and failures.csv")
		rulesFile = flag.String("rules", "", "Rule file (YAML); built-in defaults when empty")
		workers   = flag.Int("workers", 0, "Parallel scoring workers (0 = one per CPU)")
		strict    = flag.Bool("strict", false, "Exit non-zero if any record fails validation")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	_ = godotenv.Load()

	if err := run(logger, *input, *outDir, *rulesFile, *workers, *strict); err != nil {
		logger.Error("scoring failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, input, outDir, rulesFile string, workers int, strict bool) error {
	cfg := rules.DefaultConfig()
	if rulesFile != "" {
		var err error
		if cfg, err = rules.LoadConfig(rulesFile); err != nil {
			return err
		}
	}
	if workers > 0 {
		cfg.Scoring.Workers = workers
	}

	// Redis-backed denylists belong to the API; offline runs use static lists.
	ctx := context.Background()
	ruleSet, err := rules.BuildRuleSet(ctx, cfg, nil)
	if err != nil {
		return err
	}

	opts := engine.Options{
		MaxScore: cfg.Scoring.MaxScore,
		Tiers:    cfg.Thresholds.TierBoundaries,
		Workers:  cfg.Scoring.Workers,
	}
	if ruleSet.Denylist != nil {
		opts.Denylist = ruleSet.Denylist
	}
	eng, err := engine.New(ruleSet.Rules, opts)
	if err != nil {
		return err
	}

	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	raws, err := tabular.ReadRecords(f)
	if err != nil {
		return err
	}

	report, err := eng.Run(ctx, raws)
	if err != nil {
		return err
	}
	if err := tabular.WriteReport(outDir, report); err != nil {
		return err
	}

	for _, fail := range report.Failures {
		logger.Warn("record rejected",
			slog.Int("index", fail.Index),
			slog.String("contract_id", fail.ContractID),
			slog.String("field", fail.Field),
			slog.String("reason", fail.Reason),
		)
	}
	logger.Info("batch scored",
		slog.String("batch_id", report.BatchID),
		slog.Int("scored", len(report.Scored)),
		slog.Int("failed", len(report.Failures)),
		slog.Int("low", report.Tiers[types.TierLow]),
		slog.Int("medium", report.Tiers[types.TierMedium]),
		slog.Int("high", report.Tiers[types.TierHigh]),
		slog.String("out", outDir),
	)

	if strict && len(report.Failures) > 0 {
		return fmt.Errorf("%d of %d records failed validation", len(report.Failures), len(raws))
	}
	return nil
}
