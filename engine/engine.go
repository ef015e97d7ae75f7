// Package engine scores normalized contract records against an ordered rule
// set.
//
// A batch runs in two phases. The vendor award index (and the denylist
// snapshot it carries) is built from every valid record first; only then are
// records scored, in parallel, against that frozen index.
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"procurerisk/normalize"
	"procurerisk/types"
	"procurerisk/util"
)

// DenylistSource supplies the debarred vendors for one batch.
type DenylistSource interface {
	Vendors(ctx context.Context) ([]string, error)
}

type Options struct {
	MaxScore int
	Tiers    types.TierBoundaries
	// Workers bounds parallel scoring in Run. Zero means runtime.NumCPU().
	Workers  int
	Schema   normalize.Schema
	Denylist DenylistSource
}

type Engine struct {
	rules    []util.NamedRule
	maxScore int
	tiers    types.TierBoundaries
	workers  int
	schema   normalize.Schema
	denylist DenylistSource
}

// New validates the rule set and options. The returned engine is immutable
// and safe for concurrent use.
func New(ruleSet []util.NamedRule, opts Options) (*Engine, error) {
	if len(ruleSet) == 0 {
		return nil, &types.ConfigurationError{Reason: "rule set is empty"}
	}

	seen := make(map[string]bool, len(ruleSet))
	for _, r := range ruleSet {
		switch {
		case r.Name == "":
			return nil, &types.ConfigurationError{Reason: "rule with empty name"}
		case seen[r.Name]:
			return nil, &types.ConfigurationError{Rule: r.Name, Reason: "duplicate rule name"}
		case r.Weight < 0:
			return nil, &types.ConfigurationError{Rule: r.Name, Reason: "weight must not be negative"}
		case r.Evaluate == nil:
			return nil, &types.ConfigurationError{Rule: r.Name, Reason: "rule has no predicate"}
		}
		seen[r.Name] = true
	}

	if opts.MaxScore <= 0 {
		return nil, &types.ConfigurationError{Reason: "max_score must be positive"}
	}
	t := opts.Tiers
	if t.LowMax < 0 || t.MediumMax <= t.LowMax || t.MediumMax >= opts.MaxScore {
		return nil, &types.ConfigurationError{Reason: fmt.Sprintf("tier boundaries must satisfy 0 <= low_max < medium_max < max_score, got %d/%d/%d", t.LowMax, t.MediumMax, opts.MaxScore)}
	}

	workers := opts.Workers
	if workers < 0 {
		return nil, &types.ConfigurationError{Reason: "workers must not be negative"}
	}
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	schema := opts.Schema
	if schema.Aliases == nil && schema.DateLayouts == nil {
		schema = normalize.DefaultSchema()
	}

	return &Engine{
		rules:    append([]util.NamedRule(nil), ruleSet...),
		maxScore: opts.MaxScore,
		tiers:    t,
		workers:  workers,
		schema:   schema,
		denylist: opts.Denylist,
	}, nil
}

// Rules returns the rule names and base weights in evaluation order.
func (e *Engine) Rules() []types.Contribution {
	out := make([]types.Contribution, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, types.Contribution{Rule: r.Name, Weight: r.Weight})
	}
	return out
}

func (e *Engine) Tiers() types.TierBoundaries {
	return e.tiers
}

// Score evaluates every rule against record in declaration order. index may
// be nil when there is no batch context; rules that need it abstain.
func (e *Engine) Score(record types.ContractRecord, index *types.VendorAwardIndex) types.ScoredContract {
	contributions := make([]types.Contribution, 0, len(e.rules))
	for _, r := range e.rules {
		if c, ok := r.Evaluate(record, index); ok {
			contributions = append(contributions, c)
		}
	}

	score, reasons := util.CalculateRisk(contributions, e.maxScore)
	return types.ScoredContract{
		ContractID:    record.ContractID,
		RiskScore:     score,
		RiskReasons:   reasons,
		RiskTier:      e.tiers.TierFor(score),
		Contributions: contributions,
		Record:        record,
	}
}

// Run normalizes, indexes and scores one batch of raw records. Records that
// fail validation are reported in Failures and the rest are still scored.
// Scored keeps input order. The only error is a failed denylist fetch.
func (e *Engine) Run(ctx context.Context, raws []map[string]interface{}) (*types.BatchReport, error) {
	report := &types.BatchReport{
		BatchID:  uuid.NewString(),
		Failures: []types.RecordFailure{},
		Tiers:    map[types.Tier]int{types.TierLow: 0, types.TierMedium: 0, types.TierHigh: 0},
	}

	records := make([]types.ContractRecord, 0, len(raws))
	for i, res := range normalize.Batch(raws, e.schema) {
		if res.Err != nil {
			report.Failures = append(report.Failures, failure(i, raws[i], res.Err, e.schema))
			continue
		}
		records = append(records, res.Record)
	}

	var denylisted []string
	if e.denylist != nil {
		var err error
		if denylisted, err = e.denylist.Vendors(ctx); err != nil {
			return nil, err
		}
	}

	index := types.NewVendorAwardIndex(records, denylisted)
	report.Scored = e.ScoreAll(records, index)
	for _, s := range report.Scored {
		report.Tiers[s.RiskTier]++
	}
	return report, nil
}

// ScoreAll scores records concurrently against a frozen index and returns
// results in input order.
func (e *Engine) ScoreAll(records []types.ContractRecord, index *types.VendorAwardIndex) []types.ScoredContract {
	scored := make([]types.ScoredContract, len(records))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(e.workers, len(records)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				scored[i] = e.Score(records[i], index)
			}
		}()
	}

	for i := range records {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return scored
}

func failure(i int, raw map[string]interface{}, err error, schema normalize.Schema) types.RecordFailure {
	f := types.RecordFailure{Index: i, Field: "record", Reason: err.Error()}
	var vErr *types.ValidationError
	if errors.As(err, &vErr) {
		f.Field = vErr.Field
		f.Reason = vErr.Reason
	}
	if id, ok := normalize.ContractID(raw, schema); ok {
		f.ContractID = id
	}
	return f
}
