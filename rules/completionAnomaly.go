package rules

import (
	"fmt"

	"procurerisk/types"
	"procurerisk/util"
)

const (
	defaultStatusColumn   = "status"
	defaultProgressColumn = "percentageOfCompletion"
	defaultClosedWeight   = 15
	defaultStalledWeight  = 10
	defaultUnclosedWeight = 8
)

// CompletionThresholds are progress percentages (0-100) paired with a
// status from the source.
type CompletionThresholds struct {
	// ClosedBelow: marked completed with less progress than this.
	ClosedBelow float64
	// StalledBelow: delayed with less progress than this.
	StalledBelow float64
	// UnclosedAt: still in progress or delayed at this progress or more.
	UnclosedAt float64
}

type CompletionWeights struct {
	Closed   int
	Stalled  int
	Unclosed int
}

// CompletionAnomaly checks the reported status against the reported progress.
// The three conditions are mutually exclusive, so at most one fires.
func CompletionAnomaly(w CompletionWeights, th CompletionThresholds, statusColumn, progressColumn string) util.NamedRule {
	contribution := func(weight int, reason string) (types.Contribution, bool) {
		return types.Contribution{Rule: util.Rules.CompletionAnomaly, Weight: weight, Reason: reason}, true
	}

	return util.NamedRule{
		Name:   util.Rules.CompletionAnomaly,
		Weight: max(w.Closed, w.Stalled, w.Unclosed),
		Evaluate: func(record types.ContractRecord, _ *types.VendorAwardIndex) (types.Contribution, bool) {
			progress, ok := extraNumber(record, progressColumn)
			if !ok {
				return types.Contribution{}, false
			}
			pct := progress.InexactFloat64()

			switch status := extraLabel(record, statusColumn); {
			case status == "completed" && pct < th.ClosedBelow:
				return contribution(w.Closed, fmt.Sprintf("Marked completed with <%g%% progress", th.ClosedBelow))
			case status == "delayed" && pct < th.StalledBelow:
				return contribution(w.Stalled, fmt.Sprintf("Delayed with <%g%% progress", th.StalledBelow))
			case (status == "in-progress" || status == "delayed") && pct >= th.UnclosedAt:
				return contribution(w.Unclosed, "Near completion but not closed")
			}
			return types.Contribution{}, false
		},
	}
}

func parseCompletionAnomalyRule(raw map[string]interface{}) (util.NamedRule, error) {
	var params struct {
		ClosedWeight   *int     `mapstructure:"closed_weight"`
		StalledWeight  *int     `mapstructure:"stalled_weight"`
		UnclosedWeight *int     `mapstructure:"unclosed_weight"`
		ClosedBelow    *float64 `mapstructure:"closed_below"`
		StalledBelow   *float64 `mapstructure:"stalled_below"`
		UnclosedAt     *float64 `mapstructure:"unclosed_at"`
		StatusColumn   string   `mapstructure:"status_column"`
		ProgressColumn string   `mapstructure:"progress_column"`
	}
	name := util.Rules.CompletionAnomaly
	if err := decodeParams(name, raw, &params); err != nil {
		return util.NamedRule{}, err
	}

	var (
		w   CompletionWeights
		err error
	)
	if w.Closed, err = weightOr(name, params.ClosedWeight, defaultClosedWeight); err != nil {
		return util.NamedRule{}, err
	}
	if w.Stalled, err = weightOr(name, params.StalledWeight, defaultStalledWeight); err != nil {
		return util.NamedRule{}, err
	}
	if w.Unclosed, err = weightOr(name, params.UnclosedWeight, defaultUnclosedWeight); err != nil {
		return util.NamedRule{}, err
	}

	th := CompletionThresholds{ClosedBelow: 80, StalledBelow: 50, UnclosedAt: 95}
	if params.ClosedBelow != nil {
		th.ClosedBelow = *params.ClosedBelow
	}
	if params.StalledBelow != nil {
		th.StalledBelow = *params.StalledBelow
	}
	if params.UnclosedAt != nil {
		th.UnclosedAt = *params.UnclosedAt
	}
	for _, v := range []float64{th.ClosedBelow, th.StalledBelow, th.UnclosedAt} {
		if v <= 0 || v > 100 {
			return util.NamedRule{}, &types.ConfigurationError{Rule: name, Reason: "progress thresholds must be in (0, 100]"}
		}
	}
	if th.StalledBelow > th.UnclosedAt {
		return util.NamedRule{}, &types.ConfigurationError{Rule: name, Reason: "stalled_below must not exceed unclosed_at"}
	}

	return CompletionAnomaly(w, th,
		columnOr(params.StatusColumn, defaultStatusColumn),
		columnOr(params.ProgressColumn, defaultProgressColumn),
	), nil
}
