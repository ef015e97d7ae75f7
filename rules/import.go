package rules

import (
	"context"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"procurerisk/types"
	"procurerisk/util"
)

type Config struct {
	Thresholds Thresholds         `yaml:"thresholds"`
	Scoring    ScoringConfig      `yaml:"scoring"`
	Rules      []types.RuleConfig `yaml:"rules"`
	Services   ServicesConfig     `yaml:"services"`
}

// Thresholds are shared by the rules that need them. They are reasonable
// defaults, not calibrated values.
type Thresholds struct {
	LowBidderThreshold     int                  `yaml:"low_bidder_threshold"`
	CostVarianceThreshold  float64              `yaml:"cost_variance_threshold"`
	ConcentrationThreshold float64              `yaml:"concentration_threshold"`
	TierBoundaries         types.TierBoundaries `yaml:"tier_boundaries"`
}

type ScoringConfig struct {
	MaxScore int `yaml:"max_score"`
	Workers  int `yaml:"workers"`
}

type ServicesConfig struct {
	Redis RedisConfig `yaml:"redis"`
	Nats  NatsConfig  `yaml:"nats"`
}

type NatsConfig struct {
	Url     string     `yaml:"url"`
	Subject string     `yaml:"subject"`
	MinTier types.Tier `yaml:"min_tier"`
	Enabled bool       `yaml:"enabled"`
}

type RedisConfig struct {
	Host    string `yaml:"host"`
	Enabled bool   `yaml:"enabled"`
}

// RuleSet is a parsed rule file: the rules in declaration order and, when
// vendorDenylist is configured, the list backing it.
type RuleSet struct {
	Rules    []util.NamedRule
	Denylist *VendorDenylist
}

// DefaultConfig returns a fresh copy of the built-in configuration. Its rules
// read only canonical fields; rules over portal passthrough columns and the
// vendor denylist are enabled from the rule file.
func DefaultConfig() Config {
	return Config{
		Thresholds: Thresholds{
			LowBidderThreshold:     2,
			CostVarianceThreshold:  0.20,
			ConcentrationThreshold: 0.50,
			TierBoundaries:         types.TierBoundaries{LowMax: 29, MediumMax: 60},
		},
		Scoring: ScoringConfig{MaxScore: 100},
		Rules: []types.RuleConfig{
			{Name: util.Rules.LowCompetition},
			{Name: util.Rules.NonCompetitiveMethod},
			{Name: util.Rules.CostVariance},
			{Name: util.Rules.VendorConcentration},
			{Name: util.Rules.IncompleteDisclosure},
			{Name: util.Rules.AggressiveUnderbid},
		},
		Services: ServicesConfig{
			Nats: NatsConfig{Subject: util.AlertSubject, MinTier: types.TierHigh},
		},
	}
}

// LoadConfig reads a YAML rule file over DefaultConfig. A rules list in the
// file replaces the default list entirely.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// BuildRuleSet validates the thresholds and turns every configured rule into
// a NamedRule. redisClient is only needed by a redis-backed vendorDenylist.
func BuildRuleSet(ctx context.Context, cfg Config, redisClient *redis.Client) (RuleSet, error) {
	var set RuleSet
	if err := validateThresholds(cfg.Thresholds); err != nil {
		return set, err
	}
	if err := validateServices(cfg.Services); err != nil {
		return set, err
	}

	th := cfg.Thresholds
	for _, rawRule := range cfg.Rules {
		var (
			rule util.NamedRule
			err  error
		)
		switch rawRule.Name {
		case util.Rules.LowCompetition:
			rule, err = parseLowCompetitionRule(rawRule.Params, th)
		case util.Rules.NonCompetitiveMethod:
			rule, err = parseNonCompetitiveMethodRule(rawRule.Params)
		case util.Rules.CostVariance:
			rule, err = parseCostVarianceRule(rawRule.Params, th)
		case util.Rules.VendorConcentration:
			rule, err = parseVendorConcentrationRule(rawRule.Params, th)
		case util.Rules.IncompleteDisclosure:
			rule, err = parseIncompleteDisclosureRule(rawRule.Params)
		case util.Rules.AggressiveUnderbid:
			rule, err = parseAggressiveUnderbidRule(rawRule.Params)
		case util.Rules.LimitedCompetition:
			rule, err = parseLimitedCompetitionRule(rawRule.Params, th)
		case util.Rules.HighValueMethod:
			rule, err = parseHighValueMethodRule(rawRule.Params)
		case util.Rules.ShortFormDuration:
			rule, err = parseShortFormDurationRule(rawRule.Params)
		case util.Rules.RedFlagEntity:
			rule, err = parseRedFlagEntityRule(rawRule.Params)
		case util.Rules.BlacklistedVendor:
			rule, err = parseBlacklistedContractorRule(rawRule.Params)
		case util.Rules.PaymentDiscrepancy:
			rule, err = parsePaymentDiscrepancyRule(rawRule.Params)
		case util.Rules.PaymentVariance:
			rule, err = parsePaymentVarianceRule(rawRule.Params)
		case util.Rules.CompletionAnomaly:
			rule, err = parseCompletionAnomalyRule(rawRule.Params)
		case util.Rules.VendorDenylist:
			var list *VendorDenylist
			rule, list, err = parseDenylistRule(ctx, rawRule.Params, redisClient)
			set.Denylist = list
		default:
			err = &types.ConfigurationError{Rule: rawRule.Name, Reason: "unknown rule"}
		}
		if err != nil {
			return RuleSet{}, err
		}
		set.Rules = append(set.Rules, rule)
	}
	return set, nil
}

func validateThresholds(th Thresholds) error {
	switch {
	case th.LowBidderThreshold < 0:
		return &types.ConfigurationError{Reason: "low_bidder_threshold must not be negative"}
	case th.CostVarianceThreshold <= 0:
		return &types.ConfigurationError{Reason: "cost_variance_threshold must be positive"}
	case th.ConcentrationThreshold <= 0 || th.ConcentrationThreshold > 1:
		return &types.ConfigurationError{Reason: "concentration_threshold must be in (0, 1]"}
	}
	return nil
}

// validateServices rejects an alert tier that no contract could match, which
// would otherwise rank below low and alert on everything.
func validateServices(svc ServicesConfig) error {
	nats := svc.Nats
	if (nats.Enabled || nats.MinTier != "") && nats.MinTier.Rank() == 0 {
		return &types.ConfigurationError{Reason: fmt.Sprintf("services.nats.min_tier %q is not one of low, medium, high", nats.MinTier)}
	}
	return nil
}

// weightOr returns the configured weight or def, rejecting negatives.
func weightOr(rule string, configured *int, def int) (int, error) {
	if configured == nil {
		return def, nil
	}
	if *configured < 0 {
		return 0, &types.ConfigurationError{Rule: rule, Reason: "weight must not be negative"}
	}
	return *configured, nil
}

// decodeParams maps a rule's inline YAML params onto out. Unknown keys are
// rejected so a typo cannot silently fall back to a default.
func decodeParams(rule string, raw map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return &types.ConfigurationError{Rule: rule, Reason: err.Error()}
	}
	return nil
}
