package rules

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurerisk/normalize"
	"procurerisk/types"
	"procurerisk/util"
)

func record(bidders *int, method types.ProcurementMethod, estimate, awarded int64) types.ContractRecord {
	rec := types.ContractRecord{
		ContractID:        "T-1",
		Agency:            "Roads",
		Vendor:            "Acme",
		ProcurementMethod: method,
		BidderCount:       bidders,
		AwardedCost:       decimal.NewFromInt(awarded),
	}
	if estimate > 0 {
		rec.EstimatedCost = decimal.NewNullDecimal(decimal.NewFromInt(estimate))
	}
	return rec
}

func count(n int) *int {
	return &n
}

func TestLowCompetition(t *testing.T) {
	rule := LowCompetition(25, 2)

	c, ok := rule.Evaluate(record(count(1), types.MethodOpen, 0, 1), nil)
	require.True(t, ok)
	assert.Equal(t, types.Contribution{Rule: util.Rules.LowCompetition, Weight: 25, Reason: "Single/low bidder award"}, c)

	_, ok = rule.Evaluate(record(count(2), types.MethodOpen, 0, 1), nil)
	assert.False(t, ok)

	_, ok = rule.Evaluate(record(nil, types.MethodOpen, 0, 1), nil)
	assert.False(t, ok, "undisclosed bidder count must abstain")
}

func TestNonCompetitiveMethod(t *testing.T) {
	rule := NonCompetitiveMethod(20)

	for method, want := range map[types.ProcurementMethod]bool{
		types.MethodDirect:  true,
		types.MethodLimited: true,
		types.MethodOpen:    false,
		types.MethodUnknown: false,
	} {
		_, ok := rule.Evaluate(record(count(3), method, 0, 1), nil)
		assert.Equal(t, want, ok, string(method))
	}
}

func TestCostVarianceScalesWithOverrun(t *testing.T) {
	rule := CostVariance(20, 40, 0.20)

	cases := []struct {
		awarded int64
		weight  int
		reason  string
	}{
		{awarded: 121000, weight: 21, reason: "Award cost exceeds estimate by 21%"},
		{awarded: 125000, weight: 25, reason: "Award cost exceeds estimate by 25%"},
		{awarded: 180000, weight: 40, reason: "Award cost exceeds estimate by 80%"},
		{awarded: 500000, weight: 40, reason: "Award cost exceeds estimate by 400%"},
	}
	for _, tc := range cases {
		c, ok := rule.Evaluate(record(count(3), types.MethodOpen, 100000, tc.awarded), nil)
		require.True(t, ok, tc.awarded)
		assert.Equal(t, tc.weight, c.Weight, tc.awarded)
		assert.Equal(t, tc.reason, c.Reason, tc.awarded)
	}

	_, ok := rule.Evaluate(record(count(3), types.MethodOpen, 100000, 120000), nil)
	assert.False(t, ok, "exactly at threshold does not trigger")

	_, ok = rule.Evaluate(record(count(3), types.MethodOpen, 0, 999999), nil)
	assert.False(t, ok, "missing estimate abstains")
}

func TestCostVarianceHugeOverrunStaysAtMaxWeight(t *testing.T) {
	rule := CostVariance(20, 40, 0.20)
	rec := record(count(3), types.MethodOpen, 1, 0)
	rec.AwardedCost = decimal.RequireFromString("100000000000000000000")

	c, ok := rule.Evaluate(rec, nil)
	require.True(t, ok)
	assert.Equal(t, 40, c.Weight)
	assert.Equal(t, "Award cost exceeds estimate by 10000000000000000000000%", c.Reason)
}

func TestAggressiveUnderbid(t *testing.T) {
	rule := AggressiveUnderbid(8, 0.20)

	c, ok := rule.Evaluate(record(count(3), types.MethodOpen, 100000, 60000), nil)
	require.True(t, ok)
	assert.Equal(t, 8, c.Weight)
	assert.Equal(t, "Award cost below estimate by 40%", c.Reason)

	_, ok = rule.Evaluate(record(count(3), types.MethodOpen, 100000, 85000), nil)
	assert.False(t, ok)
}

func TestIncompleteDisclosure(t *testing.T) {
	rule := IncompleteDisclosure(10, []string{normalize.FieldBidderCount, normalize.FieldEstimatedCost})

	_, ok := rule.Evaluate(record(count(3), types.MethodOpen, 100, 100), nil)
	assert.False(t, ok)

	c, ok := rule.Evaluate(record(nil, types.MethodOpen, 0, 100), nil)
	require.True(t, ok)
	assert.Equal(t, 10, c.Weight, "several missing fields still count once")
	assert.Equal(t, "Incomplete disclosure data", c.Reason)
}

func TestVendorConcentrationByValue(t *testing.T) {
	records := []types.ContractRecord{
		{ContractID: "1", Agency: "Roads", Vendor: "Acme", AwardedCost: decimal.NewFromInt(900)},
		{ContractID: "2", Agency: "Roads", Vendor: "Bolt", AwardedCost: decimal.NewFromInt(50)},
		{ContractID: "3", Agency: "Roads", Vendor: "Cura", AwardedCost: decimal.NewFromInt(50)},
	}
	index := types.NewVendorAwardIndex(records, nil)

	byValue := VendorConcentration(20, 0.5, types.ScopeAgency, types.BasisValue, 3)
	byCount := VendorConcentration(20, 0.5, types.ScopeAgency, types.BasisCount, 3)

	_, ok := byValue.Evaluate(records[0], index)
	assert.True(t, ok, "90% of value")
	_, ok = byCount.Evaluate(records[0], index)
	assert.False(t, ok, "a third of awards")

	_, ok = byValue.Evaluate(records[0], nil)
	assert.False(t, ok, "no batch context abstains")

	strict := VendorConcentration(20, 0.5, types.ScopeAgency, types.BasisValue, 4)
	_, ok = strict.Evaluate(records[0], index)
	assert.False(t, ok, "scope below min_scope_awards abstains")
}

func TestVendorDenylistRule(t *testing.T) {
	rule := VendorDenylistRule(30)
	index := types.NewVendorAwardIndex(nil, []string{"Shady  Supplies"})

	rec := record(count(3), types.MethodOpen, 0, 1)
	rec.Vendor = "shady supplies"
	c, ok := rule.Evaluate(rec, index)
	require.True(t, ok)
	assert.Equal(t, 30, c.Weight)

	rec.Vendor = "Acme"
	_, ok = rule.Evaluate(rec, index)
	assert.False(t, ok)

	rec.Vendor = types.Unknown
	_, ok = rule.Evaluate(rec, types.NewVendorAwardIndex(nil, []string{types.Unknown}))
	assert.False(t, ok, "undisclosed vendor is never denylisted")
}

func TestStaticDenylistCannotBeUpdated(t *testing.T) {
	list := NewStaticDenylist([]string{"B Corp", "a corp", "A  Corp", ""})

	vendors, err := list.Vendors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a corp", "b corp"}, vendors)
	assert.Equal(t, util.Sources.Static, list.Source())

	status, err := list.Update(context.Background(), "c corp", "add")
	assert.Error(t, err)
	assert.Equal(t, 400, status)

	status, err = list.Update(context.Background(), "c corp", "replace")
	assert.Error(t, err)
	assert.Equal(t, 400, status)
}

func TestBuildRuleSetDefaults(t *testing.T) {
	set, err := BuildRuleSet(context.Background(), DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Nil(t, set.Denylist)

	weights := map[string]int{}
	for _, r := range set.Rules {
		weights[r.Name] = r.Weight
	}
	assert.Equal(t, map[string]int{
		util.Rules.LowCompetition:       25,
		util.Rules.NonCompetitiveMethod: 20,
		util.Rules.CostVariance:         20,
		util.Rules.VendorConcentration:  20,
		util.Rules.IncompleteDisclosure: 10,
		util.Rules.AggressiveUnderbid:   8,
	}, weights)
}

func TestBuildRuleSetRejectsBadConfiguration(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown rule": func(c *Config) {
			c.Rules = append(c.Rules, types.RuleConfig{Name: "coinFlip"})
		},
		"negative weight": func(c *Config) {
			c.Rules = []types.RuleConfig{{Name: util.Rules.LowCompetition, Params: map[string]interface{}{"weight": -5}}}
		},
		"misspelled param": func(c *Config) {
			c.Rules = []types.RuleConfig{{Name: util.Rules.CostVariance, Params: map[string]interface{}{"wieght": 5}}}
		},
		"max weight below weight": func(c *Config) {
			c.Rules = []types.RuleConfig{{Name: util.Rules.CostVariance, Params: map[string]interface{}{"weight": 30, "max_weight": 10}}}
		},
		"invalid scope": func(c *Config) {
			c.Rules = []types.RuleConfig{{Name: util.Rules.VendorConcentration, Params: map[string]interface{}{"scope": "planet"}}}
		},
		"tiny scope": func(c *Config) {
			c.Rules = []types.RuleConfig{{Name: util.Rules.VendorConcentration, Params: map[string]interface{}{"min_scope_awards": 1}}}
		},
		"unknown disclosure field": func(c *Config) {
			c.Rules = []types.RuleConfig{{Name: util.Rules.IncompleteDisclosure, Params: map[string]interface{}{"fields": []interface{}{"colour"}}}}
		},
		"underbid threshold": func(c *Config) {
			c.Rules = []types.RuleConfig{{Name: util.Rules.AggressiveUnderbid, Params: map[string]interface{}{"threshold": 1.5}}}
		},
		"redis denylist without redis": func(c *Config) {
			c.Rules = []types.RuleConfig{{Name: util.Rules.VendorDenylist, Params: map[string]interface{}{"source": "redis"}}}
		},
		"bad denylist source": func(c *Config) {
			c.Rules = []types.RuleConfig{{Name: util.Rules.VendorDenylist, Params: map[string]interface{}{"source": "ldap"}}}
		},
		"misspelled alert tier": func(c *Config) {
			c.Services.Nats.MinTier = "hgh"
		},
		"alerts enabled without tier": func(c *Config) {
			c.Services.Nats.Enabled = true
			c.Services.Nats.MinTier = ""
		},
		"zero variance threshold": func(c *Config) {
			c.Thresholds.CostVarianceThreshold = 0
		},
		"concentration above one": func(c *Config) {
			c.Thresholds.ConcentrationThreshold = 1.5
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)

			_, err := BuildRuleSet(context.Background(), cfg, nil)
			var cfgErr *types.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr), "got %v", err)
		})
	}
}

func TestDefaultConfigIsFreshCopy(t *testing.T) {
	a := DefaultConfig()
	a.Rules[0].Name = "changed"
	a.Thresholds.LowBidderThreshold = 99

	b := DefaultConfig()
	assert.Equal(t, util.Rules.LowCompetition, b.Rules[0].Name)
	assert.Equal(t, 2, b.Thresholds.LowBidderThreshold)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
thresholds:
  low_bidder_threshold: 3
rules:
  - name: lowCompetition
    weight: 40
  - name: vendorDenylist
    vendors: ["Shady Supplies"]
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Thresholds.LowBidderThreshold)
	assert.Equal(t, 0.20, cfg.Thresholds.CostVarianceThreshold, "unset thresholds keep defaults")
	assert.Equal(t, 100, cfg.Scoring.MaxScore)

	set, err := BuildRuleSet(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Len(t, set.Rules, 2)
	assert.Equal(t, 40, set.Rules[0].Weight)

	_, ok := set.Rules[0].Evaluate(record(count(2), types.MethodOpen, 0, 1), nil)
	assert.True(t, ok, "two bidders is below a threshold of three")

	require.NotNil(t, set.Denylist)
	vendors, err := set.Denylist.Vendors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"shady supplies"}, vendors)
}

func TestLoadConfigExampleFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "rules.yaml"))
	require.NoError(t, err)

	set, err := BuildRuleSet(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Len(t, set.Rules, 15)
	require.NotNil(t, set.Denylist)
	assert.Equal(t, util.Sources.Static, set.Denylist.Source())
}

func TestLoadConfigRejectsUnknownAlertTier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("services:\n  nats:\n    min_tier: hgh\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	_, err = BuildRuleSet(context.Background(), cfg, nil)
	var cfgErr *types.ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Contains(t, cfgErr.Reason, "min_tier")
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules: [unterminated"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}
