package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unknown marks a string field the source record did not disclose.
const Unknown = "unknown"

type ProcurementMethod string

const (
	MethodOpen    ProcurementMethod = "open-competitive"
	MethodLimited ProcurementMethod = "limited-competitive"
	MethodDirect  ProcurementMethod = "direct"
	MethodUnknown ProcurementMethod = "unknown"
)

// IsNonCompetitive reports whether the method restricts who may bid.
func (m ProcurementMethod) IsNonCompetitive() bool {
	return m == MethodDirect || m == MethodLimited
}

// ContractRecord is one normalized procurement award.
//
// BidderCount and AwardDate are nil when the source did not report them. A nil
// BidderCount is not the same as zero bidders.
type ContractRecord struct {
	ContractID        string              `json:"contractId"`
	Agency            string              `json:"agency"`
	Vendor            string              `json:"vendor"`
	ProcurementMethod ProcurementMethod   `json:"procurementMethod"`
	BidderCount       *int                `json:"bidderCount"`
	EstimatedCost     decimal.NullDecimal `json:"estimatedCost"`
	AwardedCost       decimal.Decimal     `json:"awardedCost"`
	AwardDate         *time.Time          `json:"awardDate,omitempty"`
	Extra             map[string]string   `json:"extra,omitempty"`
}

// CostVariance returns (awarded - estimated) / estimated. ok is false when the
// estimate is missing or zero.
func (c ContractRecord) CostVariance() (variance decimal.Decimal, ok bool) {
	if !c.EstimatedCost.Valid || !c.EstimatedCost.Decimal.IsPositive() {
		return decimal.Zero, false
	}
	est := c.EstimatedCost.Decimal
	return c.AwardedCost.Sub(est).Div(est), true
}

type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Rank orders tiers so callers can compare them.
func (t Tier) Rank() int {
	switch t {
	case TierLow:
		return 1
	case TierMedium:
		return 2
	case TierHigh:
		return 3
	default:
		return 0
	}
}

// TierFor maps a score onto the configured boundaries. Scores at or below
// LowMax are low, at or below MediumMax medium, anything above high.
func (b TierBoundaries) TierFor(score int) Tier {
	switch {
	case score <= b.LowMax:
		return TierLow
	case score <= b.MediumMax:
		return TierMedium
	default:
		return TierHigh
	}
}

// Contribution is what a triggered rule adds to a contract's score.
type Contribution struct {
	Rule   string `json:"rule"`
	Weight int    `json:"weight"`
	Reason string `json:"reason"`
}

type ScoredContract struct {
	ContractID    string         `json:"contractId"`
	RiskScore     int            `json:"riskScore"`
	RiskReasons   []string       `json:"riskReasons"`
	RiskTier      Tier           `json:"riskTier"`
	Contributions []Contribution `json:"contributions"`
	Record        ContractRecord `json:"record"`
}

// RecordFailure reports an input record that could not be normalized.
type RecordFailure struct {
	Index      int    `json:"index"`
	ContractID string `json:"contractId,omitempty"`
	Field      string `json:"field"`
	Reason     string `json:"reason"`
}

type BatchReport struct {
	BatchID  string           `json:"batchId"`
	Scored   []ScoredContract `json:"scored"`
	Failures []RecordFailure  `json:"failures"`
	Tiers    map[Tier]int     `json:"tiers"`
}
