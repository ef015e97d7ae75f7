package util

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"procurerisk/types"
)

// CalculateRisk sums contributions in the order given and clamps the total to
// [0, maxScore]. Reasons keep the contribution order.
func CalculateRisk(contributions []types.Contribution, maxScore int) (int, []string) {
	reasons := make([]string, 0, len(contributions))
	var sum int
	for _, c := range contributions {
		sum += c.Weight
		reasons = append(reasons, c.Reason)
	}

	if sum < 0 {
		sum = 0
	}
	if sum > maxScore {
		sum = maxScore
	}
	return sum, reasons
}

// Percent renders a fraction as a whole percentage, e.g. 0.8 -> "80%".
func Percent(fraction float64) string {
	return strconv.FormatFloat(math.Round(fraction*100), 'f', 0, 64) + "%"
}

type alert struct {
	BatchID     string     `json:"batchId"`
	ContractID  string     `json:"contractId"`
	Agency      string     `json:"agency"`
	Vendor      string     `json:"vendor"`
	RiskScore   int        `json:"riskScore"`
	RiskTier    types.Tier `json:"riskTier"`
	RiskReasons string     `json:"riskReasons"`
}

// PublishMessage sends one alert per contract at or above minTier. It returns
// the number published and the first publish error.
func PublishMessage(pub Publisher, subject, batchID string, scored []types.ScoredContract, minTier types.Tier) (int, error) {
	var sent int
	for _, s := range scored {
		if s.RiskTier.Rank() < minTier.Rank() {
			continue
		}
		data, err := json.Marshal(alert{
			BatchID:     batchID,
			ContractID:  s.ContractID,
			Agency:      s.Record.Agency,
			Vendor:      s.Record.Vendor,
			RiskScore:   s.RiskScore,
			RiskTier:    s.RiskTier,
			RiskReasons: strings.Join(s.RiskReasons, "; "),
		})
		if err != nil {
			return sent, err
		}
		if err := pub.Publish(subject, data); err != nil {
			return sent, fmt.Errorf("nats publish %s: %w", s.ContractID, err)
		}
		sent++
	}
	return sent, nil
}
