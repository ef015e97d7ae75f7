package util

import "procurerisk/types"

// NamedRule is one entry of a rule set. Evaluate must be side-effect free and
// must not depend on other rules; returning false means the rule did not
// trigger or abstained.
type NamedRule struct {
	Name     string
	Weight   int
	Evaluate RuleFunc
}

type RuleFunc func(record types.ContractRecord, index *types.VendorAwardIndex) (types.Contribution, bool)

// Publisher is the subset of *nats.Conn used for alerts.
type Publisher interface {
	Publish(subject string, data []byte) error
}
