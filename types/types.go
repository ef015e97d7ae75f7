package types

type RuleConfig struct {
	Name   string                 `yaml:"name"`
	Params map[string]interface{} `yaml:",inline"`
}

type TierBoundaries struct {
	LowMax    int `yaml:"low_max" json:"lowMax"`
	MediumMax int `yaml:"medium_max" json:"mediumMax"`
}
