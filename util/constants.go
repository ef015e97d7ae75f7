package util

type serviceConstants struct {
	Redis string
	Nats  string
}

var Services = serviceConstants{
	Redis: "redis",
	Nats:  "nats",
}

type rules struct {
	LowCompetition       string
	NonCompetitiveMethod string
	CostVariance         string
	VendorConcentration  string
	IncompleteDisclosure string
	AggressiveUnderbid   string
	VendorDenylist       string
	LimitedCompetition   string
	HighValueMethod      string
	ShortFormDuration    string
	RedFlagEntity        string
	BlacklistedVendor    string
	PaymentDiscrepancy   string
	PaymentVariance      string
	CompletionAnomaly    string
}

var Rules = rules{
	LowCompetition:       "lowCompetition",
	NonCompetitiveMethod: "nonCompetitiveMethod",
	CostVariance:         "costVariance",
	VendorConcentration:  "vendorConcentration",
	IncompleteDisclosure: "incompleteDisclosure",
	AggressiveUnderbid:   "aggressiveUnderbid",
	VendorDenylist:       "vendorDenylist",
	LimitedCompetition:   "limitedCompetition",
	HighValueMethod:      "highValueMethod",
	ShortFormDuration:    "shortFormDuration",
	RedFlagEntity:        "redFlagEntity",
	BlacklistedVendor:    "blacklistedContractor",
	PaymentDiscrepancy:   "paymentDiscrepancy",
	PaymentVariance:      "paymentVariance",
	CompletionAnomaly:    "completionAnomaly",
}

type sources struct {
	Static string
	Redis  string
}

// Sources are where a vendor denylist is read from.
var Sources = sources{
	Static: "static",
	Redis:  Services.Redis,
}

const AlertSubject = "procurement.alerts"
