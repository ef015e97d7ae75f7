package normalize

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurerisk/types"
)

func TestNormalizeCanonicalRecord(t *testing.T) {
	raw := map[string]interface{}{
		"contract_id":        "C-1",
		"agency":             "Department of Roads",
		"vendor":             "Acme Builders",
		"procurement_method": "direct",
		"bidder_count":       1,
		"estimated_cost":     100000.0,
		"awarded_cost":       "180,000",
		"award_date":         "2024-03-15",
	}

	rec, err := Normalize(raw, DefaultSchema())
	require.NoError(t, err)

	assert.Equal(t, "C-1", rec.ContractID)
	assert.Equal(t, "Department of Roads", rec.Agency)
	assert.Equal(t, types.MethodDirect, rec.ProcurementMethod)
	require.NotNil(t, rec.BidderCount)
	assert.Equal(t, 1, *rec.BidderCount)
	assert.True(t, rec.EstimatedCost.Valid)
	assert.True(t, rec.EstimatedCost.Decimal.Equal(decimal.NewFromInt(100000)))
	assert.True(t, rec.AwardedCost.Equal(decimal.NewFromInt(180000)))
	require.NotNil(t, rec.AwardDate)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *rec.AwardDate)
	assert.Nil(t, rec.Extra)
}

func TestNormalizeMissingOptionalFieldsAreUnknown(t *testing.T) {
	rec, err := Normalize(map[string]interface{}{
		"contract_id":  "C-2",
		"awarded_cost": 5000,
		"bidder_count": "",
	}, DefaultSchema())
	require.NoError(t, err)

	assert.Equal(t, types.Unknown, rec.Agency)
	assert.Equal(t, types.Unknown, rec.Vendor)
	assert.Equal(t, types.MethodUnknown, rec.ProcurementMethod)
	assert.Nil(t, rec.BidderCount, "absent bidder count must not become zero")
	assert.False(t, rec.EstimatedCost.Valid)
	assert.Nil(t, rec.AwardDate)
}

func TestNormalizeZeroBiddersIsKnown(t *testing.T) {
	rec, err := Normalize(map[string]interface{}{
		"contract_id":  "C-3",
		"awarded_cost": 10,
		"bidder_count": "0",
	}, DefaultSchema())
	require.NoError(t, err)
	require.NotNil(t, rec.BidderCount)
	assert.Equal(t, 0, *rec.BidderCount)
}

func TestNormalizePortalAliases(t *testing.T) {
	rec, err := Normalize(map[string]interface{}{
		"contract_code":     "NP-77",
		"publicEntityName":  "Ministry of Health",
		"contractorName1":   "--Select Country--",
		"contractorName2":   "Himal Traders",
		"procurementMethod": "Sealed Quotation",
		"estimatedCost":     "1,000,000",
		"contract_amount":   json.Number("950000.50"),
		"contractDate":      "15/03/2024",
		"status":            "completed",
	}, DefaultSchema())
	require.NoError(t, err)

	assert.Equal(t, "NP-77", rec.ContractID)
	assert.Equal(t, "Ministry of Health", rec.Agency)
	assert.Equal(t, "Himal Traders", rec.Vendor)
	assert.Equal(t, types.MethodLimited, rec.ProcurementMethod)
	assert.True(t, rec.AwardedCost.Equal(decimal.RequireFromString("950000.50")))
	require.NotNil(t, rec.AwardDate)
	assert.Equal(t, time.March, rec.AwardDate.Month())
	assert.Equal(t, 15, rec.AwardDate.Day())
	assert.Equal(t, map[string]string{"status": "completed"}, rec.Extra)
}

func TestNormalizeValidationErrors(t *testing.T) {
	base := func() map[string]interface{} {
		return map[string]interface{}{"contract_id": "C-9", "awarded_cost": 100}
	}

	cases := []struct {
		name  string
		set   map[string]interface{}
		unset string
		field string
	}{
		{name: "missing id", unset: "contract_id", field: FieldContractID},
		{name: "missing awarded cost", unset: "awarded_cost", field: FieldAwardedCost},
		{name: "negative awarded cost", set: map[string]interface{}{"awarded_cost": -1}, field: FieldAwardedCost},
		{name: "negative estimate", set: map[string]interface{}{"estimated_cost": "-500"}, field: FieldEstimatedCost},
		{name: "unparseable cost", set: map[string]interface{}{"awarded_cost": "lots"}, field: FieldAwardedCost},
		{name: "fractional bidders", set: map[string]interface{}{"bidder_count": 2.5}, field: FieldBidderCount},
		{name: "negative bidders", set: map[string]interface{}{"bidder_count": -2}, field: FieldBidderCount},
		{name: "bidders beyond int range", set: map[string]interface{}{"bidder_count": "18446744073709551615"}, field: FieldBidderCount},
		{name: "NaN cost", set: map[string]interface{}{"awarded_cost": math.NaN()}, field: FieldAwardedCost},
		{name: "infinite estimate", set: map[string]interface{}{"estimated_cost": math.Inf(1)}, field: FieldEstimatedCost},
		{name: "infinite float32 bidders", set: map[string]interface{}{"bidder_count": float32(math.Inf(-1))}, field: FieldBidderCount},
		{name: "bad date", set: map[string]interface{}{"award_date": "next tuesday"}, field: FieldAwardDate},
		{name: "wrong type", set: map[string]interface{}{"vendor": []string{"a"}}, field: FieldVendor},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := base()
			delete(raw, tc.unset)
			for k, v := range tc.set {
				raw[k] = v
			}

			_, err := Normalize(raw, DefaultSchema())
			require.Error(t, err)

			var vErr *types.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tc.field, vErr.Field)
			assert.NotEmpty(t, vErr.Reason)
		})
	}
}

func TestBatchContinuesPastFailures(t *testing.T) {
	raws := []map[string]interface{}{
		{"contract_id": "A", "awarded_cost": 1},
		{"contract_id": "B", "awarded_cost": -1},
		{"contract_id": "C", "awarded_cost": 3},
	}

	var ok, failed []int
	for i, res := range Batch(raws, DefaultSchema()) {
		if res.Err != nil {
			failed = append(failed, i)
			continue
		}
		ok = append(ok, i)
	}

	assert.Equal(t, []int{0, 2}, ok)
	assert.Equal(t, []int{1}, failed)
}

func TestBatchStopsWhenConsumerStops(t *testing.T) {
	raws := []map[string]interface{}{
		{"contract_id": "A", "awarded_cost": 1},
		{"contract_id": "B", "awarded_cost": 2},
	}

	seen := 0
	for range Batch(raws, DefaultSchema()) {
		seen++
		break
	}
	assert.Equal(t, 1, seen)
}

func TestParseMethod(t *testing.T) {
	cases := map[string]types.ProcurementMethod{
		"NCB":                 types.MethodOpen,
		"Open Competitive":    types.MethodOpen,
		"open_competitive":    types.MethodOpen,
		"RFQ":                 types.MethodLimited,
		"shopping":            types.MethodLimited,
		"Sole Source":         types.MethodDirect,
		"direct":              types.MethodDirect,
		"framework agreement": types.MethodUnknown,
		"":                    types.MethodUnknown,
	}
	for label, want := range cases {
		assert.Equal(t, want, ParseMethod(label), label)
	}
}

func TestBatchSurvivesNonFiniteNumbers(t *testing.T) {
	raws := []map[string]interface{}{
		{"contract_id": "A", "awarded_cost": math.NaN()},
		{"contract_id": "B", "awarded_cost": 10, "bidder_count": "18446744073709551615"},
		{"contract_id": "C", "awarded_cost": 10, "bidder_count": "2147483647"},
	}

	var errs []error
	var ok []types.ContractRecord
	require.NotPanics(t, func() {
		for _, res := range Batch(raws, DefaultSchema()) {
			if res.Err != nil {
				errs = append(errs, res.Err)
				continue
			}
			ok = append(ok, res.Record)
		}
	})

	assert.Len(t, errs, 2)
	require.Len(t, ok, 1)
	require.NotNil(t, ok[0].BidderCount)
	assert.Equal(t, math.MaxInt32, *ok[0].BidderCount)
}
