package normalize

import (
	"encoding/json"
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"procurerisk/types"
)

var maxBidderCount = decimal.NewFromInt(math.MaxInt32)

type Result struct {
	Record types.ContractRecord
	Err    error
}

// Batch normalizes records lazily. Every input yields exactly one Result, so
// a malformed record never hides the ones after it.
func Batch(raws []map[string]interface{}, schema Schema) iter.Seq2[int, Result] {
	return func(yield func(int, Result) bool) {
		for i, raw := range raws {
			rec, err := Normalize(raw, schema)
			if !yield(i, Result{Record: rec, Err: err}) {
				return
			}
		}
	}
}

// Normalize coerces one raw record into a ContractRecord. It returns a
// *types.ValidationError naming the first offending field.
func Normalize(raw map[string]interface{}, schema Schema) (types.ContractRecord, error) {
	r := reader{raw: raw, schema: schema, used: make(map[string]bool)}
	var rec types.ContractRecord

	id, ok, err := r.str(FieldContractID)
	if err != nil {
		return rec, err
	}
	if !ok {
		return rec, invalid(FieldContractID, "missing required field")
	}
	rec.ContractID = id

	if rec.Agency, err = r.strOrUnknown(FieldAgency); err != nil {
		return rec, err
	}
	if rec.Vendor, err = r.strOrUnknown(FieldVendor); err != nil {
		return rec, err
	}

	method, ok, err := r.str(FieldProcurementMethod)
	if err != nil {
		return rec, err
	}
	rec.ProcurementMethod = types.MethodUnknown
	if ok {
		rec.ProcurementMethod = ParseMethod(method)
	}

	count, ok, err := r.number(FieldBidderCount)
	if err != nil {
		return rec, err
	}
	if ok {
		if !count.IsInteger() {
			return rec, invalid(FieldBidderCount, fmt.Sprintf("%s is not a whole number", count))
		}
		if count.GreaterThan(maxBidderCount) {
			return rec, invalid(FieldBidderCount, fmt.Sprintf("%s is out of range", count))
		}
		n := int(count.IntPart())
		rec.BidderCount = &n
	}

	est, ok, err := r.number(FieldEstimatedCost)
	if err != nil {
		return rec, err
	}
	if ok {
		rec.EstimatedCost = decimal.NewNullDecimal(est)
	}

	awarded, ok, err := r.number(FieldAwardedCost)
	if err != nil {
		return rec, err
	}
	if !ok {
		return rec, invalid(FieldAwardedCost, "missing required field")
	}
	rec.AwardedCost = awarded

	if rec.AwardDate, err = r.date(FieldAwardDate); err != nil {
		return rec, err
	}

	rec.Extra = r.extra()
	return rec, nil
}

// ContractID extracts only the contract id, so a record that failed
// validation can still be reported by id.
func ContractID(raw map[string]interface{}, schema Schema) (string, bool) {
	r := reader{raw: raw, schema: schema, used: make(map[string]bool)}
	id, ok, err := r.str(FieldContractID)
	return id, ok && err == nil
}

func invalid(field, reason string) *types.ValidationError {
	return &types.ValidationError{Field: field, Reason: reason}
}

type reader struct {
	raw    map[string]interface{}
	schema Schema
	used   map[string]bool
}

// lookup returns the first disclosed value among the field's keys. Every key
// that exists is marked used so it is not passed through as an extra column.
func (r reader) lookup(field string) (interface{}, bool) {
	var (
		found interface{}
		ok    bool
	)
	for _, key := range r.schema.keys(field) {
		v, exists := r.raw[key]
		if !exists {
			continue
		}
		r.used[key] = true
		if ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && r.schema.isPlaceholder(s) {
			continue
		}
		found, ok = v, true
	}
	return found, ok
}

func (r reader) str(field string) (string, bool, error) {
	v, ok := r.lookup(field)
	if !ok {
		return "", false, nil
	}
	s, err := stringify(v)
	if err != nil {
		return "", false, invalid(field, err.Error())
	}
	s = strings.TrimSpace(s)
	return s, s != "", nil
}

func (r reader) strOrUnknown(field string) (string, error) {
	s, ok, err := r.str(field)
	if err != nil || !ok {
		return types.Unknown, err
	}
	return s, nil
}

func (r reader) number(field string) (decimal.Decimal, bool, error) {
	v, ok := r.lookup(field)
	if !ok {
		return decimal.Zero, false, nil
	}

	var (
		d   decimal.Decimal
		err error
	)
	switch val := v.(type) {
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		d, err = decimal.NewFromString(cleaned)
		if err != nil {
			return d, false, invalid(field, fmt.Sprintf("%q is not a number", val))
		}
	case json.Number:
		d, err = decimal.NewFromString(val.String())
		if err != nil {
			return d, false, invalid(field, fmt.Sprintf("%q is not a number", val))
		}
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return d, false, invalid(field, "not a finite number")
		}
		d = decimal.NewFromFloat(val)
	case float32:
		if f := float64(val); math.IsNaN(f) || math.IsInf(f, 0) {
			return d, false, invalid(field, "not a finite number")
		}
		d = decimal.NewFromFloat32(val)
	case int:
		d = decimal.NewFromInt(int64(val))
	case int32:
		d = decimal.NewFromInt32(val)
	case int64:
		d = decimal.NewFromInt(val)
	case decimal.Decimal:
		d = val
	default:
		return d, false, invalid(field, fmt.Sprintf("unsupported type %T", v))
	}

	if d.IsNegative() {
		return d, false, invalid(field, fmt.Sprintf("negative value %s", d))
	}
	return d, true, nil
}

func (r reader) date(field string) (*time.Time, error) {
	v, ok := r.lookup(field)
	if !ok {
		return nil, nil
	}
	switch val := v.(type) {
	case time.Time:
		return &val, nil
	case string:
		s := strings.TrimSpace(val)
		for _, layout := range r.schema.DateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return &t, nil
			}
		}
		return nil, invalid(field, fmt.Sprintf("unparseable date %q", val))
	default:
		return nil, invalid(field, fmt.Sprintf("unsupported type %T", v))
	}
}

func (r reader) extra() map[string]string {
	var out map[string]string
	for k, v := range r.raw {
		if r.used[k] {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		if v == nil {
			out[k] = ""
			continue
		}
		s, err := stringify(v)
		if err != nil {
			s = fmt.Sprint(v)
		}
		out[k] = s
	}
	return out
}

func stringify(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("unsupported type %T", v)
	}
}
