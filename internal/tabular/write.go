package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"procurerisk/normalize"
	"procurerisk/types"
)

// ReasonSeparator joins risk reasons into one cell.
const ReasonSeparator = "; "

// WriteReport writes scored.csv and failures.csv into outDir. Files are UTF-8
// with BOM so they open cleanly in Excel.
func WriteReport(outDir string, report *types.BatchReport) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("csv: mkdir: %w", err)
	}
	if err := writeFile(filepath.Join(outDir, "scored.csv"), func(w io.Writer) error {
		return WriteScored(w, report.Scored)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(outDir, "failures.csv"), func(w io.Writer) error {
		return WriteFailures(w, report.Failures)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	if err := write(f); err != nil {
		return fmt.Errorf("csv: %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// WriteScored writes one row per contract: score columns, the canonical
// record fields, then every passthrough column seen in the batch, sorted.
func WriteScored(w io.Writer, scored []types.ScoredContract) error {
	extras := extraColumns(scored)

	header := []string{"contract_id", "risk_score", "risk_tier", "risk_reasons"}
	header = append(header, normalize.Fields[1:]...)
	header = append(header, extras...)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range scored {
		r := s.Record
		row := []string{
			s.ContractID,
			strconv.Itoa(s.RiskScore),
			string(s.RiskTier),
			strings.Join(s.RiskReasons, ReasonSeparator),
			r.Agency,
			r.Vendor,
			string(r.ProcurementMethod),
			bidders(r.BidderCount),
			estimate(r),
			r.AwardedCost.String(),
			awardDate(r),
		}
		for _, col := range extras {
			row = append(row, r.Extra[col])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteFailures(w io.Writer, failures []types.RecordFailure) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "contract_id", "field", "reason"}); err != nil {
		return err
	}
	for _, f := range failures {
		if err := cw.Write([]string{strconv.Itoa(f.Index), f.ContractID, f.Field, f.Reason}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func extraColumns(scored []types.ScoredContract) []string {
	seen := map[string]bool{}
	var cols []string
	for _, s := range scored {
		for k := range s.Record.Extra {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func bidders(n *int) string {
	if n == nil {
		return types.Unknown
	}
	return strconv.Itoa(*n)
}

func estimate(r types.ContractRecord) string {
	if !r.EstimatedCost.Valid {
		return types.Unknown
	}
	return r.EstimatedCost.Decimal.String()
}

func awardDate(r types.ContractRecord) string {
	if r.AwardDate == nil {
		return types.Unknown
	}
	return r.AwardDate.Format("2006-01-02")
}
