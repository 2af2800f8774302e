package simulation

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"time"
)

func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"index",
		"start",
		"end",
		"market",
		"trader",
		"side",
		"offered_mwh",
		"bid_price",
		"marginal_cost",
		"awarded_mwh",
		"clearing_price",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.Start),
			fmtTime(r.End),
			r.Market,
			r.Trader,
			string(r.Side),
			fmtFloat(r.OfferedMWh),
			fmtFloat(r.BidPriceEURperMWh),
			fmtFloat(r.MarginalCostEURperMWh),
			fmtFloat(r.AwardedMWh),
			fmtFloat(r.ClearingPriceEURperMWh),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// fmtFloat leaves unknown values empty.
func fmtFloat(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	return strconv.FormatFloat(x, 'f', 6, 64)
}
