// Package report renders simulation results as text tables.
package report

import (
	"fmt"
	"io"
	"strconv"

	"dayahead-market/internal/analysis"
	"dayahead-market/internal/simulation"

	"github.com/olekukonko/tablewriter"
)

// Steps prints one row per market and step.
func Steps(w io.Writer, res *simulation.Result) error {
	table := tablewriter.NewWriter(w)
	table.Header("Step", "Market", "Price", "Uncoupled", "Traded MWh", "Import", "Export", "Shortage", "Cost EUR")
	for _, st := range res.Steps {
		for _, m := range st.Markets {
			if err := table.Append(
				strconv.Itoa(st.Index),
				m.MarketID,
				money(m.PriceEURperMWh),
				money(m.UncoupledPriceEURperMWh),
				mwh(m.TradedEnergyMWh),
				mwh(m.ImportedMWh),
				mwh(m.ExportedMWh),
				mwh(m.ShortageMWh),
				money(m.SystemCostEUR),
			); err != nil {
				return err
			}
		}
	}
	return table.Render()
}

// Shifts prints every demand shift of every coupled step.
func Shifts(w io.Writer, res *simulation.Result) error {
	table := tablewriter.NewWriter(w)
	table.Header("Step", "From", "To", "MWh", "From price", "To price", "Capacity left")
	for _, st := range res.Steps {
		for _, s := range st.Shifts {
			if err := table.Append(
				strconv.Itoa(st.Index),
				s.From,
				s.To,
				mwh(s.EnergyMWh),
				fmt.Sprintf("%s -> %s", money(s.FromPriceBefore), money(s.FromPriceAfter)),
				fmt.Sprintf("%s -> %s", money(s.ToPriceBefore), money(s.ToPriceAfter)),
				mwh(s.CapacityAfterMWh),
			); err != nil {
				return err
			}
		}
	}
	return table.Render()
}

// Ranking prints market summaries in the given order.
func Ranking(w io.Writer, ranked []analysis.PriceSummary) error {
	table := tablewriter.NewWriter(w)
	table.Header("Rank", "Market", "Steps", "P95-P05", "Min/Max", "Mean", "Traded MWh", "Cost EUR", "Scarcity")
	for i, p := range ranked {
		if err := table.Append(
			strconv.Itoa(i+1),
			p.Market,
			strconv.Itoa(p.Count),
			money(p.SpreadP95P05),
			fmt.Sprintf("%s/%s", money(p.MinPrice), money(p.MaxPrice)),
			money(p.MeanPrice),
			mwh(p.TradedEnergyMWh),
			money(p.SystemCostEUR),
			strconv.Itoa(p.ScarcitySteps),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

// Dispersion prints the cross-market price gap per step.
func Dispersion(w io.Writer, ds []analysis.Dispersion) error {
	table := tablewriter.NewWriter(w)
	table.Header("Step", "Coupled", "Gap before", "Gap after", "Closed")
	for _, d := range ds {
		if err := table.Append(
			strconv.Itoa(d.Index),
			strconv.FormatBool(d.Coupled),
			money(d.BeforeEURperMWh),
			money(d.AfterEURperMWh),
			fmt.Sprintf("%.0f%%", 100*d.Convergence()),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

func money(x float64) string { return fmt.Sprintf("%.2f", x) }

func mwh(x float64) string { return fmt.Sprintf("%.1f", x) }
