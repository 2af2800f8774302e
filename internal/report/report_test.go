package report

import (
	"bytes"
	"testing"

	"dayahead-market/internal/analysis"
	"dayahead-market/internal/coupling"
	"dayahead-market/internal/simulation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result() *simulation.Result {
	return &simulation.Result{Steps: []simulation.StepResult{{
		Index:   0,
		Coupled: true,
		Markets: []simulation.MarketStep{
			{MarketID: "A", PriceEURperMWh: 50, UncoupledPriceEURperMWh: 80, TradedEnergyMWh: 0.1, ImportedMWh: 99.9},
			{MarketID: "B", PriceEURperMWh: 40, UncoupledPriceEURperMWh: 40, TradedEnergyMWh: 199.9, ExportedMWh: 99.9},
		},
		Shifts: []coupling.Shift{{From: "A", To: "B", EnergyMWh: 5.5, FromPriceBefore: 80, FromPriceAfter: 50, ToPriceBefore: 40, ToPriceAfter: 40, CapacityAfterMWh: 94.5}},
	}}}
}

func TestSteps(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Steps(&buf, result()))
	out := buf.String()
	assert.Contains(t, out, "80.00")
	assert.Contains(t, out, "199.9")
}

func TestShifts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Shifts(&buf, result()))
	assert.Contains(t, buf.String(), "80.00 -> 50.00")
	assert.Contains(t, buf.String(), "94.5")
}

func TestRankingAndDispersion(t *testing.T) {
	res := result()
	var buf bytes.Buffer
	require.NoError(t, Ranking(&buf, analysis.RankBySpread(res)))
	assert.Contains(t, buf.String(), "40.00/40.00")

	buf.Reset()
	require.NoError(t, Dispersion(&buf, analysis.PriceDispersion(res)))
	assert.Contains(t, buf.String(), "75%")
}
