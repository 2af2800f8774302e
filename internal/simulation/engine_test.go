package simulation

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dayahead-market/internal/config"
	"dayahead-market/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cost(v float64) *float64 { return &v }

func singleMarket() *model.Scenario {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &model.Scenario{
		Name: "single",
		Steps: []model.Step{{
			Start: start,
			End:   start.Add(time.Hour),
			Markets: map[string]model.MarketBids{
				"DE": {
					Supply: []model.BidSpec{
						{TraderID: "coal", EnergyMWh: 50, Price: 30, MarginalCost: cost(25)},
						{TraderID: "gas", EnergyMWh: 50, Price: 50, MarginalCost: cost(45)},
					},
					Demand: []model.BidSpec{
						{TraderID: "industry", EnergyMWh: 60, Price: 60},
						{TraderID: "flex", EnergyMWh: 40, Price: 20},
					},
				},
			},
		}},
	}
}

func twoZones() *model.Scenario {
	return &model.Scenario{
		Name:  "two-zones",
		Links: []model.Link{{From: "B", To: "A", CapacityMWh: 100}},
		Steps: []model.Step{{
			Markets: map[string]model.MarketBids{
				"A": {
					Supply: []model.BidSpec{{TraderID: "a-base", EnergyMWh: 95, Price: 50}, {TraderID: "a-peak", EnergyMWh: 100, Price: 80}},
					Demand: []model.BidSpec{{TraderID: "a-load", EnergyMWh: 100, Price: 200}},
				},
				"B": {
					Supply: []model.BidSpec{{TraderID: "b-wind", EnergyMWh: 300, Price: 40}},
					Demand: []model.BidSpec{{TraderID: "b-load", EnergyMWh: 100, Price: 100}},
				},
			},
		}},
	}
}

func newEngine(t *testing.T, mutate func(*config.Config)) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Coupling.MinDemandOffsetMWh = 0.5
	if mutate != nil {
		mutate(cfg)
	}
	e, err := NewFromConfig(cfg, nil)
	require.NoError(t, err)
	return e
}

func TestRun_SingleMarket(t *testing.T) {
	res, err := newEngine(t, nil).Run(singleMarket())
	require.NoError(t, err)

	require.Len(t, res.Steps, 1)
	st := res.Steps[0]
	assert.False(t, st.Coupled)
	require.Len(t, st.Markets, 1)
	assert.Equal(t, 50.0, st.Markets[0].PriceEURperMWh)
	assert.Equal(t, 60.0, st.Markets[0].TradedEnergyMWh)
	assert.Equal(t, 50.0, st.Markets[0].UncoupledPriceEURperMWh)
	assert.Equal(t, 1700.0, st.Markets[0].SystemCostEUR)
	assert.Equal(t, 1700.0, res.TotalSystemCostEUR)

	awarded := map[string]float64{}
	for _, r := range res.Ledger {
		awarded[r.Trader] = r.AwardedMWh
		assert.Equal(t, 50.0, r.ClearingPriceEURperMWh)
		assert.Equal(t, "DE", r.Market)
	}
	assert.Equal(t, map[string]float64{"coal": 50, "gas": 10, "industry": 60, "flex": 0}, awarded)
}

func TestRun_CouplesLinkedMarkets(t *testing.T) {
	res, err := newEngine(t, nil).Run(twoZones())
	require.NoError(t, err)

	st := res.Steps[0]
	assert.True(t, st.Coupled)
	require.Len(t, st.Markets, 2)
	a, b := st.Markets[0], st.Markets[1]
	assert.Equal(t, "A", a.MarketID)
	assert.Equal(t, 80.0, a.UncoupledPriceEURperMWh)
	assert.Equal(t, 50.0, a.PriceEURperMWh)
	assert.Equal(t, 40.0, b.PriceEURperMWh)
	assert.InDelta(t, 99.9, a.ImportedMWh, 1e-9)
	assert.InDelta(t, 99.9, b.ExportedMWh, 1e-9)

	require.Len(t, st.Shifts, 2)
	assert.Equal(t, 5.5, st.Shifts[0].EnergyMWh)
	require.Len(t, st.Links, 1)
	assert.InDelta(t, 99.9, st.Links[0].UsedMWh, 1e-9)
}

func TestRun_CouplingDisabledClearsAlone(t *testing.T) {
	off := false
	res, err := newEngine(t, func(c *config.Config) { c.Coupling.Enabled = &off }).Run(twoZones())
	require.NoError(t, err)

	st := res.Steps[0]
	assert.False(t, st.Coupled)
	assert.Empty(t, st.Shifts)
	assert.Equal(t, 80.0, st.Markets[0].PriceEURperMWh)
	assert.Equal(t, 40.0, st.Markets[1].PriceEURperMWh)
}

func TestRun_StepLinksOverrideScenarioLinks(t *testing.T) {
	sc := twoZones()
	sc.Steps[0].Links = []model.Link{{From: "B", To: "A", CapacityMWh: 0}}
	res, err := newEngine(t, nil).Run(sc)
	require.NoError(t, err)
	assert.False(t, res.Steps[0].Coupled)
	assert.Equal(t, 80.0, res.Steps[0].Markets[0].PriceEURperMWh)
}

func TestRun_Errors(t *testing.T) {
	e := newEngine(t, nil)

	_, err := e.Run(nil)
	assert.Error(t, err)
	_, err = e.Run(&model.Scenario{})
	assert.Error(t, err)

	sc := twoZones()
	sc.Links = append(sc.Links, model.Link{From: "B", To: "FR", CapacityMWh: 10})
	_, err = e.Run(sc)
	assert.ErrorContains(t, err, "step 0")
	assert.ErrorContains(t, err, `unknown market "FR"`)

	sc = twoZones()
	sc.Links = []model.Link{{From: "A", To: "A", CapacityMWh: 10}}
	_, err = e.Run(sc)
	assert.ErrorIs(t, err, ErrInvalidLink)

	sc = singleMarket()
	sc.Steps[0].Markets["DE"] = model.MarketBids{
		Supply: []model.BidSpec{{TraderID: "coal", EnergyMWh: 50, Price: 30}},
	}
	_, err = e.Run(sc)
	assert.ErrorContains(t, err, "market clearing failed")

	sc = singleMarket()
	sc.Steps[0].Markets["DE"] = model.MarketBids{
		Supply: []model.BidSpec{{TraderID: "coal", EnergyMWh: -1, Price: 30}},
	}
	_, err = e.Run(sc)
	assert.ErrorIs(t, err, model.ErrNegativeEnergy)
}

func TestNew_NeedsMarket(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.Error(t, err)
}

func TestWriteLedgerCSV(t *testing.T) {
	res, err := newEngine(t, nil).Run(singleMarket())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ledger.csv")
	require.NoError(t, WriteLedgerCSV(path, res.Ledger))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 5)
	assert.Equal(t, "index", records[0][0])
	assert.Equal(t, "2024-01-01T00:00:00Z", records[1][1])
	assert.Equal(t, "coal", records[1][4])
	assert.Equal(t, "SUPPLY", records[1][5])
	assert.Equal(t, "25.000000", records[1][8])
	// demand has no marginal cost
	assert.Equal(t, "", records[3][8])
}

func TestFmtFloat(t *testing.T) {
	assert.Equal(t, "", fmtFloat(math.NaN()))
	assert.Equal(t, "1.500000", fmtFloat(1.5))
	assert.Equal(t, "", fmtTime(time.Time{}))
}
