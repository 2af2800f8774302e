package coupling

import (
	"testing"

	"dayahead-market/internal/book"
	"dayahead-market/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bid struct {
	trader     string
	mwh, price float64
}

func offers(side model.Side, bids ...bid) []model.Offer {
	out := make([]model.Offer, 0, len(bids))
	for _, b := range bids {
		out = append(out, model.Offer{EnergyMWh: b.mwh, PriceEURperMWh: b.price, TraderID: b.trader, Side: side})
	}
	return out
}

func request(t *testing.T, id string, supply, demand []bid, links map[string]float64) *Request {
	t.Helper()
	r, err := NewRequest(id, offers(model.SideSupply, supply...), offers(model.SideDemand, demand...), links)
	require.NoError(t, err)
	return r
}

// A clears at 80 with 5 MWh sheddable, B clears at 40 with 200 MWh spare
// supply and 100 MWh of capacity towards A.
func twoZones(t *testing.T) map[string]*Request {
	return map[string]*Request{
		"A": request(t, "A",
			[]bid{{"a-base", 95, 50}, {"a-peak", 100, 80}},
			[]bid{{"a-load", 100, 200}},
			nil),
		"B": request(t, "B",
			[]bid{{"b-wind", 300, 40}},
			[]bid{{"b-load", 100, 100}},
			map[string]float64{"A": 100}),
	}
}

func newTestBalancer(t *testing.T, offset float64) *Balancer {
	t.Helper()
	b, err := NewBalancer(offset, DefaultMinShiftIncrementMWh, nil)
	require.NoError(t, err)
	return b
}

func TestNewBalancer_Validation(t *testing.T) {
	_, err := NewBalancer(-1, 0.1, nil)
	assert.Error(t, err)
	_, err = NewBalancer(1, 0, nil)
	assert.Error(t, err)
}

func TestFloorToIncrement(t *testing.T) {
	b := newTestBalancer(t, 1)
	assert.Equal(t, 5.5, b.floorToIncrement(5.5))
	assert.Equal(t, 5.5, b.floorToIncrement(5.59))
	assert.Equal(t, 0.3, b.floorToIncrement(0.3))
	assert.Equal(t, 0.0, b.floorToIncrement(0.09))
	assert.Equal(t, 0.0, b.floorToIncrement(-3))
}

func TestBalance_FirstShiftIsMinimalPriceChangingShift(t *testing.T) {
	reqs := twoZones(t)
	sum, err := newTestBalancer(t, 0.5).Balance(reqs)
	require.NoError(t, err)

	assert.Equal(t, 80.0, sum.InitialPrices["A"])
	assert.Equal(t, 40.0, sum.InitialPrices["B"])

	require.NotEmpty(t, sum.Shifts)
	first := sum.Shifts[0]
	assert.Equal(t, "A", first.From)
	assert.Equal(t, "B", first.To)
	assert.Equal(t, 5.5, first.EnergyMWh)
	assert.Equal(t, 80.0, first.FromPriceBefore)
	assert.Equal(t, 50.0, first.FromPriceAfter)
	assert.Equal(t, 40.0, first.ToPriceAfter)
	assert.Equal(t, 100.0, first.CapacityBeforeMWh)
	assert.Equal(t, 94.5, first.CapacityAfterMWh)
	assert.False(t, first.Capped)
}

func TestBalance_RunsUntilNoPairIsLeft(t *testing.T) {
	reqs := twoZones(t)
	sum, err := newTestBalancer(t, 0.5).Balance(reqs)
	require.NoError(t, err)

	require.Len(t, sum.Shifts, 2)
	assert.InDelta(t, 94.4, sum.Shifts[1].EnergyMWh, 1e-9)
	// A must keep one increment of demand, so its price stays at 50
	assert.True(t, sum.Shifts[1].Capped)
	assert.Equal(t, 50.0, sum.Shifts[1].FromPriceAfter)

	// demand moved, never lost
	total := reqs["A"].Demand.TotalEnergyMWh() + reqs["B"].Demand.TotalEnergyMWh()
	assert.InDelta(t, 200, total, 1e-9)
	assert.InDelta(t, 0.1, reqs["A"].Demand.TotalEnergyMWh(), 1e-9)
	assert.InDelta(t, 0.1, reqs["B"].TransmissionTo("A"), 1e-9)

	assert.InDelta(t, 99.9, reqs["A"].Imports.TotalEnergyMWh(), 1e-9)
	assert.InDelta(t, 99.9, reqs["B"].Exports.TotalEnergyMWh(), 1e-9)
	assert.Equal(t, []string{"a-load"}, reqs["B"].Exports.Traders())
	assert.Equal(t, 0.0, reqs["A"].Exports.TotalEnergyMWh())
}

func TestBalance_WithoutCapacityNothingMoves(t *testing.T) {
	reqs := twoZones(t)
	reqs["B"].Transmission["A"] = 0
	sum, err := newTestBalancer(t, 0.5).Balance(reqs)
	require.NoError(t, err)
	assert.Empty(t, sum.Shifts)
	assert.Equal(t, 100.0, reqs["A"].Demand.TotalEnergyMWh())
}

func TestBalance_CapacityOnlyFromCheapSide(t *testing.T) {
	reqs := map[string]*Request{
		"A": request(t, "A",
			[]bid{{"a-base", 95, 50}, {"a-peak", 100, 80}},
			[]bid{{"a-load", 100, 200}},
			map[string]float64{"B": 100}),
		"B": request(t, "B",
			[]bid{{"b-wind", 300, 40}},
			[]bid{{"b-load", 100, 100}},
			nil),
	}
	sum, err := newTestBalancer(t, 0.5).Balance(reqs)
	require.NoError(t, err)
	assert.Empty(t, sum.Shifts)
}

func TestBalance_NoSpareSupplyNothingMoves(t *testing.T) {
	reqs := twoZones(t)
	reqs["B"] = request(t, "B",
		[]bid{{"b-wind", 100, 40}},
		[]bid{{"b-load", 100, 100}},
		map[string]float64{"A": 100})
	sum, err := newTestBalancer(t, 0.5).Balance(reqs)
	require.NoError(t, err)
	assert.Empty(t, sum.Shifts)
}

// A's price is set by its demand bid at 80, so no shift can lower it.
func TestBalance_DemandSetPriceIsNotShifted(t *testing.T) {
	reqs := map[string]*Request{
		"A": request(t, "A",
			[]bid{{"a-base", 100, 50}, {"a-peak", 100, 100}},
			[]bid{{"a-load", 150, 80}},
			nil),
		"B": request(t, "B",
			[]bid{{"b-wind", 300, 40}},
			[]bid{{"b-load", 100, 100}},
			map[string]float64{"A": 100}),
	}
	sum, err := newTestBalancer(t, 1).Balance(reqs)
	require.NoError(t, err)

	assert.Equal(t, 80.0, sum.InitialPrices["A"])
	assert.Equal(t, 40.0, sum.InitialPrices["B"])
	assert.Empty(t, sum.Shifts)
	assert.Equal(t, 150.0, reqs["A"].Demand.TotalEnergyMWh())
	assert.Equal(t, 100.0, reqs["B"].TransmissionTo("A"))
}

func TestBalance_DiscardsShiftThatInvertsPrices(t *testing.T) {
	reqs := map[string]*Request{
		"A": request(t, "A",
			[]bid{{"a-base", 50, 10}, {"a-peak", 50, 70}},
			[]bid{{"a-load", 60, 200}},
			nil),
		"B": request(t, "B",
			[]bid{{"b-base", 100, 50}, {"b-peak", 100, 100}},
			[]bid{{"b-load", 99, 200}},
			map[string]float64{"A": 100}),
	}
	sum, err := newTestBalancer(t, 1).Balance(reqs)
	require.NoError(t, err)
	assert.Equal(t, 70.0, sum.InitialPrices["A"])
	assert.Equal(t, 50.0, sum.InitialPrices["B"])
	assert.Empty(t, sum.Shifts)
}

func TestBalance_PicksLargestPriceGap(t *testing.T) {
	reqs := map[string]*Request{
		"A": request(t, "A",
			[]bid{{"a-base", 95, 50}, {"a-peak", 100, 80}},
			[]bid{{"a-load", 100, 200}},
			nil),
		"B": request(t, "B",
			[]bid{{"b-wind", 300, 40}},
			[]bid{{"b-load", 100, 100}},
			map[string]float64{"A": 10}),
		"C": request(t, "C",
			[]bid{{"c-nuke", 300, 20}},
			[]bid{{"c-load", 100, 100}},
			map[string]float64{"A": 10}),
	}
	sum, err := newTestBalancer(t, 0.5).Balance(reqs)
	require.NoError(t, err)
	require.NotEmpty(t, sum.Shifts)
	assert.Equal(t, "C", sum.Shifts[0].To)
}

func TestBalance_UnknownNeighborFails(t *testing.T) {
	reqs := twoZones(t)
	reqs["B"].Transmission["Z"] = 10
	_, err := newTestBalancer(t, 1).Balance(reqs)
	assert.Error(t, err)
}

func TestBalance_ClearingFailureAbortsRound(t *testing.T) {
	reqs := twoZones(t)
	reqs["C"] = request(t, "C", []bid{{"c-gen", 10, 5}}, nil, nil)
	_, err := newTestBalancer(t, 1).Balance(reqs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear market C")
}

func TestBalance_NoMarkets(t *testing.T) {
	_, err := newTestBalancer(t, 1).Balance(nil)
	assert.Error(t, err)
}

func TestMoveDemand_SplitsStraddlingOffer(t *testing.T) {
	expensive := book.NewDemand()
	require.NoError(t, expensive.AddAll(offers(model.SideDemand,
		bid{"l1", 30, 100}, bid{"l2", 20, 90}, bid{"l0", 0, 80}, bid{"l3", 10, 50})))
	cheap := book.NewDemand()
	require.NoError(t, cheap.Add(model.Offer{EnergyMWh: 40, PriceEURperMWh: 70, TraderID: "c1", Side: model.SideDemand}))

	newExp, newCheap, transfer, err := moveDemand(expensive.Entries(), 2, 35, cheap)
	require.NoError(t, err)

	assert.InDelta(t, 25, newExp.TotalEnergyMWh(), 1e-12)
	assert.InDelta(t, 75, newCheap.TotalEnergyMWh(), 1e-12)
	assert.InDelta(t, 35, transfer.TotalEnergyMWh(), 1e-12)
	assert.Equal(t, 20.0, transfer.EnergyOfMWh("l2"))
	assert.Equal(t, 15.0, transfer.EnergyOfMWh("l1"))
	assert.Equal(t, 15.0, newExp.ByTrader("l1")[0].EnergyMWh())
	assert.Equal(t, 10.0, newExp.ByTrader("l3")[0].EnergyMWh())
	assert.Empty(t, newExp.ByTrader("l0"))
	assert.Equal(t, 40.0, cheap.TotalEnergyMWh(), "source book must not change")
}

func TestRequest_CloneIsIndependent(t *testing.T) {
	r := twoZones(t)["B"]
	c := r.Clone()
	c.Transmission["A"] = 1
	c.Exports.Add(model.Offer{EnergyMWh: 3, TraderID: "x", Side: model.SideDemand})
	require.NoError(t, c.Demand.Add(model.Offer{EnergyMWh: 3, PriceEURperMWh: 1, TraderID: "x", Side: model.SideDemand}))

	assert.Equal(t, 100.0, r.TransmissionTo("A"))
	assert.Equal(t, 0.0, r.Exports.TotalEnergyMWh())
	assert.Equal(t, 100.0, r.Demand.TotalEnergyMWh())
}

func TestNewRequest_Validation(t *testing.T) {
	_, err := NewRequest("", nil, nil, nil)
	assert.Error(t, err)
	_, err = NewRequest("A", nil, nil, map[string]float64{"B": -1})
	assert.Error(t, err)
	_, err = NewRequest("A", offers(model.SideDemand, bid{"x", 1, 1}), nil, nil)
	assert.ErrorIs(t, err, model.ErrUnknownSide)
}
