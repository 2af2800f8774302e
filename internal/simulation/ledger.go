package simulation

import (
	"time"

	"dayahead-market/internal/book"
	"dayahead-market/internal/coupling"
	"dayahead-market/internal/model"
)

// LedgerRow is the award of one offer in one market and step.
// This is the primary artifact for "who got what" in a simulation.
type LedgerRow struct {
	Index int

	Start time.Time
	End   time.Time

	Market string
	Trader string
	Side   model.Side

	OfferedMWh            float64
	BidPriceEURperMWh     float64
	MarginalCostEURperMWh float64 // NaN when undisclosed
	AwardedMWh            float64

	ClearingPriceEURperMWh float64
}

// MarketStep is the state of one market after a step.
type MarketStep struct {
	MarketID                string
	PriceEURperMWh          float64
	UncoupledPriceEURperMWh float64
	TradedEnergyMWh         float64
	SystemCostEUR           float64
	ShortageMWh             float64
	ImportedMWh             float64
	ExportedMWh             float64
}

type StepResult struct {
	Index   int
	Start   time.Time
	End     time.Time
	Coupled bool
	Markets []MarketStep
	Links   []coupling.LinkUsage
	Shifts  []coupling.Shift
}

type Result struct {
	Scenario           string
	Steps              []StepResult
	Ledger             []LedgerRow
	TotalSystemCostEUR float64
}

func ledgerRows(idx int, st model.Step, mr coupling.MarketResult) []LedgerRow {
	var rows []LedgerRow
	for _, b := range []*book.OrderBook{mr.Outcome.Supply, mr.Outcome.Demand} {
		for _, e := range b.Entries() {
			if e.Synthetic() {
				continue
			}
			rows = append(rows, LedgerRow{
				Index:                  idx,
				Start:                  st.Start,
				End:                    st.End,
				Market:                 mr.MarketID,
				Trader:                 e.Offer.TraderID,
				Side:                   e.Offer.Side,
				OfferedMWh:             e.EnergyMWh(),
				BidPriceEURperMWh:      e.Price(),
				MarginalCostEURperMWh:  e.Offer.MarginalCostEURperMWh,
				AwardedMWh:             e.AwardedMWh,
				ClearingPriceEURperMWh: mr.Outcome.PriceEURperMWh,
			})
		}
	}
	return rows
}
