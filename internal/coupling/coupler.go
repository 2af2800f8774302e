package coupling

import (
	"fmt"
	"sort"

	"dayahead-market/internal/book"
	"dayahead-market/internal/clearing"

	"go.uber.org/zap"
)

// MarketResult is the final state of one coupled market.
type MarketResult struct {
	MarketID string
	Outcome  *clearing.Outcome
	// UncoupledPriceEURperMWh is the price the market had before coupling.
	UncoupledPriceEURperMWh float64
	Imports                 *book.TransferBook
	Exports                 *book.TransferBook
}

// LinkUsage reports how much of a directed link the round used.
type LinkUsage struct {
	From         string  `json:"from"`
	To           string  `json:"to"`
	AvailableMWh float64 `json:"available_mwh"`
	UsedMWh      float64 `json:"used_mwh"`
}

// Result of a coupling round, sorted by market ID and link.
type Result struct {
	Markets []MarketResult
	Links   []LinkUsage
	Shifts  []Shift
}

// Market returns the result of one market.
func (r *Result) Market(id string) (MarketResult, bool) {
	for _, m := range r.Markets {
		if m.MarketID == id {
			return m, true
		}
	}
	return MarketResult{}, false
}

// Coupler runs a full coupling round: it balances copies of the requests,
// then clears and awards every market with its final books.
type Coupler struct {
	balancer *Balancer
	market   *clearing.Market
	log      *zap.SugaredLogger
}

func NewCoupler(balancer *Balancer, market *clearing.Market, log *zap.SugaredLogger) *Coupler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Coupler{balancer: balancer, market: market, log: log}
}

// Couple never modifies the given requests.
func (c *Coupler) Couple(eventID string, requests []*Request) (*Result, error) {
	working := make(map[string]*Request, len(requests))
	initial := make(map[string]map[string]float64, len(requests))
	for _, req := range requests {
		if req == nil {
			return nil, fmt.Errorf("%s: nil coupling request", eventID)
		}
		if _, dup := working[req.MarketID]; dup {
			return nil, fmt.Errorf("%s: only one coupling request is allowed per market, got several for %s", eventID, req.MarketID)
		}
		working[req.MarketID] = req.Clone()
		initial[req.MarketID] = req.Clone().Transmission
	}

	summary, err := c.balancer.Balance(working)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", eventID, err)
	}

	out := &Result{Shifts: summary.Shifts}
	ids := make([]string, 0, len(working))
	for id := range working {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		req := working[id]
		outcome, err := c.market.ClearBooks(fmt.Sprintf("%s/%s", eventID, id), req.Supply, req.Demand)
		if err != nil {
			return nil, err
		}
		out.Markets = append(out.Markets, MarketResult{
			MarketID:                id,
			Outcome:                 outcome,
			UncoupledPriceEURperMWh: summary.InitialPrices[id],
			Imports:                 req.Imports,
			Exports:                 req.Exports,
		})

		targets := make([]string, 0, len(initial[id]))
		for to := range initial[id] {
			targets = append(targets, to)
		}
		sort.Strings(targets)
		for _, to := range targets {
			available := initial[id][to]
			out.Links = append(out.Links, LinkUsage{
				From:         id,
				To:           to,
				AvailableMWh: available,
				UsedMWh:      available - req.TransmissionTo(to),
			})
		}
	}
	c.log.Infow("markets coupled", "event", eventID, "markets", len(ids), "shifts", len(out.Shifts))
	return out, nil
}
