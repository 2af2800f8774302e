package coupling

import (
	"fmt"

	"dayahead-market/internal/book"
	"dayahead-market/internal/model"
)

// Request is the working state of one market during a coupling round.
// Transmission maps a neighbor market to the energy this market can still
// export to it.
type Request struct {
	MarketID     string
	Supply       *book.OrderBook
	Demand       *book.OrderBook
	Transmission map[string]float64
	Imports      *book.TransferBook
	Exports      *book.TransferBook
}

// NewRequest builds fresh books from the market's offers.
func NewRequest(marketID string, supply, demand []model.Offer, transmission map[string]float64) (*Request, error) {
	if marketID == "" {
		return nil, fmt.Errorf("coupling request: market id is required")
	}
	r := &Request{
		MarketID:     marketID,
		Supply:       book.NewSupply(),
		Demand:       book.NewDemand(),
		Transmission: make(map[string]float64, len(transmission)),
		Imports:      &book.TransferBook{},
		Exports:      &book.TransferBook{},
	}
	if err := r.Supply.AddAll(supply); err != nil {
		return nil, fmt.Errorf("market %s supply: %w", marketID, err)
	}
	if err := r.Demand.AddAll(demand); err != nil {
		return nil, fmt.Errorf("market %s demand: %w", marketID, err)
	}
	for to, capacity := range transmission {
		if capacity < 0 {
			return nil, fmt.Errorf("market %s: negative transmission capacity %v to %s", marketID, capacity, to)
		}
		r.Transmission[to] = capacity
	}
	return r, nil
}

// TransmissionTo returns the remaining export capacity towards target, 0 if unlinked.
func (r *Request) TransmissionTo(target string) float64 {
	return r.Transmission[target]
}

// Clone deep-copies the request; books come back unsorted.
func (r *Request) Clone() *Request {
	out := &Request{
		MarketID:     r.MarketID,
		Supply:       r.Supply.Clone(),
		Demand:       r.Demand.Clone(),
		Transmission: make(map[string]float64, len(r.Transmission)),
		Imports:      r.Imports.Clone(),
		Exports:      r.Exports.Clone(),
	}
	for k, v := range r.Transmission {
		out.Transmission[k] = v
	}
	return out
}
