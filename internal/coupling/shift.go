package coupling

import (
	"fmt"

	"dayahead-market/internal/book"
	"dayahead-market/internal/clearing"
)

// Shift describes one committed move of demand from an expensive to a cheap market.
type Shift struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	EnergyMWh float64 `json:"energy_mwh"`

	FromPriceBefore float64 `json:"from_price_before"`
	FromPriceAfter  float64 `json:"from_price_after"`
	ToPriceBefore   float64 `json:"to_price_before"`
	ToPriceAfter    float64 `json:"to_price_after"`

	CapacityBeforeMWh float64 `json:"capacity_before_mwh"`
	CapacityAfterMWh  float64 `json:"capacity_after_mwh"`

	// Capped is set when capacity, spare supply, remaining demand or rounding
	// kept the shift within the demand the expensive market could shed at its
	// old price. Only such a shift may leave that price unchanged.
	Capped bool `json:"capped"`
}

// candidate is a simulated shift that has not been committed yet.
type candidate struct {
	expensive, cheap string
	energyMWh        float64
	capped           bool

	expensiveDemand *book.OrderBook
	cheapDemand     *book.OrderBook
	transfer        *book.TransferBook

	expensiveClearing clearing.Details
	cheapClearing     clearing.Details
}

// moveDemand builds the demand books that result from moving amount MWh out
// of the expensive market. Entries ranked behind start were not awarded and
// stay where they are. From start towards the best-ranked entry demand is
// moved until amount is reached; the entry straddling the boundary is split.
func moveDemand(expensive []book.Entry, start int, amount float64, cheap *book.OrderBook) (*book.OrderBook, *book.OrderBook, *book.TransferBook, error) {
	newExpensive := book.NewDemand()
	newCheap := cheap.Clone()
	transfer := &book.TransferBook{}

	for i := len(expensive) - 1; i > start; i-- {
		if expensive[i].Synthetic() {
			continue
		}
		if err := newExpensive.Add(expensive[i].Offer); err != nil {
			return nil, nil, nil, err
		}
	}

	moved := 0.0
	for i := start; i >= 0; i-- {
		o := expensive[i].Offer
		if o.EnergyMWh == 0 {
			continue
		}
		if moved >= amount {
			if err := newExpensive.Add(o); err != nil {
				return nil, nil, nil, err
			}
			continue
		}
		if moved+o.EnergyMWh > amount {
			rest, part, err := o.Split(amount - moved)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("split offer of %s: %w", o.TraderID, err)
			}
			if err := newExpensive.Add(rest); err != nil {
				return nil, nil, nil, err
			}
			if err := newCheap.Add(part); err != nil {
				return nil, nil, nil, err
			}
			transfer.Add(part)
			moved = amount
			continue
		}
		if err := newCheap.Add(o); err != nil {
			return nil, nil, nil, err
		}
		transfer.Add(o)
		moved += o.EnergyMWh
	}
	return newExpensive, newCheap, transfer, nil
}
