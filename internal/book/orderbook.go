package book

import (
	"fmt"
	"sort"

	"dayahead-market/internal/model"
)

// OrderBook collects the offers of one side of one market for one time step.
//
// Offers may only be added while the book is unsorted. The first read through
// Entries sorts the book: a synthetic zero-power entry at the extreme price is
// appended so that supply and demand curves always cross, supply is ranked by
// ascending and demand by descending price, and cumulative power is computed.
type OrderBook struct {
	side    model.Side
	policy  sidePolicy
	entries []Entry
	sorted  bool

	awarded      bool
	awardedPrice float64
}

// New returns an empty book for side.
func New(side model.Side) (*OrderBook, error) {
	p, ok := policies[side]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownSide, side)
	}
	return &OrderBook{side: side, policy: p}, nil
}

// NewSupply returns an empty supply book.
func NewSupply() *OrderBook {
	return &OrderBook{side: model.SideSupply, policy: policies[model.SideSupply]}
}

// NewDemand returns an empty demand book.
func NewDemand() *OrderBook {
	return &OrderBook{side: model.SideDemand, policy: policies[model.SideDemand]}
}

func (b *OrderBook) Side() model.Side { return b.side }

func (b *OrderBook) Sorted() bool { return b.sorted }

func (b *OrderBook) Awarded() bool { return b.awarded }

// Add appends an offer. It fails once the book has been sorted.
func (b *OrderBook) Add(o model.Offer) error {
	if b.sorted {
		return fmt.Errorf("%w: %s book is already sorted, cannot add offers", model.ErrInvalidState, b.side)
	}
	if err := o.Validate(); err != nil {
		return err
	}
	if o.Side != b.side {
		return fmt.Errorf("%w: %s offer of trader %q added to %s book", model.ErrUnknownSide, o.Side, o.TraderID, b.side)
	}
	b.entries = append(b.entries, Entry{Offer: o})
	return nil
}

func (b *OrderBook) AddAll(offers []model.Offer) error {
	for i, o := range offers {
		if err := b.Add(o); err != nil {
			return fmt.Errorf("offer %d: %w", i, err)
		}
	}
	return nil
}

// Entries returns a copy of the sorted entries, sorting the book on first use.
func (b *OrderBook) Entries() []Entry {
	b.ensureSorted()
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len is the number of entries including the synthetic one once sorted.
func (b *OrderBook) Len() int { return len(b.entries) }

func (b *OrderBook) ensureSorted() {
	if b.sorted {
		return
	}
	b.entries = append(b.entries, b.policy.syntheticEntry(b.side))
	sort.SliceStable(b.entries, func(i, j int) bool {
		return b.policy.ahead(b.entries[i].Price(), b.entries[j].Price())
	})
	cum := 0.0
	for i := range b.entries {
		cum += b.entries[i].EnergyMWh()
		b.entries[i].CumulativeUpperMWh = cum
	}
	b.sorted = true
}

// Offers returns the real offers in the book's current order.
func (b *OrderBook) Offers() []model.Offer {
	out := make([]model.Offer, 0, len(b.entries))
	for _, e := range b.entries {
		if !e.synthetic {
			out = append(out, e.Offer)
		}
	}
	return out
}

// TotalEnergyMWh sums the offered energy of all entries.
func (b *OrderBook) TotalEnergyMWh() float64 {
	total := 0.0
	for _, e := range b.entries {
		total += e.EnergyMWh()
	}
	return total
}

// ByTrader returns the entries of one trader in the book's current order.
func (b *OrderBook) ByTrader(traderID string) []Entry {
	var out []Entry
	for _, e := range b.entries {
		if !e.synthetic && e.Offer.TraderID == traderID {
			out = append(out, e)
		}
	}
	return out
}

// HighestPricedEntry returns the most expensive entry with positive energy.
func (b *OrderBook) HighestPricedEntry() (Entry, error) {
	if !b.sorted {
		return Entry{}, fmt.Errorf("%w: %s book not sorted, highest offer unknown", model.ErrInvalidState, b.side)
	}
	found := false
	var best Entry
	for _, e := range b.entries {
		if e.EnergyMWh() <= 0 {
			continue
		}
		if !found || e.Price() > best.Price() {
			best, found = e, true
		}
	}
	if !found {
		return Entry{}, fmt.Errorf("%s book has no offer with energy > 0", b.side)
	}
	return best, nil
}

// PriceSettingEntry returns one of the entries at the awarded price, or the
// first entry ranked behind it when no entry matches exactly.
func (b *OrderBook) PriceSettingEntry() (Entry, error) {
	if !b.awarded {
		return Entry{}, fmt.Errorf("%w: %s book not awarded, price-setting offer unknown", model.ErrInvalidState, b.side)
	}
	idx := sort.Search(len(b.entries), func(i int) bool {
		return !b.policy.ahead(b.entries[i].Price(), b.awardedPrice)
	})
	if idx == len(b.entries) {
		idx--
	}
	return b.entries[idx], nil
}

// UnsheddableDemandMWh sums energy bid at or above the scarcity price.
func (b *OrderBook) UnsheddableDemandMWh() float64 {
	total := 0.0
	for _, e := range b.entries {
		if e.Price() >= model.ScarcityPriceEURperMWh {
			total += e.EnergyMWh()
		}
	}
	return total
}

// PowerShortageMWh sums the demand left unserved although it bid above the
// most expensive supply offer.
func (b *OrderBook) PowerShortageMWh(highestSupply Entry) (float64, error) {
	if !b.awarded {
		return 0, fmt.Errorf("%w: %s book not awarded, shortage unknown", model.ErrInvalidState, b.side)
	}
	total := 0.0
	for _, e := range b.entries {
		if e.Price() > highestSupply.Price() && e.NotAwardedMWh() > 0 {
			total += e.NotAwardedMWh()
		}
	}
	return total, nil
}

// AwardedPrice returns the price of the last Award call.
func (b *OrderBook) AwardedPrice() (float64, bool) {
	return b.awardedPrice, b.awarded
}

// AwardedEnergyMWh sums the energy awarded to all entries.
func (b *OrderBook) AwardedEnergyMWh() float64 {
	total := 0.0
	for _, e := range b.entries {
		total += e.AwardedMWh
	}
	return total
}

// Clone returns an independent, unsorted book holding the same real offers.
func (b *OrderBook) Clone() *OrderBook {
	out := &OrderBook{
		side:    b.side,
		policy:  b.policy,
		entries: make([]Entry, 0, len(b.entries)),
	}
	for _, e := range b.entries {
		if !e.synthetic {
			out.entries = append(out.entries, Entry{Offer: e.Offer})
		}
	}
	return out
}

func (b *OrderBook) String() string {
	return fmt.Sprintf("%s book (%d entries, %.3f MWh, sorted=%t)", b.side, len(b.entries), b.TotalEnergyMWh(), b.sorted)
}
