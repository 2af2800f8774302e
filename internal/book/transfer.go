package book

import (
	"sort"

	"dayahead-market/internal/model"
)

// TransferBook records offers moved between markets, grouped by trader.
// The zero value is ready to use.
type TransferBook struct {
	byTrader map[string][]model.Offer
}

func (t *TransferBook) Add(o model.Offer) {
	if t.byTrader == nil {
		t.byTrader = make(map[string][]model.Offer)
	}
	t.byTrader[o.TraderID] = append(t.byTrader[o.TraderID], o)
}

// AddBook appends every offer of other.
func (t *TransferBook) AddBook(other *TransferBook) {
	if other == nil {
		return
	}
	for _, id := range other.Traders() {
		for _, o := range other.byTrader[id] {
			t.Add(o)
		}
	}
}

// Traders returns the trader IDs in sorted order.
func (t *TransferBook) Traders() []string {
	ids := make([]string, 0, len(t.byTrader))
	for id := range t.byTrader {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (t *TransferBook) OffersOf(traderID string) []model.Offer {
	return append([]model.Offer(nil), t.byTrader[traderID]...)
}

func (t *TransferBook) EnergyOfMWh(traderID string) float64 {
	total := 0.0
	for _, o := range t.byTrader[traderID] {
		total += o.EnergyMWh
	}
	return total
}

func (t *TransferBook) TotalEnergyMWh() float64 {
	total := 0.0
	for id := range t.byTrader {
		total += t.EnergyOfMWh(id)
	}
	return total
}

func (t *TransferBook) Len() int {
	n := 0
	for _, offers := range t.byTrader {
		n += len(offers)
	}
	return n
}

func (t *TransferBook) Clone() *TransferBook {
	out := &TransferBook{}
	out.AddBook(t)
	return out
}
