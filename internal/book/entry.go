package book

import "dayahead-market/internal/model"

// Entry is one offer inside a sorted book.
// CumulativeUpperMWh is set when the book sorts; AwardedMWh when it is awarded.
type Entry struct {
	Offer              model.Offer
	CumulativeUpperMWh float64
	AwardedMWh         float64

	synthetic bool
}

// CumulativeLowerMWh is the cumulative power of all better-ranked entries.
func (e Entry) CumulativeLowerMWh() float64 {
	return e.CumulativeUpperMWh - e.Offer.EnergyMWh
}

func (e Entry) NotAwardedMWh() float64 {
	return e.Offer.EnergyMWh - e.AwardedMWh
}

func (e Entry) Price() float64 { return e.Offer.PriceEURperMWh }

func (e Entry) EnergyMWh() float64 { return e.Offer.EnergyMWh }

// Synthetic reports whether the entry is the zero-power extreme entry that
// closes every sorted book.
func (e Entry) Synthetic() bool { return e.synthetic }
