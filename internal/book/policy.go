package book

import (
	"math"

	"dayahead-market/internal/model"
)

// sidePolicy captures everything that differs between a supply and a demand book.
type sidePolicy struct {
	// ahead reports whether price a ranks strictly before price b.
	ahead   func(a, b float64) bool
	extreme float64
}

var policies = map[model.Side]sidePolicy{
	model.SideSupply: {
		ahead:   func(a, b float64) bool { return a < b },
		extreme: math.MaxFloat64,
	},
	model.SideDemand: {
		ahead:   func(a, b float64) bool { return a > b },
		extreme: -math.MaxFloat64,
	},
}

func (p sidePolicy) syntheticEntry(side model.Side) Entry {
	return Entry{
		Offer: model.Offer{
			PriceEURperMWh: p.extreme,
			Side:           side,
		},
		synthetic: true,
	}
}
