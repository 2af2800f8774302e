package model

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Scenario is the on-disk input of a simulation run (YAML or JSON).
//
// Example:
//
//	name: two-zones
//	links:
//	  - {from: B, to: A, capacity_mwh: 100}
//	steps:
//	  - start: 2024-01-01T00:00:00Z
//	    markets:
//	      A:
//	        supply: [{trader: gen1, energy_mwh: 50, price: 30}]
//	        demand: [{trader: load1, energy_mwh: 60, price: 60}]
type Scenario struct {
	Name  string `json:"name" yaml:"name"`
	Links []Link `json:"links" yaml:"links"`
	Steps []Step `json:"steps" yaml:"steps"`
}

// Link is a directed transmission line: From can export up to CapacityMWh to To.
type Link struct {
	From        string  `json:"from" yaml:"from"`
	To          string  `json:"to" yaml:"to"`
	CapacityMWh float64 `json:"capacity_mwh" yaml:"capacity_mwh"`
}

// Step holds the bids of every market for one time step.
// Links, if present, replace the scenario-wide links for this step only.
type Step struct {
	Start   time.Time             `json:"start" yaml:"start"`
	End     time.Time             `json:"end" yaml:"end"`
	Markets map[string]MarketBids `json:"markets" yaml:"markets"`
	Links   []Link                `json:"links,omitempty" yaml:"links,omitempty"`
}

// MarketBids is the wire shape of one market's bids in a step.
type MarketBids struct {
	Supply []BidSpec `json:"supply" yaml:"supply"`
	Demand []BidSpec `json:"demand" yaml:"demand"`
}

// BidSpec is the wire shape of an Offer. A missing marginal cost means unknown.
type BidSpec struct {
	TraderID     string   `json:"trader" yaml:"trader" binding:"required"`
	EnergyMWh    float64  `json:"energy_mwh" yaml:"energy_mwh"`
	Price        float64  `json:"price" yaml:"price"`
	MarginalCost *float64 `json:"marginal_cost,omitempty" yaml:"marginal_cost,omitempty"`
}

func (b BidSpec) Offer(side Side) (Offer, error) {
	mc := math.NaN()
	if b.MarginalCost != nil {
		mc = *b.MarginalCost
	}
	return NewOffer(b.EnergyMWh, b.Price, mc, b.TraderID, side)
}

// Offers converts both sides, failing on the first malformed bid.
func (m MarketBids) Offers() (supply, demand []Offer, err error) {
	supply, err = toOffers(m.Supply, SideSupply)
	if err != nil {
		return nil, nil, err
	}
	demand, err = toOffers(m.Demand, SideDemand)
	if err != nil {
		return nil, nil, err
	}
	return supply, demand, nil
}

func toOffers(specs []BidSpec, side Side) ([]Offer, error) {
	out := make([]Offer, 0, len(specs))
	for i, b := range specs {
		o, err := b.Offer(side)
		if err != nil {
			return nil, fmt.Errorf("%s bid %d: %w", side, i, err)
		}
		out = append(out, o)
	}
	return out, nil
}

// MarketIDs returns the market IDs of the step in sorted order.
func (s Step) MarketIDs() []string {
	ids := make([]string, 0, len(s.Markets))
	for id := range s.Markets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EffectiveLinks returns the step's own links if it has any, else the fallback.
func (s Step) EffectiveLinks(fallback []Link) []Link {
	if len(s.Links) > 0 {
		return s.Links
	}
	return fallback
}
