package model

import (
	"fmt"
	"math"
)

// Offer is one price/quantity bid submitted to a market for a single time step.
// Units:
// - EnergyMWh: MWh, >= 0
// - PriceEURperMWh: limit price, may be negative or very large ("must clear")
// - MarginalCostEURperMWh: true cost of the bidder, NaN if unknown
type Offer struct {
	EnergyMWh             float64
	PriceEURperMWh        float64
	MarginalCostEURperMWh float64
	TraderID              string
	Side                  Side
}

// NewOffer builds an offer and validates it.
func NewOffer(energyMWh, price, marginalCost float64, traderID string, side Side) (Offer, error) {
	o := Offer{
		EnergyMWh:             energyMWh,
		PriceEURperMWh:        price,
		MarginalCostEURperMWh: marginalCost,
		TraderID:              traderID,
		Side:                  side,
	}
	if err := o.Validate(); err != nil {
		return Offer{}, err
	}
	return o, nil
}

// Validate checks the side, a non-negative energy and a known price.
func (o Offer) Validate() error {
	if !o.Side.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSide, o.Side)
	}
	if o.EnergyMWh < 0 || math.IsNaN(o.EnergyMWh) {
		return fmt.Errorf("%w: got %v", ErrNegativeEnergy, o.EnergyMWh)
	}
	if math.IsNaN(o.PriceEURperMWh) {
		return fmt.Errorf("offer price of trader %q is NaN", o.TraderID)
	}
	return nil
}

// HasMarginalCost reports whether the bidder disclosed its true cost.
func (o Offer) HasMarginalCost() bool {
	return !math.IsNaN(o.MarginalCostEURperMWh)
}

// WithEnergy returns a copy carrying a different quantity.
func (o Offer) WithEnergy(energyMWh float64) Offer {
	o.EnergyMWh = energyMWh
	return o
}

// Split moves movedMWh out of the offer. The remaining part keeps the rest so
// that remaining.EnergyMWh + moved.EnergyMWh == o.EnergyMWh.
func (o Offer) Split(movedMWh float64) (remaining, moved Offer, err error) {
	if movedMWh < 0 || movedMWh > o.EnergyMWh || math.IsNaN(movedMWh) {
		return Offer{}, Offer{}, fmt.Errorf("split %v MWh out of %v MWh offer: out of range", movedMWh, o.EnergyMWh)
	}
	moved = o.WithEnergy(movedMWh)
	remaining = o.WithEnergy(o.EnergyMWh - movedMWh)
	return remaining, moved, nil
}
