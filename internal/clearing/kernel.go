package clearing

import (
	"errors"
	"fmt"
	"math"

	"dayahead-market/internal/book"
	"dayahead-market/internal/model"
)

// ErrNonPositiveDemand is returned when the demand book holds no energy.
var ErrNonPositiveDemand = errors.New("non positive demand encountered")

// Clear matches the merit-order curves of a supply and a demand book and
// returns the uniform price and traded energy. Both books are sorted on
// demand; the first demand price is expected to exceed the first supply price.
//
// The walk starts with the best-ranked entry of each book. When the demand
// price drops below the supply price the curves have been cut; otherwise the
// entry with the smaller cumulative power (or both, if equal) is passed.
func Clear(supply, demand *book.OrderBook) (Details, error) {
	if supply == nil || demand == nil {
		return Details{}, errors.New("clear: nil order book")
	}
	if supply.Side() != model.SideSupply || demand.Side() != model.SideDemand {
		return Details{}, fmt.Errorf("clear: got %s and %s books, want SUPPLY and DEMAND", supply.Side(), demand.Side())
	}
	s := supply.Entries()
	d := demand.Entries()
	if d[len(d)-1].CumulativeUpperMWh <= 0 {
		return Details{}, ErrNonPositiveDemand
	}

	var lastSupplyPrice, lastSupplyPower, lastDemandPower float64
	si, di := 0, 0
	for si < len(s) && di < len(d) {
		supplyPrice, demandPrice := s[si].Price(), d[di].Price()
		supplyPower, demandPower := s[si].CumulativeUpperMWh, d[di].CumulativeUpperMWh

		switch {
		case demandPrice < supplyPrice:
			out := Details{
				MaxSheddableDemandMWh: math.Max(0, lastDemandPower-lastSupplyPower),
			}
			switch {
			case lastSupplyPower < lastDemandPower:
				// supply step is cut
				out.Result = Result{TradedEnergyMWh: lastDemandPower, PriceEURperMWh: supplyPrice}
				out.PriceSettingDemandIndex, out.PriceSettingSupplyIndex = di-1, si
			case lastSupplyPower == lastDemandPower:
				// cut at a step boundary of both curves
				out.Result = Result{TradedEnergyMWh: lastSupplyPower, PriceEURperMWh: math.Max(demandPrice, lastSupplyPrice)}
				out.PriceSettingDemandIndex, out.PriceSettingSupplyIndex = di-1, si-1
			default:
				// demand step is cut
				out.Result = Result{TradedEnergyMWh: lastSupplyPower, PriceEURperMWh: demandPrice}
				out.PriceSettingDemandIndex, out.PriceSettingSupplyIndex = di, si-1
			}
			return out, nil
		case demandPrice == supplyPrice:
			return Details{
				Result:                  Result{TradedEnergyMWh: math.Min(supplyPower, demandPower), PriceEURperMWh: demandPrice},
				PriceSettingDemandIndex: di,
				PriceSettingSupplyIndex: si,
				MaxSheddableDemandMWh:   math.Max(0, lastDemandPower-lastSupplyPower),
			}, nil
		}

		advanceSupply := supplyPower <= demandPower
		if supplyPower >= demandPower {
			lastDemandPower = demandPower
			di++
		}
		if advanceSupply {
			lastSupplyPrice = supplyPrice
			lastSupplyPower = supplyPower
			si++
		}
	}
	return Details{}, errors.New("clear: supply and demand curves do not cross")
}
