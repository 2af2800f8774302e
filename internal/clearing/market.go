package clearing

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"dayahead-market/internal/book"
	"dayahead-market/internal/model"

	"go.uber.org/zap"
)

// ShortagePrice selects the price reported when demand bidding above the
// most expensive supply offer stays unserved.
type ShortagePrice string

const (
	// ScarcityPrice keeps the price found by the clearing.
	ScarcityPrice ShortagePrice = "SCARCITY_PRICE"
	// LastSupplyPrice reports the price of the most expensive supply offer.
	LastSupplyPrice ShortagePrice = "LAST_SUPPLY_PRICE"
)

func ParseShortagePrice(raw string) (ShortagePrice, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "SCARCITY_PRICE", "SCARCITYPRICE":
		return ScarcityPrice, nil
	case "LAST_SUPPLY_PRICE", "LASTSUPPLYPRICE":
		return LastSupplyPrice, nil
	default:
		return "", fmt.Errorf("shortage price type %q not implemented", raw)
	}
}

// Outcome is a cleared and awarded market.
type Outcome struct {
	Result
	// SystemCostEUR sums awarded supply energy times its disclosed marginal cost.
	SystemCostEUR float64
	// ShortageMWh is demand left unserved although it outbid all supply.
	ShortageMWh float64

	Supply *book.OrderBook
	Demand *book.OrderBook
}

func (o *Outcome) Scarcity() bool { return o.ShortageMWh > 0 }

// Market clears single markets and awards their books.
type Market struct {
	method   book.DistributionMethod
	shortage ShortagePrice
	rng      *rand.Rand
	log      *zap.SugaredLogger
}

// NewMarket validates its settings. rng may be nil unless method is Randomize;
// log may be nil.
func NewMarket(method book.DistributionMethod, shortage ShortagePrice, rng *rand.Rand, log *zap.SugaredLogger) (*Market, error) {
	method, err := book.ParseDistributionMethod(string(method))
	if err != nil {
		return nil, err
	}
	if method == book.Randomize && rng == nil {
		return nil, fmt.Errorf("distribution method %s needs a random source", method)
	}
	shortage, err = ParseShortagePrice(string(shortage))
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Market{method: method, shortage: shortage, rng: rng, log: log}, nil
}

func (m *Market) Method() book.DistributionMethod { return m.method }

// ClearOffers sorts the offers into fresh books and clears them.
func (m *Market) ClearOffers(eventID string, offers []model.Offer) (*Outcome, error) {
	supply, demand := book.NewSupply(), book.NewDemand()
	for i, o := range offers {
		var err error
		switch o.Side {
		case model.SideSupply:
			err = supply.Add(o)
		case model.SideDemand:
			err = demand.Add(o)
		default:
			err = fmt.Errorf("%w: %q", model.ErrUnknownSide, o.Side)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: offer %d: %w", eventID, i, err)
		}
	}
	return m.ClearBooks(eventID, supply, demand)
}

// ClearBooks clears the given books and awards every entry in place.
func (m *Market) ClearBooks(eventID string, supply, demand *book.OrderBook) (*Outcome, error) {
	details, err := Clear(supply, demand)
	if err != nil {
		m.log.Errorw("market clearing failed", "event", eventID, "error", err)
		return nil, fmt.Errorf("%s: market clearing failed: %w", eventID, err)
	}
	if err := supply.Award(details.TradedEnergyMWh, details.PriceEURperMWh, m.method, m.rng); err != nil {
		return nil, fmt.Errorf("%s: award supply: %w", eventID, err)
	}
	if err := demand.Award(details.TradedEnergyMWh, details.PriceEURperMWh, m.method, m.rng); err != nil {
		return nil, fmt.Errorf("%s: award demand: %w", eventID, err)
	}

	out := &Outcome{
		Result:        details.Result,
		SystemCostEUR: SystemCost(supply),
		Supply:        supply,
		Demand:        demand,
	}
	if highest, err := supply.HighestPricedEntry(); err == nil {
		shortage, err := demand.PowerShortageMWh(highest)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", eventID, err)
		}
		out.ShortageMWh = shortage
		if shortage > 0 && m.shortage == LastSupplyPrice {
			out.PriceEURperMWh = highest.Price()
		}
	}
	if out.Scarcity() {
		m.log.Warnw("scarcity", "event", eventID, "shortage_mwh", out.ShortageMWh, "price", out.PriceEURperMWh)
	}
	m.log.Debugw("market cleared", "event", eventID,
		"price", out.PriceEURperMWh, "traded_mwh", out.TradedEnergyMWh, "system_cost_eur", out.SystemCostEUR)
	return out, nil
}

// SystemCost sums awarded energy times marginal cost over a supply book,
// skipping entries whose cost is unknown.
func SystemCost(supply *book.OrderBook) float64 {
	total := 0.0
	for _, e := range supply.Entries() {
		if math.IsNaN(e.AwardedMWh) || !e.Offer.HasMarginalCost() {
			continue
		}
		total += e.AwardedMWh * e.Offer.MarginalCostEURperMWh
	}
	return total
}
