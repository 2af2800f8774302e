package coupling

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"dayahead-market/internal/clearing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultMinShiftIncrementMWh is the smallest demand shift worth committing.
	DefaultMinShiftIncrementMWh = 0.1
	// DefaultDemandOffsetMWh is added to the sheddable demand so that a shift
	// actually moves the price of the expensive market.
	DefaultDemandOffsetMWh = 1.0
)

// Balancer couples markets by repeatedly moving demand from the most
// expensive market to a cheaper linked neighbor until no move helps.
//
// The pair selection is greedy: the largest price gap wins. This finds a
// local equilibrium, not necessarily the welfare optimum of three or more
// markets.
type Balancer struct {
	offsetMWh float64
	increment decimal.Decimal
	log       *zap.SugaredLogger
}

// NewBalancer validates the demand offset and the minimum shift increment;
// log may be nil.
func NewBalancer(offsetMWh, incrementMWh float64, log *zap.SugaredLogger) (*Balancer, error) {
	if offsetMWh < 0 || math.IsNaN(offsetMWh) {
		return nil, fmt.Errorf("demand offset must be >= 0, got %v", offsetMWh)
	}
	if incrementMWh <= 0 || math.IsNaN(incrementMWh) {
		return nil, fmt.Errorf("minimum shift increment must be > 0, got %v", incrementMWh)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Balancer{
		offsetMWh: offsetMWh,
		increment: decimal.NewFromFloat(incrementMWh),
		log:       log,
	}, nil
}

// Summary reports what one Balance call did.
type Summary struct {
	// InitialPrices are the prices of the uncoupled markets.
	InitialPrices map[string]float64
	Shifts        []Shift
}

// Balance runs one coupling round over requests, keyed by market ID. The
// requests are modified in place: demand books are replaced, transfers are
// recorded in the import and export books and used capacity is deducted.
// Any clearing failure aborts the round.
func (b *Balancer) Balance(requests map[string]*Request) (*Summary, error) {
	r, err := b.newRound(requests)
	if err != nil {
		return nil, err
	}
	sum := &Summary{InitialPrices: make(map[string]float64, len(r.ids))}
	for _, id := range r.ids {
		d, err := r.clearing(id)
		if err != nil {
			return nil, err
		}
		sum.InitialPrices[id] = d.PriceEURperMWh
	}
	b.log.Debugw("coupling round started", "markets", len(r.ids), "energy_cost_eur", r.energyCost())

	for {
		next, err := r.nextCandidate()
		if err != nil {
			return nil, err
		}
		if next == nil {
			break
		}
		sum.Shifts = append(sum.Shifts, r.commit(next))
	}
	b.log.Debugw("coupling round done", "shifts", len(sum.Shifts), "energy_cost_eur", r.energyCost())
	return sum, nil
}

// round holds the state of one Balance call.
type round struct {
	b        *Balancer
	requests map[string]*Request
	ids      []string
	partners map[string][]string
	cache    map[string]clearing.Details
}

func (b *Balancer) newRound(requests map[string]*Request) (*round, error) {
	if len(requests) == 0 {
		return nil, errors.New("coupling: no markets")
	}
	r := &round{
		b:        b,
		requests: requests,
		partners: make(map[string][]string, len(requests)),
		cache:    make(map[string]clearing.Details, len(requests)),
	}
	for id, req := range requests {
		if req == nil || req.MarketID != id {
			return nil, fmt.Errorf("coupling: request for market %q is missing or mislabeled", id)
		}
		for to := range req.Transmission {
			if _, ok := requests[to]; !ok {
				return nil, fmt.Errorf("coupling: market %s links to unknown market %q", id, to)
			}
		}
		r.ids = append(r.ids, id)
	}
	sort.Strings(r.ids)

	// partner P can feed candidate C if P has capacity towards C
	for _, c := range r.ids {
		for _, p := range r.ids {
			if p != c && requests[p].TransmissionTo(c) > 0 {
				r.partners[c] = append(r.partners[c], p)
			}
		}
	}
	return r, nil
}

func (r *round) clearing(id string) (clearing.Details, error) {
	if d, ok := r.cache[id]; ok {
		return d, nil
	}
	req := r.requests[id]
	d, err := clearing.Clear(req.Supply, req.Demand)
	if err != nil {
		return clearing.Details{}, fmt.Errorf("coupling: clear market %s: %w", id, err)
	}
	r.cache[id] = d
	return d, nil
}

func (r *round) energyCost() float64 {
	total := 0.0
	for _, d := range r.cache {
		total += d.TradedEnergyMWh * d.PriceEURperMWh
	}
	return total
}

// nextCandidate returns the feasible shift with the largest original price
// gap over all markets, or nil when none is left.
func (r *round) nextCandidate() (*candidate, error) {
	var best *candidate
	largest := 0.0
	for _, id := range r.ids {
		c, err := r.bestPartner(id)
		if err != nil {
			return nil, err
		}
		if c == nil {
			continue
		}
		if gap := r.cache[c.expensive].PriceEURperMWh - r.cache[c.cheap].PriceEURperMWh; gap > largest {
			best, largest = c, gap
		}
	}
	return best, nil
}

func (r *round) bestPartner(expensive string) (*candidate, error) {
	own, err := r.clearing(expensive)
	if err != nil {
		return nil, err
	}
	var best *candidate
	largest := 0.0
	for _, cheap := range r.partners[expensive] {
		other, err := r.clearing(cheap)
		if err != nil {
			return nil, err
		}
		c, err := r.evaluate(expensive, cheap)
		if err != nil {
			return nil, err
		}
		if c == nil {
			continue
		}
		if gap := own.PriceEURperMWh - other.PriceEURperMWh; gap > largest {
			best, largest = c, gap
		}
	}
	return best, nil
}

// evaluate computes and simulates the smallest shift from expensive to cheap
// that changes the expensive market's price. It returns nil if the pair has
// no feasible shift.
func (r *round) evaluate(expensive, cheap string) (*candidate, error) {
	exp, chp := r.requests[expensive], r.requests[cheap]
	capacity := chp.TransmissionTo(expensive)
	if capacity <= 0 {
		return nil, nil
	}
	ce, err := r.clearing(expensive)
	if err != nil {
		return nil, err
	}
	cc, err := r.clearing(cheap)
	if err != nil {
		return nil, err
	}
	if ce.PriceEURperMWh <= cc.PriceEURperMWh || ce.PriceSettingDemandIndex < 0 {
		return nil, nil
	}
	// a price set by a demand step cannot be lowered by shedding demand
	if ce.MaxSheddableDemandMWh <= 0 {
		return nil, nil
	}

	spare := chp.Supply.TotalEnergyMWh() - chp.Demand.TotalEnergyMWh()
	if spare <= 0 {
		return nil, nil
	}
	entries := exp.Demand.Entries()
	awarded := entries[ce.PriceSettingDemandIndex].CumulativeUpperMWh

	amount := ce.MaxSheddableDemandMWh + r.b.offsetMWh
	amount = math.Min(amount, capacity)
	amount = math.Min(amount, spare)
	// the expensive market must keep some demand to remain clearable
	amount = math.Min(amount, awarded)
	amount = math.Min(amount, exp.Demand.TotalEnergyMWh()-r.b.increment.InexactFloat64())
	amount = r.b.floorToIncrement(amount)
	if amount < r.b.increment.InexactFloat64() {
		return nil, nil
	}

	newExp, newCheap, transfer, err := moveDemand(entries, ce.PriceSettingDemandIndex, amount, chp.Demand)
	if err != nil {
		return nil, fmt.Errorf("coupling: shift %.3f MWh %s -> %s: %w", amount, expensive, cheap, err)
	}
	ne, err := clearing.Clear(exp.Supply, newExp)
	if err != nil {
		return nil, fmt.Errorf("coupling: shift %.3f MWh %s -> %s: reclear %s: %w", amount, expensive, cheap, expensive, err)
	}
	nc, err := clearing.Clear(chp.Supply, newCheap)
	if err != nil {
		return nil, fmt.Errorf("coupling: shift %.3f MWh %s -> %s: reclear %s: %w", amount, expensive, cheap, cheap, err)
	}
	if ne.PriceEURperMWh < nc.PriceEURperMWh {
		return nil, nil
	}
	return &candidate{
		expensive:         expensive,
		cheap:             cheap,
		energyMWh:         amount,
		capped:            amount <= ce.MaxSheddableDemandMWh,
		expensiveDemand:   newExp,
		cheapDemand:       newCheap,
		transfer:          transfer,
		expensiveClearing: ne,
		cheapClearing:     nc,
	}, nil
}

func (b *Balancer) floorToIncrement(amount float64) float64 {
	if amount <= 0 || math.IsNaN(amount) {
		return 0
	}
	steps := decimal.NewFromFloat(amount).Div(b.increment).Floor()
	return steps.Mul(b.increment).InexactFloat64()
}

func (r *round) commit(c *candidate) Shift {
	exp, chp := r.requests[c.expensive], r.requests[c.cheap]
	before := chp.TransmissionTo(c.expensive)
	s := Shift{
		From:              c.expensive,
		To:                c.cheap,
		EnergyMWh:         c.energyMWh,
		FromPriceBefore:   r.cache[c.expensive].PriceEURperMWh,
		FromPriceAfter:    c.expensiveClearing.PriceEURperMWh,
		ToPriceBefore:     r.cache[c.cheap].PriceEURperMWh,
		ToPriceAfter:      c.cheapClearing.PriceEURperMWh,
		CapacityBeforeMWh: before,
		CapacityAfterMWh:  before - c.energyMWh,
		Capped:            c.capped,
	}

	exp.Demand = c.expensiveDemand
	exp.Imports.AddBook(c.transfer)
	chp.Demand = c.cheapDemand
	chp.Transmission[c.expensive] = s.CapacityAfterMWh
	chp.Exports.AddBook(c.transfer)

	r.cache[c.expensive] = c.expensiveClearing
	r.cache[c.cheap] = c.cheapClearing

	r.b.log.Debugw("demand shifted",
		"from", s.From, "to", s.To, "energy_mwh", s.EnergyMWh,
		"from_price", []float64{s.FromPriceBefore, s.FromPriceAfter},
		"to_price", []float64{s.ToPriceBefore, s.ToPriceAfter},
		"capacity_mwh", []float64{s.CapacityBeforeMWh, s.CapacityAfterMWh},
		"energy_cost_eur", r.energyCost(),
	)
	return s
}
