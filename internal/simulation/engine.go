package simulation

import (
	"errors"
	"fmt"
	"math/rand"

	"dayahead-market/internal/book"
	"dayahead-market/internal/clearing"
	"dayahead-market/internal/config"
	"dayahead-market/internal/coupling"
	"dayahead-market/internal/model"

	"go.uber.org/zap"
)

// ErrInvalidLink marks links that do not fit the markets of a step.
var ErrInvalidLink = errors.New("invalid link")

type Engine struct {
	market *clearing.Market
	// coupler is nil when markets always clear on their own.
	coupler *coupling.Coupler
	log     *zap.SugaredLogger
}

func New(market *clearing.Market, coupler *coupling.Coupler, log *zap.SugaredLogger) (*Engine, error) {
	if market == nil {
		return nil, errors.New("market is nil")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{market: market, coupler: coupler, log: log}, nil
}

// NewFromConfig wires market and coupler from the clearing and coupling
// sections of cfg.
func NewFromConfig(cfg *config.Config, log *zap.SugaredLogger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Clearing.Seed))
	market, err := clearing.NewMarket(
		book.DistributionMethod(cfg.Clearing.DistributionMethod),
		clearing.ShortagePrice(cfg.Clearing.ShortagePrice),
		rng, log,
	)
	if err != nil {
		return nil, err
	}
	var coupler *coupling.Coupler
	if cfg.Coupling.IsEnabled() {
		balancer, err := coupling.NewBalancer(cfg.Coupling.MinDemandOffsetMWh, cfg.Coupling.MinShiftIncrementMWh, log)
		if err != nil {
			return nil, err
		}
		coupler = coupling.NewCoupler(balancer, market, log)
	}
	return New(market, coupler, log)
}

// Run clears the steps of sc one after another.
func (e *Engine) Run(sc *model.Scenario) (*Result, error) {
	if sc == nil {
		return nil, fmt.Errorf("scenario is nil")
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("no steps")
	}

	res := &Result{
		Scenario: sc.Name,
		Steps:    make([]StepResult, 0, len(sc.Steps)),
	}
	for idx, st := range sc.Steps {
		sr, rows, err := e.RunStep(idx, st, sc.Links)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", idx, err)
		}
		res.Steps = append(res.Steps, sr)
		res.Ledger = append(res.Ledger, rows...)
		for _, m := range sr.Markets {
			res.TotalSystemCostEUR += m.SystemCostEUR
		}
	}
	e.log.Infow("simulation finished", "scenario", sc.Name, "steps", len(res.Steps), "ledger_rows", len(res.Ledger))
	return res, nil
}

// RunStep clears a single step. Markets are coupled when the engine has a
// coupler, the step has at least two markets and some link has capacity left;
// otherwise every market clears alone. fallback holds the scenario-wide links.
func (e *Engine) RunStep(idx int, st model.Step, fallback []model.Link) (StepResult, []LedgerRow, error) {
	ids := st.MarketIDs()
	if len(ids) == 0 {
		return StepResult{}, nil, fmt.Errorf("no markets")
	}
	transmission, err := transmissionByMarket(st.Markets, st.EffectiveLinks(fallback))
	if err != nil {
		return StepResult{}, nil, err
	}

	sr := StepResult{Index: idx, Start: st.Start, End: st.End}
	eventID := fmt.Sprintf("step-%d", idx)

	var results []coupling.MarketResult
	if e.coupler != nil && len(ids) > 1 && hasCapacity(transmission) {
		reqs := make([]*coupling.Request, 0, len(ids))
		for _, id := range ids {
			supply, demand, err := st.Markets[id].Offers()
			if err != nil {
				return StepResult{}, nil, fmt.Errorf("market %s: %w", id, err)
			}
			req, err := coupling.NewRequest(id, supply, demand, transmission[id])
			if err != nil {
				return StepResult{}, nil, err
			}
			reqs = append(reqs, req)
		}
		coupled, err := e.coupler.Couple(eventID, reqs)
		if err != nil {
			return StepResult{}, nil, err
		}
		results = coupled.Markets
		sr.Coupled = true
		sr.Links = coupled.Links
		sr.Shifts = coupled.Shifts
	} else {
		for _, id := range ids {
			supply, demand, err := st.Markets[id].Offers()
			if err != nil {
				return StepResult{}, nil, fmt.Errorf("market %s: %w", id, err)
			}
			sb, db := book.NewSupply(), book.NewDemand()
			if err := sb.AddAll(supply); err != nil {
				return StepResult{}, nil, fmt.Errorf("market %s supply: %w", id, err)
			}
			if err := db.AddAll(demand); err != nil {
				return StepResult{}, nil, fmt.Errorf("market %s demand: %w", id, err)
			}
			out, err := e.market.ClearBooks(fmt.Sprintf("%s/%s", eventID, id), sb, db)
			if err != nil {
				return StepResult{}, nil, err
			}
			results = append(results, coupling.MarketResult{
				MarketID:                id,
				Outcome:                 out,
				UncoupledPriceEURperMWh: out.PriceEURperMWh,
				Imports:                 &book.TransferBook{},
				Exports:                 &book.TransferBook{},
			})
		}
	}

	var rows []LedgerRow
	for _, mr := range results {
		sr.Markets = append(sr.Markets, MarketStep{
			MarketID:                mr.MarketID,
			PriceEURperMWh:          mr.Outcome.PriceEURperMWh,
			UncoupledPriceEURperMWh: mr.UncoupledPriceEURperMWh,
			TradedEnergyMWh:         mr.Outcome.TradedEnergyMWh,
			SystemCostEUR:           mr.Outcome.SystemCostEUR,
			ShortageMWh:             mr.Outcome.ShortageMWh,
			ImportedMWh:             mr.Imports.TotalEnergyMWh(),
			ExportedMWh:             mr.Exports.TotalEnergyMWh(),
		})
		rows = append(rows, ledgerRows(idx, st, mr)...)
	}
	return sr, rows, nil
}

// transmissionByMarket turns directed links into per-market export
// capacities. Parallel links between the same pair add up.
func transmissionByMarket(markets map[string]model.MarketBids, links []model.Link) (map[string]map[string]float64, error) {
	out := make(map[string]map[string]float64, len(markets))
	for i, l := range links {
		if _, ok := markets[l.From]; !ok {
			return nil, fmt.Errorf("%w: link %d: unknown market %q", ErrInvalidLink, i, l.From)
		}
		if _, ok := markets[l.To]; !ok {
			return nil, fmt.Errorf("%w: link %d: unknown market %q", ErrInvalidLink, i, l.To)
		}
		if l.From == l.To {
			return nil, fmt.Errorf("%w: link %d: market %s linked to itself", ErrInvalidLink, i, l.From)
		}
		if l.CapacityMWh < 0 {
			return nil, fmt.Errorf("%w: link %d: negative capacity %v from %s to %s", ErrInvalidLink, i, l.CapacityMWh, l.From, l.To)
		}
		if out[l.From] == nil {
			out[l.From] = map[string]float64{}
		}
		out[l.From][l.To] += l.CapacityMWh
	}
	return out, nil
}

func hasCapacity(transmission map[string]map[string]float64) bool {
	for _, caps := range transmission {
		for _, c := range caps {
			if c > 0 {
				return true
			}
		}
	}
	return false
}
