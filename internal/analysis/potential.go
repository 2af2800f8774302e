package analysis

import (
	"math"
	"sort"
	"time"

	"dayahead-market/internal/simulation"
)

// PriceSummary is a market-level summary over a simulation run that you can
// use for ranking.
type PriceSummary struct {
	Market string

	Start time.Time
	End   time.Time

	Count int

	MinPrice  float64
	MaxPrice  float64
	MeanPrice float64
	P05Price  float64
	P95Price  float64

	SpreadP95P05 float64

	TradedEnergyMWh float64
	SystemCostEUR   float64
	ImportedMWh     float64
	ExportedMWh     float64
	// ScarcitySteps counts steps with unserved demand that outbid all supply.
	ScarcitySteps int
}

// Summarize computes the summary of one market. Steps without the market
// are skipped.
func Summarize(res *simulation.Result, market string) PriceSummary {
	p := PriceSummary{Market: market}
	if res == nil {
		return p
	}

	sum := 0.0
	minv := math.Inf(1)
	maxv := math.Inf(-1)
	var vals []float64
	for _, st := range res.Steps {
		for _, m := range st.Markets {
			if m.MarketID != market {
				continue
			}
			if p.Count == 0 {
				p.Start = st.Start
			}
			p.End = st.End
			p.Count++

			v := m.PriceEURperMWh
			vals = append(vals, v)
			sum += v
			if v < minv {
				minv = v
			}
			if v > maxv {
				maxv = v
			}
			p.TradedEnergyMWh += m.TradedEnergyMWh
			p.SystemCostEUR += m.SystemCostEUR
			p.ImportedMWh += m.ImportedMWh
			p.ExportedMWh += m.ExportedMWh
			if m.ShortageMWh > 0 {
				p.ScarcitySteps++
			}
		}
	}
	if len(vals) == 0 {
		return p
	}
	sort.Float64s(vals)
	p.MinPrice = minv
	p.MaxPrice = maxv
	p.MeanPrice = sum / float64(len(vals))
	p.P05Price = percentileSorted(vals, 0.05)
	p.P95Price = percentileSorted(vals, 0.95)
	p.SpreadP95P05 = p.P95Price - p.P05Price
	return p
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Dispersion is the gap between the most and least expensive market of one
// step, before and after coupling.
type Dispersion struct {
	Index   int
	Start   time.Time
	Coupled bool
	// BeforeEURperMWh uses the uncoupled prices.
	BeforeEURperMWh float64
	AfterEURperMWh  float64
}

// Convergence is how much of the price gap coupling closed, in [0,1] when
// coupling did not widen it. A step without a gap converged fully.
func (d Dispersion) Convergence() float64 {
	if d.BeforeEURperMWh == 0 {
		return 1
	}
	return 1 - d.AfterEURperMWh/d.BeforeEURperMWh
}

func PriceDispersion(res *simulation.Result) []Dispersion {
	if res == nil {
		return nil
	}
	out := make([]Dispersion, 0, len(res.Steps))
	for _, st := range res.Steps {
		d := Dispersion{Index: st.Index, Start: st.Start, Coupled: st.Coupled}
		if len(st.Markets) > 0 {
			before := make([]float64, 0, len(st.Markets))
			after := make([]float64, 0, len(st.Markets))
			for _, m := range st.Markets {
				before = append(before, m.UncoupledPriceEURperMWh)
				after = append(after, m.PriceEURperMWh)
			}
			d.BeforeEURperMWh = spread(before)
			d.AfterEURperMWh = spread(after)
		}
		out = append(out, d)
	}
	return out
}

func spread(vals []float64) float64 {
	minv, maxv := vals[0], vals[0]
	for _, v := range vals[1:] {
		minv = math.Min(minv, v)
		maxv = math.Max(maxv, v)
	}
	return maxv - minv
}
