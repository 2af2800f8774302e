package analysis

import (
	"sort"

	"dayahead-market/internal/simulation"
)

// Markets lists every market of the run in sorted order.
func Markets(res *simulation.Result) []string {
	if res == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, st := range res.Steps {
		for _, m := range st.Markets {
			if !seen[m.MarketID] {
				seen[m.MarketID] = true
				out = append(out, m.MarketID)
			}
		}
	}
	sort.Strings(out)
	return out
}

// SummarizeAll returns one summary per market, sorted by market ID.
func SummarizeAll(res *simulation.Result) []PriceSummary {
	ids := Markets(res)
	out := make([]PriceSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, Summarize(res, id))
	}
	return out
}

// RankBySpread sorts the market summaries descending by P95-P05 spread.
func RankBySpread(res *simulation.Result) []PriceSummary {
	out := SummarizeAll(res)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SpreadP95P05 > out[j].SpreadP95P05
	})
	return out
}
