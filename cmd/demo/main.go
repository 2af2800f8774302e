package main

import (
	"flag"
	"fmt"
	"os"

	"dayahead-market/internal/config"
	"dayahead-market/internal/logging"
	"dayahead-market/internal/model"
	"dayahead-market/internal/report"
	"dayahead-market/internal/simulation"
)

// Demo:
// - Clear one market: two supply blocks against two demand blocks
// - Couple two markets: expensive A imports from cheap B over one link
// - Print prices, awards and demand shifts to show how the pieces fit together
func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	outCSV := flag.String("out", "", "Optional path to write the award ledger CSV")
	flag.Parse()

	cfg := config.Default()
	// A small offset keeps the first shift visible in the output.
	cfg.Coupling.MinDemandOffsetMWh = 0.5
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			panic(err)
		}
	}

	log := logging.Must(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	engine, err := simulation.NewFromConfig(cfg, log)
	if err != nil {
		panic(err)
	}

	single := &model.Scenario{
		Name: "single-market",
		Steps: []model.Step{{Markets: map[string]model.MarketBids{
			"DE": {
				Supply: []model.BidSpec{bid("coal", 50, 30), bid("gas", 50, 50)},
				Demand: []model.BidSpec{bid("industry", 60, 60), bid("flex", 40, 20)},
			},
		}}},
	}
	coupled := &model.Scenario{
		Name:  "two-zones",
		Links: []model.Link{{From: "B", To: "A", CapacityMWh: 100}},
		Steps: []model.Step{{Markets: map[string]model.MarketBids{
			"A": {
				Supply: []model.BidSpec{bid("a-base", 95, 50), bid("a-peak", 100, 80)},
				Demand: []model.BidSpec{bid("a-load", 100, 200)},
			},
			"B": {
				Supply: []model.BidSpec{bid("b-wind", 300, 40)},
				Demand: []model.BidSpec{bid("b-load", 100, 100)},
			},
		}}},
	}

	res := &simulation.Result{Scenario: "demo"}
	for _, sc := range []*model.Scenario{single, coupled} {
		r, err := engine.Run(sc)
		if err != nil {
			panic(err)
		}
		for _, st := range r.Steps {
			st.Index = len(res.Steps)
			res.Steps = append(res.Steps, st)
		}
		for _, row := range r.Ledger {
			row.Index += len(res.Steps) - len(r.Steps)
			res.Ledger = append(res.Ledger, row)
		}
	}

	fmt.Println("== Market results ==")
	if err := report.Steps(os.Stdout, res); err != nil {
		panic(err)
	}
	fmt.Println("\n== Demand shifts ==")
	if err := report.Shifts(os.Stdout, res); err != nil {
		panic(err)
	}
	fmt.Println("\n== Awards ==")
	for _, r := range res.Ledger {
		fmt.Printf("step=%d market=%s %-6s trader=%-8s offered=%6.1f MWh @ %6.2f awarded=%6.1f MWh\n",
			r.Index, r.Market, r.Side, r.Trader, r.OfferedMWh, r.BidPriceEURperMWh, r.AwardedMWh)
	}

	if *outCSV != "" {
		if err := simulation.WriteLedgerCSV(*outCSV, res.Ledger); err != nil {
			panic(err)
		}
		fmt.Printf("\nWrote ledger CSV: %s\n", *outCSV)
	}
}

func bid(trader string, mwh, price float64) model.BidSpec {
	return model.BidSpec{TraderID: trader, EnergyMWh: mwh, Price: price}
}
