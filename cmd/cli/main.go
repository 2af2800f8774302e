package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"dayahead-market/internal/analysis"
	"dayahead-market/internal/config"
	"dayahead-market/internal/data"
	"dayahead-market/internal/logging"
	"dayahead-market/internal/model"
	"dayahead-market/internal/report"
	"dayahead-market/internal/simulation"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "clear":
		cmdStep(os.Args[2:], false)
	case "couple":
		cmdStep(os.Args[2:], true)
	case "run":
		cmdRun(os.Args[2:])
	case "rank":
		cmdRank(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli clear  --scenario examples/two_zones.yaml [--step 0]")
	fmt.Println("  cli couple --scenario examples/two_zones.yaml [--step 0]")
	fmt.Println("  cli run    --config examples/config.yaml --out results/ledger.csv")
	fmt.Println("  cli rank   --config examples/config.yaml")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - clear ignores links, couple moves demand across them")
	fmt.Println("  - run writes one CSV row per offer and step with its awarded energy")
}

type common struct {
	cfgPath      *string
	scenarioPath *string
}

func commonFlags(fs *flag.FlagSet) common {
	return common{
		cfgPath:      fs.String("config", "", "Path to YAML config (optional)"),
		scenarioPath: fs.String("scenario", "", "Path to scenario YAML/JSON (overrides scenario_file)"),
	}
}

// load returns the config and scenario selected by the flags.
func (c common) load() (*config.Config, *model.Scenario) {
	cfg := config.Default()
	if *c.cfgPath != "" {
		var err error
		cfg, err = config.Load(*c.cfgPath)
		if err != nil {
			fail(err)
		}
	}
	path := cfg.ScenarioFile
	if *c.scenarioPath != "" {
		path = *c.scenarioPath
	}
	if path == "" {
		fail(fmt.Errorf("--scenario is required when the config has no scenario_file"))
	}
	sc, err := data.LoadScenario(path)
	if err != nil {
		fail(err)
	}
	return cfg, sc
}

func cmdStep(args []string, couple bool) {
	name := "clear"
	if couple {
		name = "couple"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cf := commonFlags(fs)
	step := fs.Int("step", 0, "Index of the step to clear")
	_ = fs.Parse(args)

	cfg, sc := cf.load()
	if *step < 0 || *step >= len(sc.Steps) {
		fail(fmt.Errorf("step %d out of range, scenario has %d steps", *step, len(sc.Steps)))
	}
	cfg.Coupling.Enabled = &couple

	engine := newEngine(cfg)
	sr, _, err := engine.RunStep(*step, sc.Steps[*step], sc.Links)
	if err != nil {
		fail(err)
	}
	res := &simulation.Result{Scenario: sc.Name, Steps: []simulation.StepResult{sr}}
	if err := report.Steps(os.Stdout, res); err != nil {
		fail(err)
	}
	if couple {
		fmt.Println()
		if err := report.Shifts(os.Stdout, res); err != nil {
			fail(err)
		}
	}
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cf := commonFlags(fs)
	outPath := fs.String("out", "results/ledger.csv", "Output CSV path")
	_ = fs.Parse(args)

	cfg, sc := cf.load()
	res, err := newEngine(cfg).Run(sc)
	if err != nil {
		fail(err)
	}

	// ensure output dir exists
	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		fail(err)
	}
	if err := simulation.WriteLedgerCSV(*outPath, res.Ledger); err != nil {
		fail(err)
	}

	if err := report.Steps(os.Stdout, res); err != nil {
		fail(err)
	}
	fmt.Printf("Wrote %d rows to %s\n", len(res.Ledger), *outPath)
	fmt.Printf("Total system cost=%.2f EUR over %d steps\n", res.TotalSystemCostEUR, len(res.Steps))
}

func cmdRank(args []string) {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	cf := commonFlags(fs)
	_ = fs.Parse(args)

	cfg, sc := cf.load()
	res, err := newEngine(cfg).Run(sc)
	if err != nil {
		fail(err)
	}
	if err := report.Ranking(os.Stdout, analysis.RankBySpread(res)); err != nil {
		fail(err)
	}
	fmt.Println()
	if err := report.Dispersion(os.Stdout, analysis.PriceDispersion(res)); err != nil {
		fail(err)
	}
}

func newEngine(cfg *config.Config) *simulation.Engine {
	log := logging.Must(cfg.Log.Level, cfg.Log.Format)
	engine, err := simulation.NewFromConfig(cfg, log)
	if err != nil {
		fail(err)
	}
	return engine
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
