package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dayahead-market/internal/model"

	"gopkg.in/yaml.v3"
)

// LoadScenario reads a scenario from a .json file or, for any other
// extension, from YAML.
func LoadScenario(path string) (*model.Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc model.Scenario
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &sc)
	} else {
		err = yaml.Unmarshal(raw, &sc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse scenario %q: %w", path, err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", path)
	}
	return &sc, nil
}

// MarketIDs returns every market that appears in any step, sorted.
func MarketIDs(sc *model.Scenario) []string {
	seen := map[string]bool{}
	var out []string
	if sc == nil {
		return out
	}
	for _, st := range sc.Steps {
		for _, id := range st.MarketIDs() {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	sort.Strings(out)
	return out
}
