package book

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"dayahead-market/internal/model"
)

// DistributionMethod decides how offers exactly at the clearing price share
// the energy left after all better-ranked offers were served.
// Keep these values stable; they are used in config files.
type DistributionMethod string

const (
	FirstComeFirstServe DistributionMethod = "FIRST_COME_FIRST_SERVE"
	Randomize           DistributionMethod = "RANDOMIZE"
	ProRata             DistributionMethod = "SAME_SHARES"
)

// DistributionMethods lists every supported method.
func DistributionMethods() []DistributionMethod {
	return []DistributionMethod{FirstComeFirstServe, Randomize, ProRata}
}

// ParseDistributionMethod is case-insensitive and accepts "PRO_RATA" as an alias.
func ParseDistributionMethod(raw string) (DistributionMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "FIRST_COME_FIRST_SERVE", "FCFS":
		return FirstComeFirstServe, nil
	case "RANDOMIZE", "RANDOM":
		return Randomize, nil
	case "SAME_SHARES", "PRO_RATA":
		return ProRata, nil
	default:
		return "", fmt.Errorf("unknown distribution method %q", raw)
	}
}

// Award sets the awarded energy of every entry for a clearing of totalMWh at
// price. Entries ranked ahead of the cut get their full energy, entries behind
// it get nothing, and entries exactly at price share the rest by method.
// rng is only used by Randomize.
func (b *OrderBook) Award(totalMWh, price float64, method DistributionMethod, rng *rand.Rand) error {
	if !b.sorted {
		return fmt.Errorf("%w: %s book must be sorted before awarding", model.ErrInvalidState, b.side)
	}
	switch method {
	case FirstComeFirstServe, ProRata:
	case Randomize:
		if rng == nil {
			return fmt.Errorf("distribution method %s needs a random source", method)
		}
	default:
		return fmt.Errorf("power awarding method %q not implemented", method)
	}

	b.awarded = true
	b.awardedPrice = price

	var setting []int
	for i := range b.entries {
		e := &b.entries[i]
		if e.Price() == price {
			e.AwardedMWh = 0
			if e.EnergyMWh() > 0 {
				setting = append(setting, i)
			}
			continue
		}
		if e.CumulativeUpperMWh <= totalMWh {
			e.AwardedMWh = e.EnergyMWh()
		} else {
			e.AwardedMWh = 0
		}
	}
	if len(setting) == 0 {
		return nil
	}

	lower := math.Inf(1)
	for _, i := range setting {
		lower = math.Min(lower, b.entries[i].CumulativeLowerMWh())
	}
	remaining := math.Max(0, totalMWh-lower)

	switch method {
	case FirstComeFirstServe:
		b.awardInOrder(remaining, setting)
	case Randomize:
		rng.Shuffle(len(setting), func(i, j int) { setting[i], setting[j] = setting[j], setting[i] })
		b.awardInOrder(remaining, setting)
	case ProRata:
		offered := 0.0
		for _, i := range setting {
			offered += b.entries[i].EnergyMWh()
		}
		share := math.Min(1, remaining/offered)
		for _, i := range setting {
			b.entries[i].AwardedMWh = b.entries[i].EnergyMWh() * share
		}
	}
	return nil
}

func (b *OrderBook) awardInOrder(available float64, setting []int) {
	for _, i := range setting {
		awarded := math.Min(b.entries[i].EnergyMWh(), available)
		b.entries[i].AwardedMWh = awarded
		available -= awarded
	}
}
