package model

import (
	"fmt"
	"strings"
)

// Side tells whether an offer sells (supply) or buys (demand) energy.
// Keep these values stable; they are used in CSV and JSON output.
type Side string

const (
	SideSupply Side = "SUPPLY"
	SideDemand Side = "DEMAND"
)

func (s Side) Valid() bool {
	return s == SideSupply || s == SideDemand
}

// ParseSide accepts the canonical names case-insensitively, plus "sell"/"buy".
func ParseSide(raw string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUPPLY", "SELL":
		return SideSupply, nil
	case "DEMAND", "BUY":
		return SideDemand, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSide, raw)
	}
}
