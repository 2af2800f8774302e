package models

import (
	"time"

	"dayahead-market/internal/coupling"
)

// RunResponse is the result of a clear or couple call; it can be fetched
// again by ID while cached.
type RunResponse struct {
	ID        string               `json:"id"`
	Kind      string               `json:"kind"` // "clear" or "couple"
	CreatedAt time.Time            `json:"created_at"`
	Coupled   bool                 `json:"coupled"`
	Markets   []MarketResult       `json:"markets"`
	Links     []coupling.LinkUsage `json:"links,omitempty"`
	Shifts    []coupling.Shift     `json:"shifts,omitempty"`
	Awards    []Award              `json:"awards"`
}

// MarketResult is the outcome of one market
type MarketResult struct {
	MarketID                string  `json:"market_id"`
	PriceEURperMWh          float64 `json:"price_eur_per_mwh"`
	UncoupledPriceEURperMWh float64 `json:"uncoupled_price_eur_per_mwh"`
	TradedEnergyMWh         float64 `json:"traded_energy_mwh"`
	SystemCostEUR           float64 `json:"system_cost_eur"`
	ShortageMWh             float64 `json:"shortage_mwh"`
	ImportedMWh             float64 `json:"imported_mwh"`
	ExportedMWh             float64 `json:"exported_mwh"`
}

// Award is what one offer got
type Award struct {
	MarketID     string   `json:"market_id"`
	TraderID     string   `json:"trader"`
	Side         string   `json:"side"`
	OfferedMWh   float64  `json:"offered_mwh"`
	Price        float64  `json:"price"`
	MarginalCost *float64 `json:"marginal_cost,omitempty"` // omitted when undisclosed
	AwardedMWh   float64  `json:"awarded_mwh"`
}

// MethodInfo describes a distribution method
type MethodInfo struct {
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases,omitempty"`
	Description string   `json:"description"`
}

// MethodsResponse lists the supported clearing settings
type MethodsResponse struct {
	DistributionMethods []MethodInfo `json:"distribution_methods"`
	ShortagePrices      []MethodInfo `json:"shortage_prices"`
	Default             string       `json:"default"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
