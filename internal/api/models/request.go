package models

import "dayahead-market/internal/model"

// ClearRequest represents the request body for clearing a single market
type ClearRequest struct {
	MarketID string          `json:"market_id"` // default: "market"
	Supply   []model.BidSpec `json:"supply" binding:"dive"`
	Demand   []model.BidSpec `json:"demand" binding:"required,min=1,dive"`
	Options  ClearingOptions `json:"options,omitempty"`
}

// CoupleRequest represents the request body for coupling linked markets
type CoupleRequest struct {
	Markets map[string]model.MarketBids `json:"markets" binding:"required,min=1"`
	Links   []model.Link                `json:"links"`
	Options CouplingOptions             `json:"options,omitempty"`
}

// ClearingOptions override the server's clearing config for one request
type ClearingOptions struct {
	DistributionMethod string `json:"distribution_method,omitempty"`
	ShortagePrice      string `json:"shortage_price,omitempty"`
	Seed               *int64 `json:"seed,omitempty"`
}

// CouplingOptions override the server's coupling config for one request
type CouplingOptions struct {
	ClearingOptions
	MinDemandOffsetMWh   float64 `json:"min_demand_offset_mwh,omitempty"`
	MinShiftIncrementMWh float64 `json:"min_shift_increment_mwh,omitempty"`
}
