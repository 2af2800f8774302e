package clearing

// Result is the outcome of clearing one market.
type Result struct {
	TradedEnergyMWh float64 `json:"traded_energy_mwh"`
	PriceEURperMWh  float64 `json:"price"`
}

// Details extends Result with what market coupling needs to know.
type Details struct {
	Result

	// PriceSettingDemandIndex is the index of the last (possibly partly)
	// awarded demand entry in the sorted demand book, -1 if none.
	PriceSettingDemandIndex int
	// PriceSettingSupplyIndex is the index of the supply entry at the cut.
	PriceSettingSupplyIndex int
	// MaxSheddableDemandMWh is how much demand can be removed from the
	// price-setting demand step before the price moves.
	MaxSheddableDemandMWh float64
}
