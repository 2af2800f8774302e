package model

// Price bounds of the day-ahead auction in EUR/MWh.
const (
	MinimalPriceEURperMWh  = -500.0
	ScarcityPriceEURperMWh = 3000.0
)
