package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffer_Split(t *testing.T) {
	o, err := NewOffer(10, 50, math.NaN(), "gen", SideSupply)
	require.NoError(t, err)

	rest, moved, err := o.Split(4)
	require.NoError(t, err)
	assert.Equal(t, 6.0, rest.EnergyMWh)
	assert.Equal(t, 4.0, moved.EnergyMWh)
	assert.Equal(t, "gen", moved.TraderID)
	assert.Equal(t, 50.0, moved.PriceEURperMWh)
}

func TestOffer_SplitRejectsOutOfRange(t *testing.T) {
	o := Offer{EnergyMWh: 10, PriceEURperMWh: 50, TraderID: "gen", Side: SideSupply}
	for _, moved := range []float64{-1, 10.5, math.NaN()} {
		_, _, err := o.Split(moved)
		assert.Error(t, err, "moved=%v", moved)
	}
}

func TestOffer_Validate(t *testing.T) {
	assert.ErrorIs(t, Offer{EnergyMWh: -1, Side: SideDemand}.Validate(), ErrNegativeEnergy)
	assert.ErrorIs(t, Offer{EnergyMWh: math.NaN(), Side: SideDemand}.Validate(), ErrNegativeEnergy)
	assert.ErrorIs(t, Offer{EnergyMWh: 1, Side: "BID"}.Validate(), ErrUnknownSide)
	assert.Error(t, Offer{EnergyMWh: 1, PriceEURperMWh: math.NaN(), Side: SideDemand}.Validate())
	assert.NoError(t, Offer{EnergyMWh: 0, PriceEURperMWh: -500, Side: SideSupply}.Validate())
}
