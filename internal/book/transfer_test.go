package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransferBook_GroupsByTrader(t *testing.T) {
	var tb TransferBook
	tb.Add(demandOffer(5, 80, "l1"))
	tb.Add(demandOffer(2.5, 70, "l1"))
	tb.Add(demandOffer(1, 60, "l0"))

	assert.Equal(t, []string{"l0", "l1"}, tb.Traders())
	assert.Equal(t, 7.5, tb.EnergyOfMWh("l1"))
	assert.Equal(t, 8.5, tb.TotalEnergyMWh())
	assert.Equal(t, 3, tb.Len())
	assert.Len(t, tb.OffersOf("l1"), 2)
}

func TestTransferBook_CloneAndAddBook(t *testing.T) {
	var tb TransferBook
	tb.Add(demandOffer(5, 80, "l1"))

	c := tb.Clone()
	c.Add(demandOffer(1, 10, "l2"))
	assert.Equal(t, 5.0, tb.TotalEnergyMWh())
	assert.Equal(t, 6.0, c.TotalEnergyMWh())

	var all TransferBook
	all.AddBook(&tb)
	all.AddBook(c)
	all.AddBook(nil)
	assert.Equal(t, 11.0, all.TotalEnergyMWh())
}

func TestTransferBook_ZeroValue(t *testing.T) {
	var tb TransferBook
	assert.Empty(t, tb.Traders())
	assert.Equal(t, 0.0, tb.TotalEnergyMWh())
	assert.Nil(t, tb.OffersOf("nobody"))
}
