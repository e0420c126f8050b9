package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FinCast/internal/domain/models"
)

func TestSymbolCatalog_Check(t *testing.T) {
	c := NewSymbolCatalog(nil)

	ok := c.Check(models.CheckTickerRequest{Ticker: "AAPL.US"})
	assert.True(t, ok.Exists)
	assert.Equal(t, "Stooq & Yahoo Finance", ok.Source)
	assert.Equal(t, "AAPL.US", ok.CompanyName)

	named := c.Check(models.CheckTickerRequest{Ticker: "BRK-A", CompanyName: "Berkshire"})
	assert.Equal(t, "Berkshire", named.CompanyName)

	miss := c.Check(models.CheckTickerRequest{Ticker: "aapl.us"})
	assert.False(t, miss.Exists)
	assert.Equal(t, "Ticker 'aapl.us' is not supported. Please select from the dropdown list.", miss.Message)
}

func TestSymbolCatalog_ConfiguredList(t *testing.T) {
	c := NewSymbolCatalog([]string{"X", "Y", "X"})
	assert.Equal(t, []string{"X", "Y"}, c.List())
	assert.False(t, c.Supported("AAPL.US"))
}
