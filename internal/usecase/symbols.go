package usecase

import (
	"fmt"

	"FinCast/internal/domain/models"
)

// DefaultSymbols is the allow-list served when config does not override it.
// Stooq-style symbols carry the exchange suffix; the plain ones are Yahoo's.
var DefaultSymbols = []string{
	"AAPL.US", "MSFT.US", "GOOG.US", "META.US", "AMZN.US", "TSLA.US",
	"NVDA.US", "NFLX.US", "INTC.US", "AMD.US",
	"JPM.US", "BAC.US", "WFC.US", "GS.US", "V.US", "MA.US",
	"WMT.US", "TGT.US", "HD.US", "COST.US",
	"JNJ.US", "PFE.US", "UNH.US", "MRK.US",
	"AAPL", "MSFT", "GOOG", "AMZN", "FB", "TSLA", "BRK-A", "JPM", "JNJ", "V",
}

const symbolSourceLabel = "Stooq & Yahoo Finance"

// SymbolCatalog answers ticker support checks. Matching is exact.
type SymbolCatalog struct {
	ordered []string
	set     map[string]struct{}
}

func NewSymbolCatalog(symbols []string) *SymbolCatalog {
	if len(symbols) == 0 {
		symbols = DefaultSymbols
	}
	c := &SymbolCatalog{set: make(map[string]struct{}, len(symbols))}
	for _, s := range symbols {
		if _, dup := c.set[s]; dup {
			continue
		}
		c.set[s] = struct{}{}
		c.ordered = append(c.ordered, s)
	}
	return c
}

func (c *SymbolCatalog) Supported(ticker string) bool {
	_, ok := c.set[ticker]
	return ok
}

// Check reports whether ticker is served. The company name echoes the one
// supplied or falls back to the ticker.
func (c *SymbolCatalog) Check(req models.CheckTickerRequest) models.CheckTickerResponse {
	if !c.Supported(req.Ticker) {
		return models.CheckTickerResponse{
			Exists:  false,
			Message: fmt.Sprintf("Ticker '%s' is not supported. Please select from the dropdown list.", req.Ticker),
		}
	}
	name := req.CompanyName
	if name == "" {
		name = req.Ticker
	}
	return models.CheckTickerResponse{
		Exists:      true,
		Source:      symbolSourceLabel,
		Ticker:      req.Ticker,
		CompanyName: name,
	}
}

// List returns the symbols in configured order.
func (c *SymbolCatalog) List() []string {
	return append([]string(nil), c.ordered...)
}
