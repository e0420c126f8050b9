// Package providers implements the market data sources walked by the cascade.
package providers

import (
	"context"
	"fmt"
	"time"

	"FinCast/internal/domain/models"
	"FinCast/internal/domain/repository"
	xhttp "FinCast/pkg/http"
)

// Provider names accepted in the configured chain.
const (
	NameStooq     = "stooq"
	NameYahoo     = "yahoo"
	NameArchive   = "archive"
	NameSynthetic = "synthetic"
)

// Options carries what the upstream providers need.
type Options struct {
	Client   *xhttp.Client
	StooqURL string
	YahooURL string
	Archive  repository.CandleArchive
}

// Chain builds the upstream providers in the configured order. The synthetic
// stage is not part of the chain; the cascade always appends it.
func Chain(order []string, o Options) ([]repository.MarketDataProvider, error) {
	out := make([]repository.MarketDataProvider, 0, len(order))
	for _, name := range order {
		switch name {
		case NameStooq:
			out = append(out, NewStooq(o.Client, o.StooqURL))
		case NameYahoo:
			out = append(out, NewYahoo(o.Client, o.YahooURL))
		case NameArchive:
			if o.Archive == nil {
				return nil, fmt.Errorf("provider %q: no candle archive configured", name)
			}
			out = append(out, NewArchive(o.Archive))
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}
	return out, nil
}

// miss classifies a provider failure. Cancellation of the caller's context
// propagates; everything else is an expected upstream miss.
func miss(ctx context.Context, provider string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return models.Unavailable(provider, err)
}

func ymd(t time.Time) string {
	return t.Format("20060102")
}
