package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/AndrewSteel/isin-quotes/internal/model"
)

// Lister returns the raw exchange listings for an ISIN. *api.Client
// satisfies this through GetExchanges.
type Lister interface {
	GetExchanges(ctx context.Context, isin string) ([]model.ExchangeListing, error)
}

// Currency is one selectable trade currency.
type Currency struct {
	Sign string // e.g., "EUR"
	Name string // e.g., "Euro"; falls back to the sign
}

// Catalog is the ordered listing set for one ISIN.
type Catalog struct {
	Exchanges       []model.ExchangeListing
	Currencies      []Currency
	DefaultExchange string // code of the upstream-preferred listing, "" when none
}

// Lookup fetches and orders the listings for an ISIN: the default listing
// first, then realtime listings, then the rest, each group by sort order and
// code.
func Lookup(ctx context.Context, lister Lister, isin string) (*Catalog, error) {
	listings, err := lister.GetExchanges(ctx, isin)
	if err != nil {
		return nil, fmt.Errorf("look up exchanges for %s: %w", isin, err)
	}

	cat := &Catalog{Exchanges: listings}

	currencyNames := make(map[string]string)
	var currencyOrder []string
	for _, l := range listings {
		if l.Default && cat.DefaultExchange == "" {
			cat.DefaultExchange = l.Code
		}
		if l.CurrencySign == "" {
			continue
		}
		if _, seen := currencyNames[l.CurrencySign]; !seen {
			currencyOrder = append(currencyOrder, l.CurrencySign)
		}
		if l.CurrencyName != "" {
			currencyNames[l.CurrencySign] = l.CurrencyName
		} else if currencyNames[l.CurrencySign] == "" {
			currencyNames[l.CurrencySign] = l.CurrencySign
		}
	}

	sort.SliceStable(cat.Exchanges, func(i, j int) bool {
		a, b := cat.Exchanges[i], cat.Exchanges[j]
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra < rb
		}
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.Code < b.Code
	})

	for _, sign := range currencyOrder {
		cat.Currencies = append(cat.Currencies, Currency{Sign: sign, Name: currencyNames[sign]})
	}

	return cat, nil
}

func rank(l model.ExchangeListing) int {
	switch {
	case l.Default:
		return 0
	case l.Realtime:
		return 1
	default:
		return 2
	}
}

// Label renders a listing for display, badged for default and realtime.
func Label(l model.ExchangeListing) string {
	base := l.Code
	if l.Name != "" {
		base = fmt.Sprintf("%s (%s)", l.Name, l.Code)
	}
	switch {
	case l.Default && l.Realtime:
		return base + " [default] [realtime]"
	case l.Default:
		return base + " [default]"
	case l.Realtime:
		return base + " [realtime]"
	}
	return base
}

// Find returns the listing with the given code.
func (c *Catalog) Find(code string) (model.ExchangeListing, bool) {
	for _, l := range c.Exchanges {
		if l.Code == code {
			return l, true
		}
	}
	return model.ExchangeListing{}, false
}
