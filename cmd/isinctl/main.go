// isinctl is an operator tool for the quote upstream: it looks up the
// exchange/currency catalog for an ISIN, fetches historical series, and
// caches logos.
//
// Usage:
//
//	isinctl exchanges -isin DE0005140008
//	isinctl history -isin DE0005140008 -range OneYear -exchange-id 2779 -currency-id 814 -ohlc
//	isinctl logo -isin DE0005140008 -asset-class Stock
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/AndrewSteel/isin-quotes/internal/api"
	"github.com/AndrewSteel/isin-quotes/internal/catalog"
	"github.com/AndrewSteel/isin-quotes/internal/history"
	"github.com/AndrewSteel/isin-quotes/internal/logo"
	"github.com/AndrewSteel/isin-quotes/internal/model"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "exchanges":
		err = runExchanges(ctx, os.Args[2:], logger)
	case "history":
		err = runHistory(ctx, os.Args[2:], logger)
	case "logo":
		err = runLogo(ctx, os.Args[2:], logger)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "isinctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: isinctl <exchanges|history|logo> [flags]")
}

func newClient(fs *flag.FlagSet, logger *slog.Logger) func() *api.Client {
	baseURL := fs.String("base-url", api.DefaultBaseURL, "upstream API base URL")
	return func() *api.Client {
		return api.NewClient(*baseURL, api.WithLogger(logger))
	}
}

func runExchanges(ctx context.Context, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("exchanges", flag.ExitOnError)
	isin := fs.String("isin", "", "instrument ISIN")
	asJSON := fs.Bool("json", false, "print raw JSON")
	client := newClient(fs, logger)
	fs.Parse(args)

	if *isin == "" {
		return fmt.Errorf("-isin is required")
	}

	cat, err := catalog.Lookup(ctx, client(), *isin)
	if err != nil {
		return err
	}

	if *asJSON {
		return json.NewEncoder(os.Stdout).Encode(cat)
	}

	for _, l := range cat.Exchanges {
		fmt.Printf("%-40s exchange_id=%d currency_id=%d %s\n",
			catalog.Label(l), l.ExchangeID, l.CurrencyID, l.CurrencySign)
	}
	if len(cat.Currencies) > 0 {
		fmt.Println("currencies:")
		for _, c := range cat.Currencies {
			fmt.Printf("  %s - %s\n", c.Sign, c.Name)
		}
	}
	return nil
}

func runHistory(ctx context.Context, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	isin := fs.String("isin", "", "instrument ISIN")
	rangeName := fs.String("range", string(model.RangeIntraday), "time range")
	exchangeID := fs.Int("exchange-id", 0, "numeric exchange ID (see isinctl exchanges)")
	currencyID := fs.Int("currency-id", 0, "numeric currency ID")
	ohlc := fs.Bool("ohlc", false, "fetch candles instead of a line series")
	dir := fs.String("dir", "artifacts/history", "artifact directory")
	client := newClient(fs, logger)
	fs.Parse(args)

	if *isin == "" {
		return fmt.Errorf("-isin is required")
	}
	timeRange, err := model.ParseTimeRange(*rangeName)
	if err != nil {
		return err
	}

	svc := history.New(client(), *dir, logger)
	payload, err := svc.Fetch(ctx, history.Request{
		ISIN:       *isin,
		TimeRange:  timeRange,
		ExchangeID: *exchangeID,
		CurrencyID: *currencyID,
		OHLC:       *ohlc,
	})
	if err != nil {
		return err
	}

	points := len(payload.Line)
	if payload.OHLC {
		points = len(payload.Candles)
	}
	fmt.Printf("%s %s: %d points (%s) -> %s\n",
		*isin, timeRange, points, payload.Meta.Source, payload.Meta.FilePath)
	return nil
}

func runLogo(ctx context.Context, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("logo", flag.ExitOnError)
	isin := fs.String("isin", "", "instrument ISIN")
	assetClass := fs.String("asset-class", "", "asset class hint (e.g. Stock)")
	dir := fs.String("dir", "artifacts/logos", "artifact directory")
	client := newClient(fs, logger)
	fs.Parse(args)

	if *isin == "" {
		return fmt.Errorf("-isin is required")
	}

	svc := logo.New(client(), *dir, logger)
	path, err := svc.EnsureLogo(ctx, *isin, *assetClass)
	if err != nil {
		return err
	}

	fmt.Println(path)
	return nil
}
