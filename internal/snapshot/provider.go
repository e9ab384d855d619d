package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/mauv0809/steady-garbanzo/internal/models"
)

// lookbackDays is how much price history a snapshot build pulls in. The
// longest indicator window is EMA50, so a calendar year of bars is ample.
const lookbackDays = 365

// Store is the slice of the repository the provider needs.
type Store interface {
	GetCompanies(ctx context.Context) ([]models.Company, error)
	GetFundamentals(ctx context.Context, ticker string) ([]models.Fundamental, error)
	GetPriceSeries(ctx context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error)
}

// Provider reconstructs snapshots and price books from stored data. The
// cutoff date is always explicit: the same provider serves live screens
// (cutoff = today) and backtests (cutoff = the historical start date).
type Provider struct {
	store Store
}

func NewProvider(store Store) *Provider {
	return &Provider{store: store}
}

// UniverseAsOf builds a snapshot for every active company using only data
// dated on or before the cutoff.
func (p *Provider) UniverseAsOf(ctx context.Context, cutoff time.Time) ([]models.Snapshot, error) {
	companies, err := p.store.GetCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading companies: %w", err)
	}

	universe := make([]models.Snapshot, 0, len(companies))
	for _, company := range companies {
		snap, err := p.SnapshotAsOf(ctx, company, cutoff)
		if err != nil {
			return nil, err
		}
		universe = append(universe, snap)
	}

	return universe, nil
}

// SnapshotAsOf builds one company's snapshot as of the cutoff.
func (p *Provider) SnapshotAsOf(ctx context.Context, company models.Company, cutoff time.Time) (models.Snapshot, error) {
	periods, err := p.store.GetFundamentals(ctx, company.Ticker)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("loading fundamentals for %s: %w", company.Ticker, err)
	}

	prices, err := p.store.GetPriceSeries(ctx, company.Ticker, cutoff.AddDate(0, 0, -lookbackDays), cutoff)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("loading prices for %s: %w", company.Ticker, err)
	}

	return Build(company, periods, prices, cutoff), nil
}

// PriceBook loads chronological price series for a set of tickers over
// [from, to], for backtest measurement.
func (p *Provider) PriceBook(ctx context.Context, tickers []string, from, to time.Time) (map[string][]models.PricePoint, error) {
	book := make(map[string][]models.PricePoint, len(tickers))
	for _, ticker := range tickers {
		series, err := p.store.GetPriceSeries(ctx, ticker, from, to)
		if err != nil {
			return nil, err
		}
		book[ticker] = series
	}
	return book, nil
}
