package screener

import (
	"log"

	"github.com/mauv0809/steady-garbanzo/internal/models"
)

// Filters narrow the universe before criteria are evaluated.
type Filters struct {
	Sectors      []string `json:"sectors,omitempty"`
	MinMarketCap *float64 `json:"min_market_cap,omitempty"`
	Limit        int      `json:"limit,omitempty"`
}

// Summary is computed only over matched snapshots. FieldMeans covers
// fields present in at least one match; absent values are excluded from
// the average, never treated as zero.
type Summary struct {
	Count        int                `json:"count"`
	FieldMeans   map[string]float64 `json:"field_means"`
	SectorCounts map[string]int     `json:"sector_counts"`
}

// Result is the outcome of one screen run. Matches preserve universe
// input order; callers that want ranking must pre-sort the universe.
type Result struct {
	Matches []models.Snapshot `json:"matches"`
	Stats   Summary           `json:"stats"`
}

// Engine applies screen definitions to a universe of snapshots. It holds
// no state and is safe for concurrent use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Run validates the definition, applies filters then criteria to each
// snapshot in input order, truncates to the limit, and computes summary
// statistics. An empty universe yields an empty result, not an error.
func (e *Engine) Run(def Definition, universe []models.Snapshot, filters Filters) (Result, error) {
	if err := def.Validate(); err != nil {
		return Result{}, err
	}

	matches := make([]models.Snapshot, 0)
	for _, snap := range universe {
		if !passesFilters(snap, filters) {
			continue
		}
		if def.Matches(snap) {
			matches = append(matches, snap)
		}
	}

	// Limit means "first N in input order", not best-N by any score.
	if filters.Limit > 0 && len(matches) > filters.Limit {
		matches = matches[:filters.Limit]
	}

	log.Printf("Screen %q matched %d of %d snapshots", def.Name, len(matches), len(universe))

	return Result{Matches: matches, Stats: summarize(matches)}, nil
}

func passesFilters(snap models.Snapshot, filters Filters) bool {
	if len(filters.Sectors) > 0 {
		found := false
		for _, sector := range filters.Sectors {
			if snap.Sector == sector {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if filters.MinMarketCap != nil {
		// Unknown market cap is excluded, same policy as unknown
		// criterion fields.
		mcap, ok := snap.Metric("market_cap")
		if !ok || mcap < *filters.MinMarketCap {
			return false
		}
	}

	return true
}

func summarize(matches []models.Snapshot) Summary {
	stats := Summary{
		Count:        len(matches),
		FieldMeans:   make(map[string]float64),
		SectorCounts: make(map[string]int),
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, snap := range matches {
		for field, value := range snap.Metrics {
			sums[field] += value
			counts[field]++
		}
		if snap.Sector != "" {
			stats.SectorCounts[snap.Sector]++
		}
	}
	for field, sum := range sums {
		stats.FieldMeans[field] = sum / float64(counts[field])
	}

	return stats
}
