// Package stats is a thin read-only aggregation over Store and the
// Indexing Coordinator's running flag, grounded on
// original_source/services/StatisticsServiceImpl.java's
// TotalStatistics/DetailedStatisticsItem shape.
package stats

import (
	"context"

	"github.com/dkoval/sitesearch/internal/domain"
	"github.com/dkoval/sitesearch/internal/store"
)

// SiteStats is one site's row in the detailed statistics list.
type SiteStats struct {
	URL        string
	Name       string
	Status     domain.SiteStatus
	StatusTime int64 // unix seconds
	LastError  string
	PageCount  int
	LemmaCount int
}

// Total is the process-wide aggregation.
type Total struct {
	SiteCount       int
	PageCount       int
	LemmaCount      int
	IndexingRunning bool
	Detailed        []SiteStats
}

// Runner reports whether an indexing run is currently active; the
// Indexing Coordinator satisfies this.
type Runner interface {
	Running() bool
}

func Get(ctx context.Context, st *store.Store, runner Runner) (*Total, error) {
	siteCount, err := st.CountSites(ctx)
	if err != nil {
		return nil, err
	}
	pageCount, err := st.CountPages(ctx)
	if err != nil {
		return nil, err
	}
	lemmaCount, err := st.CountLemmas(ctx)
	if err != nil {
		return nil, err
	}

	sites, err := st.Sites(ctx)
	if err != nil {
		return nil, err
	}

	detailed := make([]SiteStats, 0, len(sites))
	for _, site := range sites {
		pages, err := st.CountPagesOfSite(ctx, site.ID)
		if err != nil {
			return nil, err
		}
		lemmas, err := st.CountLemmasOfSite(ctx, site.ID)
		if err != nil {
			return nil, err
		}
		detailed = append(detailed, SiteStats{
			URL:        site.URL,
			Name:       site.Name,
			Status:     site.Status,
			StatusTime: site.StatusTime.Unix(),
			LastError:  site.LastError,
			PageCount:  pages,
			LemmaCount: lemmas,
		})
	}

	return &Total{
		SiteCount:       siteCount,
		PageCount:       pageCount,
		LemmaCount:      lemmaCount,
		IndexingRunning: runner.Running(),
		Detailed:        detailed,
	}, nil
}
