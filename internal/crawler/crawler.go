// Package crawler implements the per-site frontier traversal: a fixed
// worker pool draining a shared frontier, calling Fetcher, Analyzer,
// and Store, and observing a shared cancellation flag.
package crawler

import (
	"context"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkoval/sitesearch/internal/analyzer"
	"github.com/dkoval/sitesearch/internal/domain"
	"github.com/dkoval/sitesearch/internal/fetcher"
	"github.com/dkoval/sitesearch/internal/store"
)

const (
	defaultWorkers = 4
	rateLimit      = 500 * time.Millisecond
	idlePollDelay  = 50 * time.Millisecond
)

// Crawler owns one site's traversal: its frontier, its worker pool,
// and its view of the shared cancellation flag.
type Crawler struct {
	site     *domain.Site
	store    *store.Store
	fetcher  *fetcher.Fetcher
	analyzer *analyzer.Analyzer
	cancel   *atomic.Bool
	workers  int

	frontier *frontier
	inFlight int32
}

// New creates a Crawler for site, with its frontier seeded at "/".
func New(site *domain.Site, st *store.Store, f *fetcher.Fetcher, a *analyzer.Analyzer, cancel *atomic.Bool) *Crawler {
	return &Crawler{
		site:     site,
		store:    st,
		fetcher:  f,
		analyzer: a,
		cancel:   cancel,
		workers:  defaultWorkers,
		frontier: newFrontier("/"),
	}
}

// Run drains the frontier with a fixed worker pool and stamps the
// site's terminal status once every worker has stopped.
func (c *Crawler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.worker(ctx)
		}()
	}
	wg.Wait()

	if c.cancel.Load() {
		if err := c.store.SetSiteStatus(ctx, c.site.ID, domain.StatusFailed, "stopped by user"); err != nil {
			log.Printf("crawler: set site %s failed status: %v", c.site.URL, err)
		}
		return
	}
	if err := c.store.SetSiteStatus(ctx, c.site.ID, domain.StatusIndexed, ""); err != nil {
		log.Printf("crawler: set site %s indexed status: %v", c.site.URL, err)
	}
}

func (c *Crawler) worker(ctx context.Context) {
	for {
		if c.cancel.Load() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		path, ok := c.frontier.pop()
		if !ok {
			if atomic.LoadInt32(&c.inFlight) == 0 {
				return
			}
			time.Sleep(idlePollDelay)
			continue
		}

		atomic.AddInt32(&c.inFlight, 1)
		if err := c.processPath(ctx, path); err != nil {
			log.Printf("crawler: %s%s: %v", c.site.URL, path, err)
		}
		atomic.AddInt32(&c.inFlight, -1)

		select {
		case <-ctx.Done():
			return
		case <-time.After(rateLimit):
		}
	}
}

// CrawlPath runs the per-path procedure for a single path, outside the
// worker pool. It still honours this Crawler's cancellation flag, so
// the Indexing Coordinator's indexPage operation calls it on a Crawler
// built with a fresh, never-set flag.
func (c *Crawler) CrawlPath(ctx context.Context, path string) error {
	return c.processPath(ctx, path)
}

// processPath fetches, persists, and indexes a single path, then
// enqueues its discovered site-relative links.
func (c *Crawler) processPath(ctx context.Context, path string) error {
	if c.cancel.Load() {
		return nil
	}

	res, err := c.fetcher.Fetch(ctx, c.site.URL+path)
	if err != nil {
		return err
	}
	if c.cancel.Load() {
		return nil
	}

	page, err := c.store.UpsertPage(ctx, c.site.ID, path, res.HTTPCode, res.HTML)
	if err != nil {
		return err
	}

	text := fetcher.ExtractText(res.HTML)
	counts := c.analyzer.CollectLemmas(text)
	ranks := make(map[string]float64, len(counts))
	for lemma, n := range counts {
		ranks[lemma] = float64(n)
	}
	if err := c.store.WriteIndexBatch(ctx, page, ranks); err != nil {
		return err
	}

	if err := c.store.TouchSiteStatusTime(ctx, c.site.ID); err != nil {
		log.Printf("crawler: stamp progress for site %s: %v", c.site.URL, err)
	}

	for _, link := range res.Links {
		if strings.HasPrefix(link, "//") {
			continue
		}
		c.frontier.addIfAbsent(link)
	}
	return nil
}
