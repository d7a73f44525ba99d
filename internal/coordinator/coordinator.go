// Package coordinator implements the process-wide indexing lifecycle:
// start, stop, and single-page re-index, with site status transitions.
// A CAS-guarded running flag guards against overlapping runs, each run
// gets a fresh atomic cancellation flag, and shutdown waits for the
// crawlers for at most a fixed grace period.
package coordinator

import (
	"context"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkoval/sitesearch/internal/analyzer"
	"github.com/dkoval/sitesearch/internal/config"
	"github.com/dkoval/sitesearch/internal/crawler"
	"github.com/dkoval/sitesearch/internal/domain"
	"github.com/dkoval/sitesearch/internal/fetcher"
	"github.com/dkoval/sitesearch/internal/store"
)

const shutdownGrace = 5 * time.Second

// Coordinator is the single process-wide owner of the crawl lifecycle.
type Coordinator struct {
	cfg      *config.Config
	store    *store.Store
	fetcher  *fetcher.Fetcher
	analyzer *analyzer.Analyzer

	running atomic.Bool

	mu     sync.Mutex
	cancel *atomic.Bool
	wg     sync.WaitGroup
}

func New(cfg *config.Config, st *store.Store, f *fetcher.Fetcher, a *analyzer.Analyzer) *Coordinator {
	return &Coordinator{cfg: cfg, store: st, fetcher: f, analyzer: a}
}

// Running reports whether an indexing run is currently active, for Stats.
func (c *Coordinator) Running() bool {
	return c.running.Load()
}

// Wait blocks until every crawler spawned by the most recent
// StartIndexing call has finished, whether by completion or
// cancellation.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// StartIndexing fans out one Crawler per configured site. Returns
// false if indexing is already running.
func (c *Coordinator) StartIndexing(ctx context.Context) bool {
	if !c.running.CompareAndSwap(false, true) {
		return false
	}

	c.mu.Lock()
	c.cancel = new(atomic.Bool)
	cancel := c.cancel
	c.mu.Unlock()

	var remaining atomic.Int32 // live crawlers, plus one until the loop below ends
	remaining.Store(1)
	finish := func() {
		if remaining.Add(-1) == 0 {
			c.mu.Lock()
			if c.cancel == cancel {
				c.running.CompareAndSwap(true, false)
			}
			c.mu.Unlock()
		}
	}

	for _, sc := range c.cfg.Sites {
		site, err := c.store.FindOrCreateSite(ctx, sc.URL, sc.Name)
		if err != nil {
			log.Printf("coordinator: find or create site %s: %v", sc.URL, err)
			continue
		}
		if err := c.store.PurgeSite(ctx, site.ID); err != nil {
			log.Printf("coordinator: purge site %s: %v", sc.URL, err)
			continue
		}
		if err := c.store.SetSiteStatus(ctx, site.ID, domain.StatusIndexing, ""); err != nil {
			log.Printf("coordinator: set site %s indexing: %v", sc.URL, err)
			continue
		}
		site.Status = domain.StatusIndexing

		cr := crawler.New(site, c.store, c.fetcher, c.analyzer, cancel)
		remaining.Add(1)
		c.wg.Add(1)
		go func(cr *crawler.Crawler) {
			defer c.wg.Done()
			cr.Run(ctx)
			finish()
		}(cr)
	}
	finish()

	return true
}

// StopIndexing requests cancellation, waits up to shutdownGrace for
// in-flight crawlers to finish, then force-transitions every site
// still in INDEXING to FAILED. Returns false if nothing was running.
func (c *Coordinator) StopIndexing(ctx context.Context) bool {
	if !c.running.CompareAndSwap(true, false) {
		return false
	}

	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel.Store(true)
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownGrace):
	}

	sites, err := c.store.SitesInStatus(ctx, domain.StatusIndexing)
	if err != nil {
		log.Printf("coordinator: list indexing sites: %v", err)
		return true
	}
	for _, s := range sites {
		if err := c.store.SetSiteStatus(ctx, s.ID, domain.StatusFailed, "stopped by user"); err != nil {
			log.Printf("coordinator: fail site %s: %v", s.URL, err)
		}
	}
	return true
}

// IndexPage re-indexes a single path, independent of the global
// cancellation flag. Returns false if url does not belong to any
// configured site.
func (c *Coordinator) IndexPage(ctx context.Context, pageURL string) bool {
	sc, ok := c.cfg.SiteFor(pageURL)
	if !ok {
		return false
	}

	path := strings.TrimPrefix(pageURL, sc.URL)
	if path == "" {
		path = "/"
	}

	site, err := c.store.FindOrCreateSite(ctx, sc.URL, sc.Name)
	if err != nil {
		log.Printf("coordinator: find or create site %s: %v", sc.URL, err)
		return false
	}

	independentCancel := new(atomic.Bool)
	cr := crawler.New(site, c.store, c.fetcher, c.analyzer, independentCancel)
	if err := cr.CrawlPath(ctx, path); err != nil {
		log.Printf("coordinator: index page %s: %v", pageURL, err)
		return false
	}
	return true
}
