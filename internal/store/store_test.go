package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dkoval/sitesearch/internal/domain"
	"github.com/dkoval/sitesearch/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestFindOrCreateSiteIsIdempotent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	site1, err := st.FindOrCreateSite(ctx, "https://example.com", "Example")
	if err != nil {
		t.Fatalf("Failed to create site: %v", err)
	}

	site2, err := st.FindOrCreateSite(ctx, "https://example.com", "Example")
	if err != nil {
		t.Fatalf("Failed to find site: %v", err)
	}

	if site1.ID != site2.ID {
		t.Errorf("Expected same site ID, got %d and %d", site1.ID, site2.ID)
	}
}

func TestWriteIndexBatchUpdatesLemmaFrequency(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	site, err := st.FindOrCreateSite(ctx, "https://example.com", "Example")
	if err != nil {
		t.Fatalf("Failed to create site: %v", err)
	}

	page, err := st.UpsertPage(ctx, site.ID, "/", 200, "<html></html>")
	if err != nil {
		t.Fatalf("Failed to upsert page: %v", err)
	}

	if err := st.WriteIndexBatch(ctx, page, map[string]float64{"кот": 2, "собака": 1}); err != nil {
		t.Fatalf("Failed to write index batch: %v", err)
	}

	lemmas, err := st.LemmasBySiteAndTexts(ctx, site.ID, []string{"кот", "собака"})
	if err != nil {
		t.Fatalf("Failed to fetch lemmas: %v", err)
	}
	if len(lemmas) != 2 {
		t.Fatalf("Expected 2 lemmas, got %d", len(lemmas))
	}
	for _, l := range lemmas {
		if l.Frequency != 1 {
			t.Errorf("Expected lemma %q frequency 1, got %d", l.Text, l.Frequency)
		}
	}
}

func TestUpsertPageIsIdempotent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	site, err := st.FindOrCreateSite(ctx, "https://example.com", "Example")
	if err != nil {
		t.Fatalf("Failed to create site: %v", err)
	}

	page, err := st.UpsertPage(ctx, site.ID, "/about", 200, "<html>кот кот</html>")
	if err != nil {
		t.Fatalf("Failed to upsert page: %v", err)
	}
	if err := st.WriteIndexBatch(ctx, page, map[string]float64{"кот": 2}); err != nil {
		t.Fatalf("Failed to write index batch: %v", err)
	}

	page2, err := st.UpsertPage(ctx, site.ID, "/about", 200, "<html>кот кот</html>")
	if err != nil {
		t.Fatalf("Failed to re-upsert page: %v", err)
	}
	if err := st.WriteIndexBatch(ctx, page2, map[string]float64{"кот": 2}); err != nil {
		t.Fatalf("Failed to write index batch: %v", err)
	}

	count, err := st.CountPagesOfSite(ctx, site.ID)
	if err != nil {
		t.Fatalf("Failed to count pages: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 page after re-index, got %d", count)
	}

	lemmas, err := st.LemmasBySiteAndTexts(ctx, site.ID, []string{"кот"})
	if err != nil {
		t.Fatalf("Failed to fetch lemmas: %v", err)
	}
	if len(lemmas) != 1 || lemmas[0].Frequency != 1 {
		t.Errorf("Expected lemma frequency 1 after re-index, got %+v", lemmas)
	}
}

func TestPurgePageDecrementsLemmaFrequency(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	site, err := st.FindOrCreateSite(ctx, "https://example.com", "Example")
	if err != nil {
		t.Fatalf("Failed to create site: %v", err)
	}

	pageA, err := st.UpsertPage(ctx, site.ID, "/a", 200, "a")
	if err != nil {
		t.Fatalf("Failed to upsert page A: %v", err)
	}
	pageB, err := st.UpsertPage(ctx, site.ID, "/b", 200, "b")
	if err != nil {
		t.Fatalf("Failed to upsert page B: %v", err)
	}
	if err := st.WriteIndexBatch(ctx, pageA, map[string]float64{"вода": 1}); err != nil {
		t.Fatalf("Failed to write index batch A: %v", err)
	}
	if err := st.WriteIndexBatch(ctx, pageB, map[string]float64{"вода": 1}); err != nil {
		t.Fatalf("Failed to write index batch B: %v", err)
	}

	if err := st.PurgePage(ctx, pageA.ID); err != nil {
		t.Fatalf("Failed to purge page A: %v", err)
	}

	lemmas, err := st.LemmasBySiteAndTexts(ctx, site.ID, []string{"вода"})
	if err != nil {
		t.Fatalf("Failed to fetch lemmas: %v", err)
	}
	if len(lemmas) != 1 || lemmas[0].Frequency != 1 {
		t.Errorf("Expected lemma frequency 1 after purging one page, got %+v", lemmas)
	}
}

func TestTouchSiteStatusTimePreservesStatusAndLastError(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	site, err := st.FindOrCreateSite(ctx, "https://example.com", "Example")
	if err != nil {
		t.Fatalf("Failed to create site: %v", err)
	}
	if err := st.SetSiteStatus(ctx, site.ID, domain.StatusFailed, "boom"); err != nil {
		t.Fatalf("Failed to set site status: %v", err)
	}

	before, err := st.SiteByID(ctx, site.ID)
	if err != nil {
		t.Fatalf("Failed to fetch site: %v", err)
	}

	if err := st.TouchSiteStatusTime(ctx, site.ID); err != nil {
		t.Fatalf("TouchSiteStatusTime failed: %v", err)
	}

	after, err := st.SiteByID(ctx, site.ID)
	if err != nil {
		t.Fatalf("Failed to fetch site: %v", err)
	}
	if after.Status != domain.StatusFailed {
		t.Errorf("status after touch = %v, want unchanged %v", after.Status, domain.StatusFailed)
	}
	if after.LastError != "boom" {
		t.Errorf("lastError after touch = %q, want unchanged %q", after.LastError, "boom")
	}
	if !after.StatusTime.After(before.StatusTime) {
		t.Errorf("statusTime after touch = %v, want after %v", after.StatusTime, before.StatusTime)
	}
}

func TestPurgeSiteRemovesEverything(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	site, err := st.FindOrCreateSite(ctx, "https://example.com", "Example")
	if err != nil {
		t.Fatalf("Failed to create site: %v", err)
	}
	page, err := st.UpsertPage(ctx, site.ID, "/", 200, "text")
	if err != nil {
		t.Fatalf("Failed to upsert page: %v", err)
	}
	if err := st.WriteIndexBatch(ctx, page, map[string]float64{"лемма": 1}); err != nil {
		t.Fatalf("Failed to write index batch: %v", err)
	}

	if err := st.PurgeSite(ctx, site.ID); err != nil {
		t.Fatalf("Failed to purge site: %v", err)
	}

	pages, err := st.CountPagesOfSite(ctx, site.ID)
	if err != nil {
		t.Fatalf("Failed to count pages: %v", err)
	}
	if pages != 0 {
		t.Errorf("Expected 0 pages after purging site, got %d", pages)
	}
	lemmas, err := st.CountLemmasOfSite(ctx, site.ID)
	if err != nil {
		t.Fatalf("Failed to count lemmas: %v", err)
	}
	if lemmas != 0 {
		t.Errorf("Expected 0 lemmas after purging site, got %d", lemmas)
	}
}
