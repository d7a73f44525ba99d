// Package search answers ranked multi-term queries over the persisted
// index: lemma resolution and high-frequency filtering, sorted-lemma
// page intersection, relevance normalization, and snippet
// construction. Grounded in full on
// original_source/services/SearchServiceImpl.java.
package search

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dkoval/sitesearch/internal/analyzer"
	"github.com/dkoval/sitesearch/internal/apperr"
	"github.com/dkoval/sitesearch/internal/domain"
	"github.com/dkoval/sitesearch/internal/fetcher"
	"github.com/dkoval/sitesearch/internal/store"
)

const (
	highFrequencyThreshold = 0.8
	snippetLength          = 200
	snippetWindow          = 30
)

// Result is one ranked search hit.
type Result struct {
	SiteURL   string
	SiteName  string
	Path      string
	Title     string
	Snippet   string
	Relevance float64
}

// Searcher answers queries over a Store using an Analyzer to
// lemmatize both the query and, indirectly, the indexed pages.
type Searcher struct {
	store    *store.Store
	analyzer *analyzer.Analyzer
}

func New(st *store.Store, a *analyzer.Analyzer) *Searcher {
	return &Searcher{store: st, analyzer: a}
}

// Search answers a ranked multi-term query. siteURL may be empty for
// an unscoped search across every site.
func (s *Searcher) Search(ctx context.Context, query, siteURL string, offset, limit int) (int, []Result, error) {
	if strings.TrimSpace(query) == "" {
		return 0, nil, apperr.NewInputError("empty query")
	}

	queryLemmaCounts := s.analyzer.CollectLemmas(query)
	if len(queryLemmaCounts) == 0 {
		return 0, nil, apperr.NewInputError("empty query")
	}
	queryTexts := make([]string, 0, len(queryLemmaCounts))
	for lemma := range queryLemmaCounts {
		queryTexts = append(queryTexts, lemma)
	}

	var siteID *int64
	if strings.TrimSpace(siteURL) != "" {
		site, err := s.store.SiteByURL(ctx, siteURL)
		if err != nil {
			return 0, nil, err
		}
		// Only an INDEXED site scopes the search; otherwise this falls
		// back to an unscoped search, matching the original's
		// Optional<Site> resolution (filter-to-empty on mismatch).
		if site != nil && site.Status == domain.StatusIndexed {
			siteID = &site.ID
		}
	}

	lemmas, err := s.filterLemmas(ctx, queryTexts, siteID)
	if err != nil {
		return 0, nil, err
	}
	if len(lemmas) == 0 {
		return 0, nil, apperr.NewInputError("no suitable lemmas for search")
	}

	pages, err := s.findRelevantPages(ctx, lemmas, siteID)
	if err != nil {
		return 0, nil, err
	}
	if len(pages) == 0 {
		return 0, nil, apperr.NewInputError("no pages contain all query terms")
	}

	relevance, err := s.calculateRelevance(ctx, pages, lemmas)
	if err != nil {
		return 0, nil, err
	}

	results, err := s.prepareResults(ctx, pages, relevance, queryTexts, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	return len(pages), results, nil
}

// filterLemmas resolves the query lemma texts to Lemma rows, applies
// high-frequency filtering with graceful degradation when scoped to a
// site, and sorts the survivors by frequency ascending.
func (s *Searcher) filterLemmas(ctx context.Context, texts []string, siteID *int64) ([]domain.Lemma, error) {
	if siteID == nil {
		lemmas, err := s.store.LemmasByTexts(ctx, texts)
		if err != nil {
			return nil, err
		}
		sort.Slice(lemmas, func(i, j int) bool { return lemmas[i].Frequency < lemmas[j].Frequency })
		return lemmas, nil
	}

	lemmas, err := s.store.LemmasBySiteAndTexts(ctx, *siteID, texts)
	if err != nil {
		return nil, err
	}
	if len(lemmas) == 0 {
		return nil, nil
	}

	totalPages, err := s.store.CountPagesOfSite(ctx, *siteID)
	if err != nil {
		return nil, err
	}
	threshold := float64(totalPages) * highFrequencyThreshold

	var filtered []domain.Lemma
	for _, l := range lemmas {
		if float64(l.Frequency) <= threshold {
			filtered = append(filtered, l)
		}
	}

	if len(filtered) == 0 {
		rarest := lemmas[0]
		for _, l := range lemmas[1:] {
			if l.Frequency < rarest.Frequency {
				rarest = l
			}
		}
		return []domain.Lemma{rarest}, nil
	}

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Frequency < filtered[j].Frequency })
	return filtered, nil
}

// findRelevantPages intersects pages of the rarest lemma with pages of
// each subsequent lemma, in sorted order, stopping early on an empty
// set. Unscoped search groups by owning site and unions the per-site
// intersections.
func (s *Searcher) findRelevantPages(ctx context.Context, lemmas []domain.Lemma, siteID *int64) ([]domain.Page, error) {
	if siteID != nil {
		return s.intersectBySortedLemmas(ctx, lemmas)
	}

	bySite := make(map[int64][]domain.Lemma)
	var siteOrder []int64
	for _, l := range lemmas {
		if _, ok := bySite[l.SiteID]; !ok {
			siteOrder = append(siteOrder, l.SiteID)
		}
		bySite[l.SiteID] = append(bySite[l.SiteID], l)
	}

	var all []domain.Page
	for _, sid := range siteOrder {
		siteLemmas := bySite[sid]
		sort.Slice(siteLemmas, func(i, j int) bool { return siteLemmas[i].Frequency < siteLemmas[j].Frequency })
		pages, err := s.intersectBySortedLemmas(ctx, siteLemmas)
		if err != nil {
			return nil, err
		}
		all = append(all, pages...)
	}
	return all, nil
}

func (s *Searcher) intersectBySortedLemmas(ctx context.Context, sortedLemmas []domain.Lemma) ([]domain.Page, error) {
	if len(sortedLemmas) == 0 {
		return nil, nil
	}

	pages, err := s.store.PagesByLemma(ctx, sortedLemmas[0].ID)
	if err != nil {
		return nil, err
	}

	for i := 1; i < len(sortedLemmas) && len(pages) > 0; i++ {
		morePages, err := s.store.PagesByLemma(ctx, sortedLemmas[i].ID)
		if err != nil {
			return nil, err
		}
		present := make(map[int64]bool, len(morePages))
		for _, p := range morePages {
			present[p.ID] = true
		}
		var kept []domain.Page
		for _, p := range pages {
			if present[p.ID] {
				kept = append(kept, p)
			}
		}
		pages = kept
	}
	return pages, nil
}

// calculateRelevance sums rankOf over every query lemma that survived
// filterLemmas for each page,
// then normalizes by the maximum absolute relevance in the result set.
func (s *Searcher) calculateRelevance(ctx context.Context, pages []domain.Page, lemmas []domain.Lemma) (map[int64]float64, error) {
	relevance := make(map[int64]float64, len(pages))
	max := 0.0
	for _, p := range pages {
		sum := 0.0
		for _, l := range lemmas {
			r, err := s.store.RankOf(ctx, p.ID, l.ID)
			if err != nil {
				return nil, err
			}
			sum += r
		}
		relevance[p.ID] = sum
		if sum > max {
			max = sum
		}
	}
	if max > 0 {
		for id, v := range relevance {
			relevance[id] = v / max
		}
	}
	return relevance, nil
}

// prepareResults sorts pages by relevance descending (ties preserve
// discovery order), applies offset/limit, and builds each SearchResult.
func (s *Searcher) prepareResults(ctx context.Context, pages []domain.Page, relevance map[int64]float64, queryLemmas []string, offset, limit int) ([]Result, error) {
	ordered := make([]domain.Page, len(pages))
	copy(ordered, pages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return relevance[ordered[i].ID] > relevance[ordered[j].ID]
	})

	if offset > len(ordered) {
		offset = len(ordered)
	}
	end := offset + limit
	if end > len(ordered) || limit <= 0 {
		end = len(ordered)
	}
	ordered = ordered[offset:end]

	results := make([]Result, 0, len(ordered))
	for _, p := range ordered {
		site, err := s.store.SiteByID(ctx, p.SiteID)
		if err != nil {
			return nil, err
		}
		if site == nil {
			continue
		}
		text := fetcher.ExtractText(p.Content)
		results = append(results, Result{
			SiteURL:   site.URL,
			SiteName:  site.Name,
			Path:      p.Path,
			Title:     fetcher.ExtractTitle(p.Content),
			Snippet:   createSnippet(text, queryLemmas),
			Relevance: relevance[p.ID],
		})
	}
	return results, nil
}

// createSnippet builds a 30-character window around every occurrence
// of every query lemma, joined and wrapped in "...", or falls back to
// the first 200 characters when any lemma was never found in the
// page's text. Overlapping fragments are not deduplicated.
func createSnippet(text string, queryLemmas []string) string {
	lowerText := strings.ToLower(text)
	var fragments []string
	found := make(map[string]bool)

	for _, lemma := range queryLemmas {
		lowerLemma := strings.ToLower(lemma)
		if lowerLemma == "" {
			continue
		}
		idx := strings.Index(lowerText, lowerLemma)
		for idx >= 0 {
			start := idx - snippetWindow
			if start < 0 {
				start = 0
			}
			end := idx + len(lowerLemma) + snippetWindow
			if end > len(text) {
				end = len(text)
			}
			fragments = append(fragments, text[start:end])
			found[lemma] = true

			next := strings.Index(lowerText[end:], lowerLemma)
			if next < 0 {
				break
			}
			idx = end + next
		}
	}

	if len(found) < len(queryLemmas) {
		end := snippetLength
		if end > len(text) {
			end = len(text)
		}
		return text[:end] + "..."
	}

	snippet := "..." + strings.Join(fragments, " ... ") + "..."
	return highlightLemmas(snippet, queryLemmas)
}

// highlightLemmas wraps whole-word, case-insensitive matches of every
// query lemma in boldface markers. Go's \b is ASCII-only and never
// matches around Cyrillic letters, so word boundaries are checked
// manually against the rune on either side of each match instead.
func highlightLemmas(text string, queryLemmas []string) string {
	type span struct{ start, end int }
	var spans []span

	for _, lemma := range queryLemmas {
		if lemma == "" {
			continue
		}
		re := regexp.MustCompile(fmt.Sprintf(`(?i)%s`, regexp.QuoteMeta(lemma)))
		for _, loc := range re.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			if isLetterBefore(text, start) || isLetterAfter(text, end) {
				continue
			}
			spans = append(spans, span{start, end})
		}
	}
	if len(spans) == 0 {
		return text
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder
	pos := 0
	for _, s := range spans {
		if s.start < pos {
			continue // overlaps a span already emitted
		}
		b.WriteString(text[pos:s.start])
		b.WriteString("<b>")
		b.WriteString(text[s.start:s.end])
		b.WriteString("</b>")
		pos = s.end
	}
	b.WriteString(text[pos:])
	return b.String()
}

func isLetterBefore(text string, pos int) bool {
	if pos == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:pos])
	return unicode.IsLetter(r)
}

func isLetterAfter(text string, pos int) bool {
	if pos == len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[pos:])
	return unicode.IsLetter(r)
}
