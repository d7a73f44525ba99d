// Package store is the transactional relational persistence layer for
// sites, pages, lemmas, and page-lemma index entries.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dkoval/sitesearch/internal/domain"
)

// Store is the persistence layer over a single sqlite database holding
// all four entities. One Store instance is shared by the Crawler,
// Coordinator, Search, and Stats components.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite database at dbPath and
// ensures its schema exists.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// FindOrCreateSite returns the Site row for url, creating it with
// status INDEXING if absent.
func (s *Store) FindOrCreateSite(ctx context.Context, url, name string) (*domain.Site, error) {
	site, err := s.SiteByURL(ctx, url)
	if err != nil {
		return nil, err
	}
	if site != nil {
		return site, nil
	}

	now := time.Now()
	err = s.withRetryTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO sites (url, name, status, status_time) VALUES (?, ?, ?, ?)`,
			url, name, domain.StatusIndexing, now)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		site = &domain.Site{ID: id, URL: url, Name: name, Status: domain.StatusIndexing, StatusTime: now}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if site != nil {
		return site, nil
	}
	// Someone else inserted it concurrently between the lookup and the insert.
	return s.SiteByURL(ctx, url)
}

func (s *Store) SiteByURL(ctx context.Context, url string) (*domain.Site, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, name, status, status_time, COALESCE(last_error, '') FROM sites WHERE url = ?`, url)
	var site domain.Site
	err := row.Scan(&site.ID, &site.URL, &site.Name, &site.Status, &site.StatusTime, &site.LastError)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &site, nil
}

func (s *Store) SiteByID(ctx context.Context, id int64) (*domain.Site, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, name, status, status_time, COALESCE(last_error, '') FROM sites WHERE id = ?`, id)
	var site domain.Site
	err := row.Scan(&site.ID, &site.URL, &site.Name, &site.Status, &site.StatusTime, &site.LastError)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &site, nil
}

// Sites returns every configured Site, for Stats.
func (s *Store) Sites(ctx context.Context) ([]domain.Site, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, name, status, status_time, COALESCE(last_error, '') FROM sites ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []domain.Site
	for rows.Next() {
		var site domain.Site
		if err := rows.Scan(&site.ID, &site.URL, &site.Name, &site.Status, &site.StatusTime, &site.LastError); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// SitesInStatus returns every Site currently in the given status.
func (s *Store) SitesInStatus(ctx context.Context, status domain.SiteStatus) ([]domain.Site, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, name, status, status_time, COALESCE(last_error, '') FROM sites WHERE status = ?`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []domain.Site
	for rows.Next() {
		var site domain.Site
		if err := rows.Scan(&site.ID, &site.URL, &site.Name, &site.Status, &site.StatusTime, &site.LastError); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// SetSiteStatus stamps statusTime = now and updates status/lastError.
func (s *Store) SetSiteStatus(ctx context.Context, siteID int64, status domain.SiteStatus, lastError string) error {
	return s.withRetryTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE sites SET status = ?, status_time = ?, last_error = ? WHERE id = ?`,
			status, time.Now(), nullableString(lastError), siteID)
		return err
	})
}

// TouchSiteStatusTime stamps statusTime = now without altering status
// or lastError, for progress reporting mid-crawl where the caller must
// not disturb a site's current lifecycle state (invariant 6).
func (s *Store) TouchSiteStatusTime(ctx context.Context, siteID int64) error {
	return s.withRetryTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE sites SET status_time = ? WHERE id = ?`, time.Now(), siteID)
		return err
	})
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// PurgeSite removes all IndexEntries, Lemmas, and Pages for the site,
// in that order (invariant 4).
func (s *Store) PurgeSite(ctx context.Context, siteID int64) error {
	return s.withRetryTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM index_entries WHERE page_id IN (SELECT id FROM pages WHERE site_id = ?)`, siteID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM lemmas WHERE site_id = ?`, siteID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE site_id = ?`, siteID); err != nil {
			return err
		}
		return nil
	})
}

// purgePage deletes IndexEntries for the page, decrements each
// affected Lemma's frequency by one, then deletes the Page. Must run
// inside an already-open transaction (invariant 3).
func purgePage(ctx context.Context, tx *sql.Tx, pageID int64) error {
	rows, err := tx.QueryContext(ctx, `SELECT lemma_id FROM index_entries WHERE page_id = ?`, pageID)
	if err != nil {
		return err
	}
	var lemmaIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		lemmaIDs = append(lemmaIDs, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, lemmaID := range lemmaIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE lemmas SET frequency = frequency - 1 WHERE id = ?`, lemmaID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM index_entries WHERE page_id = ?`, pageID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, pageID); err != nil {
		return err
	}
	return nil
}

// PurgePage is the public, independently-transacted form of purgePage.
func (s *Store) PurgePage(ctx context.Context, pageID int64) error {
	return s.withRetryTx(ctx, func(tx *sql.Tx) error {
		return purgePage(ctx, tx, pageID)
	})
}

// UpsertPage inserts a new Page at (siteID, path), first purging any
// existing Page at that location (idempotent re-index).
func (s *Store) UpsertPage(ctx context.Context, siteID int64, path string, httpCode int, html string) (*domain.Page, error) {
	var page domain.Page
	err := s.withRetryTx(ctx, func(tx *sql.Tx) error {
		var existingID int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM pages WHERE site_id = ? AND path = ?`, siteID, path).Scan(&existingID)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		if err == nil {
			if err := purgePage(ctx, tx, existingID); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO pages (site_id, path, http_code, content) VALUES (?, ?, ?, ?)`,
			siteID, path, httpCode, html)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		page = domain.Page{ID: id, SiteID: siteID, Path: path, HTTPCode: httpCode, Content: html}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// PageByID loads a Page by its id.
func (s *Store) PageByID(ctx context.Context, id int64) (*domain.Page, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, site_id, path, http_code, content FROM pages WHERE id = ?`, id)
	var p domain.Page
	err := row.Scan(&p.ID, &p.SiteID, &p.Path, &p.HTTPCode, &p.Content)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// WriteIndexBatch finds-or-creates a Lemma per entry, increments its
// frequency by exactly one for this page, and inserts an IndexEntry.
func (s *Store) WriteIndexBatch(ctx context.Context, page *domain.Page, lemmaCounts map[string]float64) error {
	if len(lemmaCounts) == 0 {
		return nil
	}
	return s.withRetryTx(ctx, func(tx *sql.Tx) error {
		for text, rank := range lemmaCounts {
			lemmaID, err := getOrCreateLemma(ctx, tx, page.SiteID, text)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE lemmas SET frequency = frequency + 1 WHERE id = ?`, lemmaID); err != nil {
				return err
			}
			entry := domain.IndexEntry{PageID: page.ID, LemmaID: lemmaID, Rank: rank}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO index_entries (page_id, lemma_id, rank) VALUES (?, ?, ?)`,
				entry.PageID, entry.LemmaID, entry.Rank); err != nil {
				return err
			}
		}
		return nil
	})
}

func getOrCreateLemma(ctx context.Context, tx *sql.Tx, siteID int64, text string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM lemmas WHERE site_id = ? AND lemma = ?`, siteID, text).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO lemmas (site_id, lemma, frequency) VALUES (?, ?, 0)`, siteID, text)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// LemmasBySiteAndTexts returns the Lemma rows of siteID whose text is
// in texts.
func (s *Store) LemmasBySiteAndTexts(ctx context.Context, siteID int64, texts []string) ([]domain.Lemma, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	query, args := inQuery(
		`SELECT id, site_id, lemma, frequency FROM lemmas WHERE site_id = ? AND lemma IN (%s)`,
		texts)
	args = append([]any{siteID}, args...)
	return scanLemmas(ctx, s.db, query, args...)
}

// LemmasByTexts returns the Lemma rows across every site whose text is
// in texts, for unscoped search.
func (s *Store) LemmasByTexts(ctx context.Context, texts []string) ([]domain.Lemma, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	query, args := inQuery(
		`SELECT id, site_id, lemma, frequency FROM lemmas WHERE lemma IN (%s)`,
		texts)
	return scanLemmas(ctx, s.db, query, args...)
}

func scanLemmas(ctx context.Context, db *sql.DB, query string, args ...any) ([]domain.Lemma, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lemmas []domain.Lemma
	for rows.Next() {
		var l domain.Lemma
		if err := rows.Scan(&l.ID, &l.SiteID, &l.Text, &l.Frequency); err != nil {
			return nil, err
		}
		lemmas = append(lemmas, l)
	}
	return lemmas, rows.Err()
}

func inQuery(template string, texts []string) (string, []any) {
	placeholders := make([]string, len(texts))
	args := make([]any, len(texts))
	for i, t := range texts {
		placeholders[i] = "?"
		args[i] = t
	}
	return fmt.Sprintf(template, strings.Join(placeholders, ", ")), args
}

// PagesByLemma returns every Page carrying an IndexEntry for lemmaID.
func (s *Store) PagesByLemma(ctx context.Context, lemmaID int64) ([]domain.Page, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.site_id, p.path, p.http_code, p.content
		 FROM pages p JOIN index_entries e ON e.page_id = p.id
		 WHERE e.lemma_id = ?`, lemmaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		var p domain.Page
		if err := rows.Scan(&p.ID, &p.SiteID, &p.Path, &p.HTTPCode, &p.Content); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// RankOf returns the occurrence count of lemmaID on pageID, or 0 if no
// IndexEntry exists for the pair.
func (s *Store) RankOf(ctx context.Context, pageID, lemmaID int64) (float64, error) {
	entry := domain.IndexEntry{PageID: pageID, LemmaID: lemmaID}
	err := s.db.QueryRowContext(ctx,
		`SELECT page_id, lemma_id, rank FROM index_entries WHERE page_id = ? AND lemma_id = ?`, pageID, lemmaID).
		Scan(&entry.PageID, &entry.LemmaID, &entry.Rank)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return entry.Rank, nil
}

func (s *Store) CountPagesOfSite(ctx context.Context, siteID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages WHERE site_id = ?`, siteID).Scan(&n)
	return n, err
}

func (s *Store) CountLemmasOfSite(ctx context.Context, siteID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lemmas WHERE site_id = ?`, siteID).Scan(&n)
	return n, err
}

func (s *Store) CountSites(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sites`).Scan(&n)
	return n, err
}

func (s *Store) CountPages(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&n)
	return n, err
}

func (s *Store) CountLemmas(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lemmas`).Scan(&n)
	return n, err
}
