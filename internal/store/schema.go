package store

// schema is the sqlite DDL for the four persisted entities: sites,
// pages, lemmas, and the page-lemma index entries joining them.
const schema = `
CREATE TABLE IF NOT EXISTS sites (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	status TEXT NOT NULL,
	status_time DATETIME NOT NULL,
	last_error TEXT
);

CREATE TABLE IF NOT EXISTS pages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id INTEGER NOT NULL REFERENCES sites(id),
	path TEXT NOT NULL,
	http_code INTEGER NOT NULL,
	content TEXT NOT NULL,
	UNIQUE(site_id, path)
);
CREATE INDEX IF NOT EXISTS idx_pages_path ON pages(path);
CREATE INDEX IF NOT EXISTS idx_pages_site_path ON pages(site_id, path);

CREATE TABLE IF NOT EXISTS lemmas (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id INTEGER NOT NULL REFERENCES sites(id),
	lemma TEXT NOT NULL,
	frequency INTEGER NOT NULL DEFAULT 0,
	UNIQUE(site_id, lemma)
);
CREATE INDEX IF NOT EXISTS idx_lemmas_site_text ON lemmas(site_id, lemma);

CREATE TABLE IF NOT EXISTS index_entries (
	page_id INTEGER NOT NULL REFERENCES pages(id),
	lemma_id INTEGER NOT NULL REFERENCES lemmas(id),
	rank REAL NOT NULL,
	PRIMARY KEY (page_id, lemma_id)
);
CREATE INDEX IF NOT EXISTS idx_entries_lemma ON index_entries(lemma_id);
`
