// Command search is a development CLI harness for the search package.
// A real request surface (HTTP, RPC, etc.) would front this query in
// production; this binary exists only to exercise internal/search
// from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/dkoval/sitesearch/internal/analyzer"
	"github.com/dkoval/sitesearch/internal/config"
	"github.com/dkoval/sitesearch/internal/search"
	"github.com/dkoval/sitesearch/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config.yaml")
	site := flag.String("site", "", "restrict search to this configured site URL")
	offset := flag.Int("offset", 0, "result offset")
	limit := flag.Int("limit", 20, "result limit")
	flag.Parse()

	query := flag.Arg(0)
	if query == "" {
		log.Fatal("usage: search [-config path] [-site url] [-offset n] [-limit n] <query>")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	searcher := search.New(st, analyzer.New())
	total, results, err := searcher.Search(context.Background(), query, *site, *offset, *limit)
	if err != nil {
		fmt.Printf("search failed: %v\n", err)
		return
	}

	fmt.Printf("%d results for %q\n", total, query)
	for _, r := range results {
		fmt.Printf("\n[%0.2f] %s%s\n  %s\n  %s\n", r.Relevance, r.SiteURL, r.Path, r.Title, r.Snippet)
	}
}
