// Command crawl runs the indexing pipeline standalone: load config,
// start indexing every configured site, and wait for SIGINT/SIGTERM to
// stop gracefully.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dkoval/sitesearch/internal/analyzer"
	"github.com/dkoval/sitesearch/internal/config"
	"github.com/dkoval/sitesearch/internal/coordinator"
	"github.com/dkoval/sitesearch/internal/fetcher"
	"github.com/dkoval/sitesearch/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config.yaml")
	flag.Parse()

	log.Println("Loading configuration...")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("Opening store...")
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	f := fetcher.New(cfg.UserAgent, cfg.Referrer)
	a := analyzer.New()
	coord := coordinator.New(cfg, st, f, a)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutting down gracefully...")
		coord.StopIndexing(context.Background())
		cancel()
	}()

	log.Printf("Starting indexing for %d sites...", len(cfg.Sites))
	if !coord.StartIndexing(ctx) {
		log.Fatal("Indexing already running")
	}

	coord.Wait()
	log.Println("Indexing finished.")
}
