// Command storecheck connects to the persisted article store and prints
// what it holds.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/deusflow/stablenews/internal/storage"
)

func main() {
	driver := flag.String("driver", envOr("STORE_BACKEND", storage.DriverPostgres), "postgres or sqlite")
	table := flag.String("table", envOr("DATABASE_TABLE", "positive_news"), "article table")
	limit := flag.Int("n", 5, "number of recent articles to list")
	flag.Parse()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set in environment")
	}

	fmt.Printf("Connecting to %s store...\n", *driver)
	fmt.Printf("Database URL: %s\n\n", maskPassword(dbURL))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := storage.NewSQLStore(ctx, *driver, dbURL, storage.SQLOptions{Table: *table})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer store.Close()

	fmt.Println("Connected.")

	stats, err := store.Stats(ctx)
	if err != nil {
		log.Printf("Failed to get stats: %v", err)
	} else {
		fmt.Println("\nStore statistics:")
		fmt.Printf("  Total articles: %d\n", stats.Total)
		if stats.Total > 0 {
			fmt.Printf("  Oldest fetch: %s\n", stats.Oldest.Format(time.RFC3339))
			fmt.Printf("  Newest fetch: %s\n", stats.Newest.Format(time.RFC3339))
		}
		sources := make([]string, 0, len(stats.Sources))
		for s := range stats.Sources {
			sources = append(sources, s)
		}
		sort.Strings(sources)
		for _, s := range sources {
			fmt.Printf("  %-24s %d\n", s, stats.Sources[s])
		}
	}

	recent, err := store.Recent(ctx, *limit)
	if err != nil {
		log.Printf("Failed to get recent articles: %v", err)
		return
	}
	fmt.Printf("\nRecent articles (last %d):\n", *limit)
	if len(recent) == 0 {
		fmt.Println("  (none yet)")
	}
	for i, a := range recent {
		fmt.Printf("  %d. %s\n", i+1, a.Title)
		fmt.Printf("     %s | sentiment %.2f | fetched %s\n", a.Source, a.Sentiment, a.FetchedAt.Format("2006-01-02 15:04:05"))
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func maskPassword(dbURL string) string {
	if len(dbURL) > 50 {
		return dbURL[:30] + "***" + dbURL[len(dbURL)-20:]
	}
	return dbURL
}
