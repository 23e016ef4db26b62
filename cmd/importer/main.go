package main

import (
	"context"
	"flag"
	"log"
	"os"

	"demand-service/config"
	"demand-service/internal/importer"
	"demand-service/internal/store"
	"demand-service/internal/util"
)

func main() {
	feedPath := flag.String("feed", "", "path to the supplier XML download")
	flag.Parse()

	if *feedPath == "" {
		log.Fatal("usage: importer -feed <supplier-feed.xml>")
	}

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	feed, err := os.Open(*feedPath)
	if err != nil {
		log.Fatalf("Failed to open feed: %v", err)
	}
	defer feed.Close()

	products, err := importer.ParseFeed(feed)
	if err != nil {
		log.Fatalf("Failed to parse feed: %v", err)
	}
	log.Printf("Parsed %d products", len(products))

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	imported, err := importer.NewImporter(db).Import(context.Background(), products)
	if err != nil {
		log.Fatalf("Import failed after %d rows: %v", imported, err)
	}

	log.Printf("Import complete: %d products", imported)
}
