package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"

	"visionserver/internal/repository/sqlite"
	"visionserver/internal/settings"
)

// Initializes the database schema and seeds default settings, for
// deployments that prepare the data volume before first start.
func main() {
	dbPath := flag.String("db", "data/vision_system.db", "Database path")
	threshold := flag.Float64("threshold", 0.5, "Default confidence threshold")
	flag.Parse()

	if *threshold < 0 || *threshold > 1 {
		log.Fatalf("Invalid threshold %v: must be between 0 and 1", *threshold)
	}

	fmt.Printf("Migrating database %s\n", *dbPath)

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	store := settings.NewStore(sqlite.NewSettingsRepository(db))
	value := strconv.FormatFloat(*threshold, 'f', -1, 64)
	if err := store.Seed(settings.KeyConfidenceThreshold, value,
		"Minimum confidence for a PASS verdict"); err != nil {
		log.Fatalf("Failed to seed settings: %v", err)
	}

	all, err := store.All()
	if err != nil {
		log.Fatalf("Failed to read settings back: %v", err)
	}

	fmt.Println("Schema ready. Current settings:")
	for k, v := range all {
		fmt.Printf("  %s = %s\n", k, v)
	}
}
