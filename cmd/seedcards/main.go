package main

import (
	"Lotero/config"
	"Lotero/services/cards"
	"flag"
	"log"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	godotenv.Load()

	dir := flag.String("dir", "assets/data/cards", "directory holding card-{color}-{n}.csv layout files")
	migrate := flag.Bool("migrate", false, "run database migrations before seeding")
	flag.Parse()

	db, err := config.ConnectGORM()
	if err != nil {
		log.Fatalf("Error connecting to PostgreSQL: %v", err)
	}

	if *migrate {
		if err := config.MigrateDatabase(db); err != nil {
			log.Fatalf("Error migrating database: %v", err)
		}
	}

	count, err := cards.SeedFromDir(db, *dir)
	if err != nil {
		log.Fatalf("Error seeding cards: %v", err)
	}
	log.Printf("Seeded %d cards from %s", count, *dir)
}
