package main

import (
	"flag"
	"log"

	"github.com/LimitAL/cafemaker-web/internal/config"
	"github.com/LimitAL/cafemaker-web/internal/database"
	"github.com/LimitAL/cafemaker-web/internal/gamedata"
	"github.com/LimitAL/cafemaker-web/internal/services/updater"
	"github.com/joho/godotenv"
)

var (
	item   = flag.Int("item", 0, "item id to flag for manual update")
	server = flag.String("server", "", "world or data center name")
)

func main() {
	flag.Parse()

	if *item <= 0 || *server == "" {
		log.Fatal("usage: manual-update -item <id> -server <world|datacenter>")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	worlds := gamedata.DataCenterWorlds(*server)
	if worlds == nil {
		if !gamedata.IsWorld(*server) {
			log.Fatalf("unknown server or data center: %s", *server)
		}
		worlds = []string{*server}
	}

	if err := updater.NewEntryStore(db).MarkManual(*item, worlds); err != nil {
		log.Fatalf("failed to mark item %d manual: %v", *item, err)
	}

	log.Printf("item %d flagged for manual update on %d worlds: %v", *item, len(worlds), worlds)
}
