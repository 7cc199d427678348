package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"evewspace/sitetracker/internal/config"
	"evewspace/sitetracker/internal/db"
	"evewspace/sitetracker/internal/db/repositories"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	label := flag.String("label", "", "who the key is issued to")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := db.InitPostgres(cfg.PG.DSN()); err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.DB.Close()

	id, err := repositories.NewApiKeysRepo(db.DB).Insert(context.Background(), *label)
	if err != nil {
		log.Fatalf("insert api key: %v", err)
	}

	fmt.Println("New API Key:", id)
}
