package main

import (
	"log"

	_ "github.com/joho/godotenv/autoload"

	"hmisync/internal/config"
	"hmisync/internal/db"
	"hmisync/internal/engine"
	"hmisync/internal/ledger"
	"hmisync/internal/pkg/legacy"
	"hmisync/internal/routes"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbConn, err := db.InitDB(cfg.LedgerDBPath)
	if err != nil {
		log.Fatalf("Failed to open ledger database: %v", err)
	}

	l, err := ledger.New(dbConn)
	if err != nil {
		log.Fatalf("Failed to migrate ledger: %v", err)
	}

	driver := legacy.NewDriver(cfg.DriverPath, cfg.DatabasePath)
	e := engine.New(l, driver, driver)

	router := routes.SetupRouter(l, e, cfg)

	log.Printf("Starting server on %s", cfg.ListenAddr)
	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
