package main

import (
	"log"

	"github.com/el-rey08/EDHF-logistics/internal/app"
	"github.com/el-rey08/EDHF-logistics/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	application.Run()
}
