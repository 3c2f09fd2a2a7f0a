package main

import (
	"log"

	"github.com/aussiebroadwan/keystone/internal/auth/app"
)

//go:generate swag init -g internal/auth/http/router.go -d ../../ -o ../../api/auth --parseDependency

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
