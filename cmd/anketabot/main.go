package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/m3rciful/anketabot/app"
	corecmd "github.com/m3rciful/anketabot/core/cmd"
)

func main() {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return app.New(cfg.(*app.Config))
		},
	})
	if err != nil {
		log.Fatalf("anketabot: %v", err)
	}
}
