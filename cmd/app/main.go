// Command app runs the FinCast HTTP API together with the optional Kafka
// prefetch consumer.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"FinCast/internal/di"
	"FinCast/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	checkOnly := flag.Bool("check-config", false, "validate the configuration and exit")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *checkOnly {
		fmt.Printf("%s: ok (env=%s providers=%s forecast=%s)\n",
			*configPath, cfg.Environment, strings.Join(cfg.Providers.Order, ","), cfg.Forecast.Backend)
		return
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
