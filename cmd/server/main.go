package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"radfield/server/internal/app"
)

func main() {
	configPath := flag.String("config", "", "path to tuning.yaml (default config/tuning.yaml)")
	listenAddr := flag.String("addr", "", "listen address override")
	scenarioPath := flag.String("scenario", "", "scenario file override")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, app.Config{
		ConfigPath:   *configPath,
		ListenAddr:   *listenAddr,
		ScenarioPath: *scenarioPath,
	}); err != nil {
		log.Fatalf("%v", err)
	}
}
