package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/usergate/internal/client/cli"
	"github.com/dmitrijs2005/usergate/internal/client/config"
	"github.com/dmitrijs2005/usergate/internal/flagx"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	args := flagx.Positional(os.Args[1:], []string{"-a", "-db", "-i", "-c", "-config"})
	if err := app.Run(ctx, args); err != nil {
		stop()
		os.Exit(1)
	}
}
