package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/wishlist/internal/logging"
	"github.com/dmitrijs2005/wishlist/internal/server"
	"github.com/dmitrijs2005/wishlist/internal/server/config"
	"github.com/dmitrijs2005/wishlist/internal/timex"
	"github.com/dmitrijs2005/wishlist/internal/wishctl"
)

func main() {
	ctx := context.Background()
	args := os.Args[1:]

	cfg, err := config.LoadConfig(args, nil)
	if err != nil {
		log.Fatalf("%v", err)
	}

	clock := timex.SystemClock{}
	st, err := server.OpenStorage(ctx, cfg, clock)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer st.Close()

	svc, err := server.NewServices(cfg, st, clock, logging.NewJSON(os.Stderr, cfg.LogLevel))
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := wishctl.NewApp(svc.Auth, svc.Images, os.Stdout).Run(ctx, args); err != nil {
		log.Printf("%v", err)
		st.Close()
		os.Exit(1)
	}
}
