package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	battleshipcmd "github.com/louisbranch/broadside/internal/cmd/battleship"
	"github.com/louisbranch/broadside/internal/platform/config"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/turn"
)

func main() {
	cfg, err := battleshipcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.ExitCodef(os.Stderr, config.ExitUsage, "parse flags: %v", err)
	}
	log.SetPrefix("[BATTLESHIP] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := battleshipcmd.Run(ctx, cfg)
	if err != nil {
		log.Fatalf("game aborted: %v", err)
	}
	if result == turn.ResultLost {
		stop()
		os.Exit(config.ExitLost)
	}
}
