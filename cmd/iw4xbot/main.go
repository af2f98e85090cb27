package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/iw4x/iw4x-discord-bot/internal/bot"
	"github.com/iw4x/iw4x-discord-bot/internal/commands"
	"github.com/iw4x/iw4x-discord-bot/internal/config"
)

func main() {
	var (
		cfgPath = flag.String("config", "config.json", "path to config.json")
		cmdPath = flag.String("commands", "commands.json", "path to commands.json")
		envPath = flag.String("env", ".env", "optional dotenv file")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath, *envPath)
	if err != nil {
		log.Fatal(err)
	}
	table, err := commands.Load(*cmdPath)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("loaded %d commands", table.Len())

	b, err := bot.New(cfg, table)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := b.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer b.Stop()

	log.Println("running… press Ctrl+C to stop")

	<-ctx.Done()
}
