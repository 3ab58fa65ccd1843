package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrijs2005/finbroker/internal/devstub"
	"github.com/dmitrijs2005/finbroker/internal/logging"
)

func main() {

	addr := flag.String("a", ":8080", "address to listen on")
	secret := flag.String("k", "dev-secret-do-not-use-in-production", "token signing key")
	stageTTL := flag.Duration("t", 30*time.Minute, "staged upload lifetime")
	flag.Parse()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	srv := devstub.NewServer([]byte(*secret), *stageTTL, logger)
	srv.StartJanitor(context.Background(), time.Minute)

	log.Printf("devstub listening on %s", *addr)
	if err := srv.Run(*addr); err != nil {
		log.Fatalf("%v", err)
	}

}
