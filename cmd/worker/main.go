package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/xshalabs/xsha-sub005/internal/app/bootstrap"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (event store + bus + consumers).
// 3) Run the bus and retention sweeper until shutdown, then drain.
func main() {
	log.Println("xsha events worker starting")
	app, err := bootstrap.BuildWorker()
	if err != nil {
		log.Fatalf("bootstrap worker failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("worker shutdown close failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("xsha events worker stopped with error: %v", err)
	}
}
