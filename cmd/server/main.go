// Package main implements the entry point for the Ebbinghaus
// scheduling server: a spaced-repetition reminder engine with an HTTP
// surface and a notification dispatcher.
package main

import (
	"context"
	"log"
)

func main() {
	app, err := newApplication()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.run(context.Background()); err != nil {
		app.cleanup()
		log.Fatalf("Server exited with error: %v", err)
	}
}
