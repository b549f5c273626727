package main

import (
	"log"

	"github.com/MrSnakeDoc/cradle/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ cradle failed to start: %v", err)
	}
}
