package main

import (
	"context"
	"log"
	"os"

	"github.com/coursemates/backend/internal/app"
)

func main() {
	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
