package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"quizbe/pkg/cardocr"
)

// One-shot debug runner: feed it a card photo and it prints every stage
// of the recognition pipeline.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: go run ./tools/cmd/cardscan <image>")
		os.Exit(2)
	}
	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("read: %v", err)
	}
	pipeline := cardocr.New(cardocr.DefaultConfig())
	res, err := pipeline.Run(context.Background(), raw)
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}
	fmt.Printf("--- raw text ---\n%s\n", res.RawText)
	fmt.Printf("--- cleaned ---\n%s\n", res.CleanedText)
	fmt.Printf("matricule=%q name=%q\n", res.Data.Matricule, res.Data.Name)
	fmt.Printf("valid=%v errors=%v\n", res.Validation.Valid, res.Validation.Errors)
}
