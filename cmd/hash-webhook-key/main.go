package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/hash-webhook-key/main.go <webhook-api-key>")
		fmt.Println("Example: go run cmd/hash-webhook-key/main.go \"pg-webhook-key-12345\"")
		os.Exit(1)
	}

	apiKey := os.Args[1]

	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash API key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("PAYMENT_WEBHOOK_KEY_HASH=%s\n\n", hash)
	fmt.Printf("Configure the payment provider to send:\n")
	fmt.Printf("Authorization: Apikey %s\n", apiKey)
}
