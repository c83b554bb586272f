package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/config"
	redisrepo "github.com/trthanhdo41/air-purifier-hcm-sub001/internal/repository/redis"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/issue-session/main.go <customer-id> [ttl]")
		fmt.Println("Example: go run cmd/issue-session/main.go 3f0c6a52-8f1e-4d57-9a43-2b1c9e7d5a10 2h")
		os.Exit(1)
	}

	userID, err := uuid.Parse(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid customer id: %v\n", err)
		os.Exit(1)
	}

	ttl := 24 * time.Hour
	if len(os.Args) > 2 {
		ttl, err = time.ParseDuration(os.Args[2])
		if err != nil || ttl <= 0 {
			fmt.Fprintf(os.Stderr, "Invalid ttl %q\n", os.Args[2])
			os.Exit(1)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate token: %v\n", err)
		os.Exit(1)
	}
	token := hex.EncodeToString(raw)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sessions := redisrepo.NewSessionStore(client, logger)
	if err := sessions.Put(ctx, token, userID, ttl); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to store session: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Session issued for customer %s, expires in %s\n\n", userID, ttl)
	fmt.Printf("Use this token in the Authorization header:\n")
	fmt.Printf("Authorization: Bearer %s\n", token)
}
