// Package main implements a standalone operations script that lists the
// storefront's session records in Redis, with token values masked, so an
// operator can see which browser sessions hold credentials and how long each
// record has left to live.
//
// Run: go run scripts/dump_sessions.go
//
//	(from the repo root, or: cd scripts && go run dump_sessions.go)
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// mask shortens a token to its first and last few characters.
func mask(token string) string {
	if token == "" {
		return "-"
	}
	if len(token) <= 12 {
		return strings.Repeat("*", len(token))
	}
	return token[:6] + "..." + token[len(token)-4:]
}

func main() {
	addr := fmt.Sprintf("%s:%s",
		getEnv("REDIS_HOST", "localhost"),
		getEnv("REDIS_PORT", "6379"),
	)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: getEnv("REDIS_PASSWORD", ""),
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis at %s not reachable: %v", addr, err)
	}

	var (
		cursor uint64
		total  int
		authed int
	)

	fmt.Printf("%-40s %-10s %-30s %-16s %-16s %s\n",
		"SESSION", "SIGNED-IN", "EMAIL", "ACCESS", "REFRESH", "TTL")

	for {
		keys, next, err := client.Scan(ctx, cursor, "session:*", 100).Result()
		if err != nil {
			log.Fatalf("scan failed: %v", err)
		}

		for _, key := range keys {
			vals, err := client.HGetAll(ctx, key).Result()
			if err != nil {
				log.Printf("read %s failed: %v", key, err)
				continue
			}
			ttl, _ := client.TTL(ctx, key).Result()

			access := vals["ecom_access"]
			signedIn := "no"
			if access != "" {
				signedIn = "yes"
				authed++
			}
			total++

			fmt.Printf("%-40s %-10s %-30s %-16s %-16s %s\n",
				strings.TrimPrefix(key, "session:"),
				signedIn,
				vals["ecom_user_email"],
				mask(access),
				mask(vals["ecom_refresh"]),
				ttl.Round(time.Minute),
			)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	fmt.Printf("\n%d sessions, %d signed in\n", total, authed)
}
