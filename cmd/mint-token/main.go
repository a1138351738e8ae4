// Command mint-token prints a signed bearer token for an existing user id.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"competition-ledger/internal/auth"
	"competition-ledger/internal/config"
)

func main() {
	userID := flag.String("user", "", "user id to mint the token for")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to AUTH_TOKEN_TTL")
	flag.Parse()

	if err := uuid.Validate(*userID); err != nil {
		fmt.Fprintln(os.Stderr, "mint-token: -user must be a valid uuid")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "mint-token:", err)
		os.Exit(1)
	}

	token, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).Mint(*userID, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mint-token:", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
