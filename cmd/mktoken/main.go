package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mkierin/second-brain-web-interface/internal/auth"
)

func main() {
	secret := flag.String("secret", "", "JWT signing secret (JWT_SECRET_KEY)")
	username := flag.String("username", "", "Username to put in the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	if *secret == "" {
		*secret = os.Getenv("JWT_SECRET_KEY")
	}
	if *secret == "" || *username == "" {
		fmt.Fprintln(os.Stderr, "Usage: mktoken -secret <secret> -username <name> [-ttl 24h]")
		fmt.Fprintln(os.Stderr, "  Secret falls back to JWT_SECRET_KEY from the environment")
		os.Exit(1)
	}

	tokens := auth.NewTokens(*secret, *ttl)
	token, err := tokens.Issue(*username)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
