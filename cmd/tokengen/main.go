// Command tokengen mints HS256 bearer tokens for local development and
// testing. Tokens signed with the dev key will NOT work against a production
// deployment.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"caregate/internal/token"

	"github.com/google/uuid"
)

const (
	// Matches config.go when JWT_SECRET is not set.
	devSigningKey = "dev-secret-key-change-in-production"

	defaultTTL = 30 * time.Minute
)

type tokenOutput struct {
	Token     string `json:"token"`
	Subject   string `json:"subject"`
	ExpiresIn string `json:"expires_in"`
	Usage     string `json:"usage"`
}

func main() {
	subject := flag.String("subject", "", "Token subject (user UUID). Generated if empty.")
	secret := flag.String("secret", devSigningKey, "HMAC signing secret")
	ttl := flag.Duration("ttl", defaultTTL, "Token time-to-live")
	asJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	subjectID := uuid.New()
	if *subject != "" {
		parsed, err := uuid.Parse(*subject)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid subject %q: must be a UUID\n", *subject)
			os.Exit(1)
		}
		subjectID = parsed
	}

	svc := token.NewService(*secret, "caregate")
	signed, err := svc.Generate(subjectID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		out := tokenOutput{
			Token:     signed,
			Subject:   subjectID.String(),
			ExpiresIn: ttl.String(),
			Usage:     `curl -H "Authorization: Bearer <token>" http://localhost:8080/api/v1/secure`,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out) //nolint:errcheck // stdout
		return
	}

	fmt.Printf("subject:    %s\n", subjectID)
	fmt.Printf("expires in: %s\n", ttl)
	fmt.Printf("\n%s\n", signed)
}
