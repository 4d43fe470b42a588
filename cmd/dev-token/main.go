package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/forgo/lfg/internal/model"
	"github.com/forgo/lfg/pkg/jwt"
)

func main() {
	privateKeyPath := flag.String("key", "./keys/private.pem", "Path to JWT private key")
	userID := flag.String("user", "dev-user", "User ID (token subject)")
	name := flag.String("name", "Dev User", "Display name")
	role := flag.String("role", string(model.UserRoleUser), "Role: user or admin")
	issuer := flag.String("issuer", "lfg.forgo.software", "JWT issuer")
	expMins := flag.Int("exp", 60*24*7, "Token expiration in minutes (default: 7 days)")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	if !model.UserRole(*role).IsValid() {
		fmt.Fprintf(os.Stderr, "Unknown role %q, expected user or admin\n", *role)
		os.Exit(2)
	}

	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: *privateKeyPath,
		Issuer:         *issuer,
		ExpirationMins: *expMins,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating JWT service: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nGenerate keys first with: go run ./cmd/keygen\n")
		os.Exit(1)
	}

	token, err := jwtService.Sign(jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: *userID},
		Name:             *name,
		Role:             *role,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		output := map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   *expMins * 60,
			"user_id":      *userID,
			"name":         *name,
			"role":         *role,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(output)
		return
	}

	expTime := time.Now().Add(time.Duration(*expMins) * time.Minute)
	fmt.Println("Token Generated")
	fmt.Println("===============")
	fmt.Printf("User ID:  %s\n", *userID)
	fmt.Printf("Name:     %s\n", *name)
	fmt.Printf("Role:     %s\n", *role)
	fmt.Printf("Expires:  %s\n", expTime.Format(time.RFC3339))
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl -H 'Authorization: Bearer %s' http://localhost:8080/v1/me\n", token[:50]+"...")
	fmt.Println("  or set it as the lfg_token cookie to browse the board")
}
