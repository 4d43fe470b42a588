package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forgo/lfg/pkg/jwt"
)

func main() {
	privateKeyPath := flag.String("private", "./keys/private.pem", "Where to write the private key")
	publicKeyPath := flag.String("public", "./keys/public.pem", "Where to write the public key")
	force := flag.Bool("force", false, "Overwrite existing keys")

	flag.Parse()

	if !*force {
		for _, path := range []string{*privateKeyPath, *publicKeyPath} {
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(os.Stderr, "%s already exists, pass -force to overwrite\n", path)
				os.Exit(1)
			}
		}
	}

	for _, path := range []string{*privateKeyPath, *publicKeyPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating key directory: %v\n", err)
			os.Exit(1)
		}
	}

	if err := jwt.GenerateKeyPair(*privateKeyPath, *publicKeyPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating keys: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s and %s\n", *privateKeyPath, *publicKeyPath)
}
